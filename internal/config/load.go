// Package config defines the application configuration and its loading.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from environment variables and an optional
// config file. Environment variables take precedence over file values.
// Returns a populated Config struct or an error if loading or validation
// fails.
//
// Environment variables use the VOCAB_ prefix with underscores for nesting,
// e.g. VOCAB_DATABASE_URL, VOCAB_LLM_GEMINI_API_KEY.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("VOCAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// the nested keys explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"llm.gemini_api_key",
		"llm.model_name",
		"llm.max_retries",
		"review.interval_ladder_hours",
		"task.worker_count",
		"task.queue_size",
		"task.stuck_task_age_minutes",
		"task.stuck_check_minutes",
		"reconciler.interval_minutes",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults establishes the defaults applied before file and environment
// values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("review.interval_ladder_hours", []int{24, 72, 168})
	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)
	v.SetDefault("task.stuck_check_minutes", 5)
	v.SetDefault("reconciler.interval_minutes", 15)
}

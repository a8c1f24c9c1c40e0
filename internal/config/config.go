package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"     validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"   validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm"        validate:"required"`
	Review     ReviewConfig     `mapstructure:"review"`
	Task       TaskConfig       `mapstructure:"task"`
	Reconciler ReconcilerConfig `mapstructure:"reconciler"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`

	// MaxRetries bounds caller-side retries of transient failures during
	// dictionary ingestion. Exam generation is never retried automatically.
	MaxRetries int `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// ReviewConfig contains the review scheduling policy settings. The interval
// ladder is deliberately configuration rather than code: the backoff curve
// is a policy choice, not an invariant.
type ReviewConfig struct {
	// IntervalLadderHours holds the per-promotion review intervals in hours,
	// shortest first. Empty means the built-in default ladder (24, 72, 168).
	IntervalLadderHours []int `mapstructure:"interval_ladder_hours" validate:"dive,gt=0"`
}

// IntervalLadder converts the configured hours into durations.
func (c ReviewConfig) IntervalLadder() []time.Duration {
	ladder := make([]time.Duration, 0, len(c.IntervalLadderHours))
	for _, h := range c.IntervalLadderHours {
		ladder = append(ladder, time.Duration(h)*time.Hour)
	}
	return ladder
}

// TaskConfig contains the background task runner settings.
type TaskConfig struct {
	WorkerCount        int `mapstructure:"worker_count"          validate:"gte=0,lte=64"`
	QueueSize          int `mapstructure:"queue_size"            validate:"gte=0"`
	StuckTaskAgeMin    int `mapstructure:"stuck_task_age_minutes" validate:"gte=0"`
	StuckCheckEveryMin int `mapstructure:"stuck_check_minutes"   validate:"gte=0"`
}

// ReconcilerConfig contains the derived-count reconciler settings.
type ReconcilerConfig struct {
	// IntervalMinutes is how often stored collection counts are checked
	// against live item counts. Zero disables the reconciler.
	IntervalMinutes int `mapstructure:"interval_minutes" validate:"gte=0"`
}

package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when content generation fails for any
	// general reason.
	ErrGenerationFailed = errors.New("failed to generate content")

	// ErrInvalidResponse is returned when the LLM response cannot be parsed
	// or is malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrShapeMismatch is returned when the LLM produced a different number
	// of prompts or sentences than requested. Short results are never
	// accepted silently.
	ErrShapeMismatch = errors.New("generated content does not match requested counts")

	// ErrContentBlocked is returned when the LLM blocks the content due to
	// safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry. Whether to retry is the caller's decision.
	ErrTransientFailure = errors.New("transient error during content generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

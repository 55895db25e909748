package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed = fmt.Errorf("authentication failed")
	ErrTimeout    = fmt.Errorf("operation timed out")

	// API and source errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrSourceUnavailable = fmt.Errorf("source unavailable")
	ErrTrackNotFound     = fmt.Errorf("track not found")
	ErrRateLimited       = fmt.Errorf("rate limited")
	ErrCircuitOpen       = fmt.Errorf("circuit breaker open")

	// Pipeline errors
	ErrTaskNotFound     = fmt.Errorf("task not found")
	ErrTaskNotPending   = fmt.Errorf("task is not pending")
	ErrNoGenres         = fmt.Errorf("no valid genres")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

package config

import (
	"errors"
	"fmt"
	"time"
)

// ValidationError contains details about what failed validation.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config.%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validNotifyBackends = map[string]bool{
	"terminal": true,
	"webhook":  true,
}

// validateConfig checks all config values for validity.
// Returns nil if valid, or joined errors for all validation failures.
func validateConfig(cfg *Config) error {
	var errs []error

	if cfg.WorkerCount < 1 {
		errs = append(errs, &ValidationError{
			Field:   "worker_count",
			Value:   cfg.WorkerCount,
			Message: "must be at least 1",
		})
	}

	if cfg.UnitsPerWorker < 1 {
		errs = append(errs, &ValidationError{
			Field:   "units_per_worker",
			Value:   cfg.UnitsPerWorker,
			Message: "must be at least 1",
		})
	}

	if d, err := time.ParseDuration(cfg.Poll.Interval); err != nil || d <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "poll.interval",
			Value:   cfg.Poll.Interval,
			Message: "must be a positive duration",
		})
	}

	if cfg.Poll.MaxAttempts < 1 {
		errs = append(errs, &ValidationError{
			Field:   "poll.max_attempts",
			Value:   cfg.Poll.MaxAttempts,
			Message: "must be at least 1",
		})
	}

	if len(cfg.Providers) == 0 {
		errs = append(errs, &ValidationError{
			Field:   "providers",
			Value:   cfg.Providers,
			Message: "at least one provider is required",
		})
	}
	seen := make(map[string]bool, len(cfg.Providers))
	for i, p := range cfg.Providers {
		field := fmt.Sprintf("providers[%d]", i)
		if p.ID == "" {
			errs = append(errs, &ValidationError{
				Field:   field + ".id",
				Value:   p.ID,
				Message: "must not be empty",
			})
			continue
		}
		if seen[p.ID] {
			errs = append(errs, &ValidationError{
				Field:   field + ".id",
				Value:   p.ID,
				Message: "duplicate provider id",
			})
		}
		seen[p.ID] = true
		if p.Model == "" {
			errs = append(errs, &ValidationError{
				Field:   field + ".model",
				Value:   p.Model,
				Message: "must not be empty",
			})
		}
	}

	if cfg.Replicate.BaseURL == "" {
		errs = append(errs, &ValidationError{
			Field:   "replicate.base_url",
			Value:   cfg.Replicate.BaseURL,
			Message: "must not be empty",
		})
	}
	if cfg.Replicate.TokenEnv == "" {
		errs = append(errs, &ValidationError{
			Field:   "replicate.token_env",
			Value:   cfg.Replicate.TokenEnv,
			Message: "must not be empty",
		})
	}

	for _, backend := range cfg.Notify.Backends {
		if !validNotifyBackends[backend] {
			errs = append(errs, &ValidationError{
				Field:   "notify.backends",
				Value:   backend,
				Message: "unknown backend (terminal, webhook)",
			})
		}
		if backend == "webhook" && cfg.Notify.WebhookURL == "" {
			errs = append(errs, &ValidationError{
				Field:   "notify.webhook_url",
				Value:   cfg.Notify.WebhookURL,
				Message: "required for the webhook backend",
			})
		}
	}

	if !validLogLevels[cfg.LogLevel] {
		errs = append(errs, &ValidationError{
			Field:   "log_level",
			Value:   cfg.LogLevel,
			Message: "must be one of: debug, info, warn, error",
		})
	}

	return errors.Join(errs...)
}

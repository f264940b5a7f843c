package plan

import (
	"fmt"
	"strings"

	"github.com/aeon-video/sceneforge/internal/provider"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Scene   string // scene ID (empty for plan-level errors)
	Field   string // field name that failed validation
	Message string // human-readable error description
}

// ValidationResult collects all validation errors
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if no validation errors occurred
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a formatted string of all validation errors
func (r *ValidationResult) Error() string {
	if r.IsValid() {
		return ""
	}

	var lines []string
	count := len(r.Errors)
	if count == 1 {
		lines = append(lines, "plan validation failed with 1 error:")
	} else {
		lines = append(lines, fmt.Sprintf("plan validation failed with %d errors:", count))
	}

	for _, err := range r.Errors {
		var prefix string
		if err.Scene != "" {
			prefix = fmt.Sprintf("scene %q", err.Scene)
			if err.Field != "" {
				prefix += ", field " + err.Field
			}
			prefix += ": "
		} else if err.Field != "" {
			prefix = "field " + err.Field + ": "
		}
		lines = append(lines, fmt.Sprintf("  - %s%s", prefix, err.Message))
	}

	return strings.Join(lines, "\n")
}

// Add appends an error to the result
func (r *ValidationResult) Add(err ValidationError) {
	r.Errors = append(r.Errors, err)
}

// Validate checks the plan against the scene rules. All violations are
// collected, not just the first.
func (p *Plan) Validate() *ValidationResult {
	result := &ValidationResult{}

	if len(p.Scenes) == 0 {
		result.Add(ValidationError{Field: "scenes", Message: "plan has no scenes"})
		return result
	}
	if len(p.Scenes) > MaxScenes {
		result.Add(ValidationError{
			Field:   "scenes",
			Message: fmt.Sprintf("plan has %d scenes, maximum is %d", len(p.Scenes), MaxScenes),
		})
	}

	seen := make(map[string]bool, len(p.Scenes))
	for _, s := range p.Scenes {
		if s.ID == "" {
			result.Add(ValidationError{Field: "id", Message: "scene id is required"})
			continue
		}
		if seen[s.ID] {
			result.Add(ValidationError{Scene: s.ID, Field: "id", Message: "duplicate scene id"})
		}
		seen[s.ID] = true

		if s.Prompt == "" {
			result.Add(ValidationError{Scene: s.ID, Field: "prompt", Message: "prompt is required"})
		} else if len(s.Prompt) > MaxPromptLen {
			result.Add(ValidationError{
				Scene:   s.ID,
				Field:   "prompt",
				Message: fmt.Sprintf("prompt is %d chars, maximum is %d", len(s.Prompt), MaxPromptLen),
			})
		}

		if s.Duration < provider.MinDurationSec || s.Duration > provider.MaxDurationSec {
			result.Add(ValidationError{
				Scene:   s.ID,
				Field:   "duration",
				Message: fmt.Sprintf("duration %ds out of range [%d, %d]", s.Duration, provider.MinDurationSec, provider.MaxDurationSec),
			})
		}
		if s.Width < provider.MinDimension || s.Width > provider.MaxDimension {
			result.Add(ValidationError{
				Scene:   s.ID,
				Field:   "width",
				Message: fmt.Sprintf("width %d out of range [%d, %d]", s.Width, provider.MinDimension, provider.MaxDimension),
			})
		}
		if s.Height < provider.MinDimension || s.Height > provider.MaxDimension {
			result.Add(ValidationError{
				Scene:   s.ID,
				Field:   "height",
				Message: fmt.Sprintf("height %d out of range [%d, %d]", s.Height, provider.MinDimension, provider.MaxDimension),
			})
		}
	}

	return result
}

package provider

import (
	"fmt"

	"github.com/aeon-video/sceneforge/internal/batch"
)

// VideoParams is the typed parameter set for video generation backends.
// Provider-specific extras that have no typed field travel in Extra and
// are passed through to the backend untouched.
type VideoParams struct {
	DurationSec int
	Width       int
	Height      int
	Quality     string
	Extra       map[string]any
}

// Parameter bounds enforced at the client boundary. These mirror what
// the upstream backends actually accept.
const (
	MinDurationSec = 1
	MaxDurationSec = 60
	MinDimension   = 64
	MaxDimension   = 1920
)

// Validate checks the typed fields against the descriptor's limits.
func (p VideoParams) Validate(d Descriptor) error {
	if p.DurationSec < MinDurationSec || p.DurationSec > MaxDurationSec {
		return fmt.Errorf("duration %ds out of range [%d, %d]", p.DurationSec, MinDurationSec, MaxDurationSec)
	}
	if d.MaxUnitDurationSec > 0 && p.DurationSec > d.MaxUnitDurationSec {
		return fmt.Errorf("duration %ds exceeds provider %s limit of %ds", p.DurationSec, d.ID, d.MaxUnitDurationSec)
	}
	if p.Width < MinDimension || p.Width > MaxDimension {
		return fmt.Errorf("width %d out of range [%d, %d]", p.Width, MinDimension, MaxDimension)
	}
	if p.Height < MinDimension || p.Height > MaxDimension {
		return fmt.Errorf("height %d out of range [%d, %d]", p.Height, MinDimension, MaxDimension)
	}
	return nil
}

// AspectRatio renders the "W:H" string backends expect.
func (p VideoParams) AspectRatio() string {
	return fmt.Sprintf("%d:%d", p.Width, p.Height)
}

// typedParamKeys are the map keys lifted into VideoParams fields.
// Everything else lands in Extra.
var typedParamKeys = map[string]bool{
	"duration": true,
	"width":    true,
	"height":   true,
	"quality":  true,
}

// BuildParams merges the descriptor defaults, the unit's params, and
// the unit's overrides (lowest to highest precedence) into a typed
// parameter set. Unknown keys stay in Extra as the provider-specific
// escape hatch.
func BuildParams(unit batch.Unit, d Descriptor) VideoParams {
	merged := make(map[string]any, len(d.DefaultParams)+len(unit.Params)+len(unit.Overrides))
	for k, v := range d.DefaultParams {
		merged[k] = v
	}
	for k, v := range unit.Params {
		merged[k] = v
	}
	for k, v := range unit.Overrides {
		merged[k] = v
	}

	p := VideoParams{
		DurationSec: unit.DurationSec,
		Width:       unit.Width,
		Height:      unit.Height,
		Quality:     "high",
	}

	if v, ok := intParam(merged, "duration"); ok {
		p.DurationSec = v
	}
	if v, ok := intParam(merged, "width"); ok {
		p.Width = v
	}
	if v, ok := intParam(merged, "height"); ok {
		p.Height = v
	}
	if v, ok := merged["quality"].(string); ok {
		p.Quality = v
	}

	for k, v := range merged {
		if typedParamKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}

	return p
}

// intParam reads an int-valued key, tolerating the float64 that YAML
// and JSON decoding sometimes produce.
func intParam(m map[string]any, key string) (int, bool) {
	switch v := m[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

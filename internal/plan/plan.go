// Package plan loads and validates scene plans, the YAML documents an
// upstream planner hands to the batch pipeline. A plan lists the
// scenes to generate in final cut order plus per-worker provider
// preferences.
package plan

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aeon-video/sceneforge/internal/batch"
)

// MaxScenes caps the number of scenes in a single plan
const MaxScenes = 20

// MaxPromptLen caps the prompt length per scene
const MaxPromptLen = 1000

// Scene is one shot of the final video
type Scene struct {
	// ID identifies the scene within the plan (unique, required)
	ID string `yaml:"id"`

	// Prompt is the generation prompt (required)
	Prompt string `yaml:"prompt"`

	// Duration is the target length in seconds
	Duration int `yaml:"duration"`

	// Width and Height are the output dimensions in pixels
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Provider optionally pins a preferred provider for this scene
	Provider string `yaml:"provider,omitempty"`

	// Params are provider parameters for this scene
	Params map[string]any `yaml:"params,omitempty"`

	// Overrides take precedence over Params and provider defaults
	Overrides map[string]any `yaml:"overrides,omitempty"`
}

// Defaults fill in scene fields left unset
type Defaults struct {
	Duration int `yaml:"duration"`
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
}

// Plan is a parsed scene plan
type Plan struct {
	// Title names the video
	Title string `yaml:"title"`

	// Output is the assembled output filename
	Output string `yaml:"output,omitempty"`

	// Defaults apply to scenes that leave the field unset
	Defaults Defaults `yaml:"defaults,omitempty"`

	// Scenes in final cut order
	Scenes []Scene `yaml:"scenes"`

	// Preferences is the per-worker-slot provider preference list.
	// Optional; when absent, preferences are derived from scene-level
	// provider pins.
	Preferences []string `yaml:"preferences,omitempty"`
}

// Load reads and parses a plan file. The plan is validated; a plan
// that parses but violates the scene rules is rejected.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return Parse(data)
}

// Parse parses plan YAML
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	p.applyDefaults()

	if result := p.Validate(); !result.IsValid() {
		return nil, batch.NewError(batch.KindValidation, result.Error())
	}
	return &p, nil
}

func (p *Plan) applyDefaults() {
	for i := range p.Scenes {
		s := &p.Scenes[i]
		if s.Duration == 0 {
			s.Duration = p.Defaults.Duration
		}
		if s.Width == 0 {
			s.Width = p.Defaults.Width
		}
		if s.Height == 0 {
			s.Height = p.Defaults.Height
		}
	}
}

// Units converts the plan's scenes to batch units in plan order
func (p *Plan) Units() []batch.Unit {
	units := make([]batch.Unit, len(p.Scenes))
	for i, s := range p.Scenes {
		units[i] = batch.Unit{
			Index:       i,
			Prompt:      s.Prompt,
			DurationSec: s.Duration,
			Width:       s.Width,
			Height:      s.Height,
			Params:      s.Params,
			Overrides:   s.Overrides,
		}
	}
	return units
}

// WorkerPreferences returns the per-worker-slot provider preference
// list for the given partitioning. An explicit Preferences list wins;
// otherwise each slot inherits the provider pin of the first scene in
// its block, and slots with no pinned scene get the empty hint.
func (p *Plan) WorkerPreferences(workerCount, unitsPerWorker int) []string {
	if len(p.Preferences) > 0 {
		return p.Preferences
	}

	prefs := make([]string, workerCount)
	for k := 0; k < workerCount; k++ {
		first := k * unitsPerWorker
		if first < len(p.Scenes) {
			prefs[k] = p.Scenes[first].Provider
		}
	}
	return prefs
}

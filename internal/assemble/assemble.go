// Package assemble hands a finished batch to the downstream encoder.
// Encoding itself happens outside this process; what crosses the
// boundary is the ordered list of successful artifacts.
package assemble

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aeon-video/sceneforge/internal/batch"
)

// Manifest describes one assembled cut
type Manifest struct {
	RunID  string  `json:"run_id"`
	Title  string  `json:"title"`
	Output string  `json:"output"`
	Scenes []Scene `json:"scenes"`
}

// Scene is one entry of the cut, in final order
type Scene struct {
	Index       int    `json:"index"`
	ArtifactURL string `json:"artifact_url"`
	Provider    string `json:"provider"`
}

// Assembler receives the ordered artifacts of a successful batch
type Assembler interface {
	Assemble(ctx context.Context, m Manifest) error
}

// ConcatWriter writes the cut as an ffmpeg concat list plus a JSON
// manifest, both under Dir. The external encoder picks them up from
// there.
type ConcatWriter struct {
	Dir string
}

// NewConcatWriter creates a writer that emits into dir
func NewConcatWriter(dir string) *ConcatWriter {
	return &ConcatWriter{Dir: dir}
}

// Assemble writes <output>.txt in concat-demuxer format and
// <output>.json with the full manifest. Failed scenes are absent from
// both; order follows scene index.
func (w *ConcatWriter) Assemble(ctx context.Context, m Manifest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.Scenes) == 0 {
		return fmt.Errorf("nothing to assemble: no successful scenes")
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("creating assembly dir: %w", err)
	}

	base := m.Output
	if base == "" {
		base = m.RunID
	}
	stem := stemOf(base)

	var concat []byte
	for _, s := range m.Scenes {
		concat = append(concat, fmt.Sprintf("file '%s'\n", s.ArtifactURL)...)
	}
	concatPath := filepath.Join(w.Dir, stem+".txt")
	if err := os.WriteFile(concatPath, concat, 0o644); err != nil {
		return fmt.Errorf("writing concat list: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	manifestPath := filepath.Join(w.Dir, stem+".json")
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// FromResult builds the manifest for a finished batch. Only
// successful scenes appear; result order is already scene order.
func FromResult(title, output string, result *batch.Result) Manifest {
	m := Manifest{RunID: result.RunID, Title: title, Output: output}
	for _, r := range result.Results {
		if !r.Success {
			continue
		}
		m.Scenes = append(m.Scenes, Scene{
			Index:       r.UnitIndex,
			ArtifactURL: r.ArtifactURL,
			Provider:    r.ProviderUsed,
		})
	}
	return m
}

func stemOf(name string) string {
	ext := filepath.Ext(name)
	return name[:len(name)-len(ext)]
}

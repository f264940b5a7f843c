package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// View implements tea.Model
func (m *Model) View() string {
	if m.Done || m.Quitting {
		return ""
	}

	var b strings.Builder

	// Header
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	// Worker rows
	b.WriteString(m.renderWorkers())

	// Status line
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")

	// Footer
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title line with timer and worker count
func (m *Model) renderHeader() string {
	elapsed := time.Since(m.StartTime).Round(time.Second)
	timer := fmt.Sprintf("[%s]", formatDuration(elapsed))
	workers := fmt.Sprintf("Workers: %d", m.WorkerCount)

	return fmt.Sprintf("%s  %s  %s",
		m.Styles.Title.Render("SceneForge"),
		m.Styles.Timer.Render(timer),
		m.Styles.Workers.Render(workers),
	)
}

// renderWorkers renders one row per worker in id order
func (m *Model) renderWorkers() string {
	if len(m.Workers) == 0 {
		return "  Waiting for workers\n\n"
	}

	var b strings.Builder

	ids := make([]int, 0, len(m.Workers))
	for id := range m.Workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		b.WriteString(m.renderWorker(m.Workers[id]))
		b.WriteString("\n")
	}

	return b.String()
}

// renderWorker renders a single worker row
func (m *Model) renderWorker(w *WorkerRow) string {
	var b strings.Builder

	// Worker header: ● worker 2 [████░░░░░░] 1/2 scenes
	icon := m.Styles.WorkerActive.Render(IconActive)
	if w.Done {
		if w.Failed == w.TotalScenes {
			icon = m.Styles.WorkerFailed.Render(IconFailed)
		} else {
			icon = m.Styles.WorkerComplete.Render(IconComplete)
		}
	}
	name := m.Styles.WorkerName.Render(fmt.Sprintf("worker %d", w.ID))
	progress := m.renderProgressBar(w.Completed+w.Failed, w.TotalScenes, 20)
	sceneCount := fmt.Sprintf("%d/%d scenes", w.Completed+w.Failed, w.TotalScenes)

	fmt.Fprintf(&b, "  %s %s %s %s\n", icon, name, progress, sceneCount)

	// Phase line: ⏳ scene #3 via kling: polling
	phaseIcon := m.Styles.PhaseIcon.Render(w.PhaseIcon)
	var desc string
	switch {
	case w.CurrentScene >= 0 && w.Provider != "":
		desc = fmt.Sprintf("scene #%d via %s: %s", w.CurrentScene, w.Provider, w.Phase)
	case w.CurrentScene >= 0:
		desc = fmt.Sprintf("scene #%d: %s", w.CurrentScene, w.Phase)
	default:
		desc = w.Phase
	}
	fmt.Fprintf(&b, "      %s %s\n", phaseIcon, m.Styles.PhaseText.Render(desc))

	return b.String()
}

// renderProgressBar creates a progress bar of the given width
func (m *Model) renderProgressBar(completed, total, width int) string {
	if total == 0 {
		total = 1 // Avoid division by zero
	}

	filled := min((completed*width)/total, width)

	filledStr := strings.Repeat("█", filled)
	emptyStr := strings.Repeat("░", width-filled)

	return "[" +
		m.Styles.ProgressFilled.Render(filledStr) +
		m.Styles.ProgressEmpty.Render(emptyStr) +
		"]"
}

// renderStatusLine renders the summary status line
func (m *Model) renderStatusLine() string {
	complete := m.Styles.StatusComplete.Render(fmt.Sprintf("%d complete", m.CompletedScenes))
	failed := m.Styles.StatusFailed.Render(fmt.Sprintf("%d failed", m.FailedScenes))
	remaining := m.TotalScenes - m.CompletedScenes - m.FailedScenes
	active := m.Styles.StatusActive.Render(fmt.Sprintf("%d remaining", remaining))

	return fmt.Sprintf("  Scenes: %d/%d %s | %s | %s",
		m.CompletedScenes+m.FailedScenes,
		m.TotalScenes,
		complete,
		failed,
		active,
	)
}

// renderFooter renders the help text
func (m *Model) renderFooter() string {
	key := m.Styles.FooterKey.Render("q")
	return m.Styles.Footer.Render(fmt.Sprintf("  Press %s to quit", key))
}

// formatDuration formats a duration as HH:MM:SS
func formatDuration(d time.Duration) string {
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

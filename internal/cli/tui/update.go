package tui

import tea "github.com/charmbracelet/bubbletea"

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.Quitting = true
			return m, tea.Quit
		}

	case TickMsg:
		// Continue ticking for timer updates
		return m, tickCmd()

	case DoneMsg:
		m.Done = true
		return m, tea.Quit

	case QuitMsg:
		m.Quitting = true
		return m, tea.Quit

	case BatchStartedMsg:
		m.TotalScenes = msg.TotalScenes
		m.WorkerCount = msg.WorkerCount

	case WorkerStartedMsg:
		m.Workers[msg.WorkerID] = &WorkerRow{
			ID:           msg.WorkerID,
			TotalScenes:  msg.TotalScenes,
			CurrentScene: -1,
			Provider:     msg.Primary,
			Phase:        "starting",
			PhaseIcon:    IconWaiting,
		}

	case ScenePhaseMsg:
		if w, ok := m.Workers[msg.WorkerID]; ok {
			w.CurrentScene = msg.Scene
			if msg.Provider != "" {
				w.Provider = msg.Provider
			}
			w.Phase = msg.Phase
			w.PhaseIcon = msg.PhaseIcon
		}

	case SceneCompletedMsg:
		m.CompletedScenes++
		if w, ok := m.Workers[msg.WorkerID]; ok {
			w.Completed++
			w.CurrentScene = -1
		}

	case SceneFailedMsg:
		m.FailedScenes++
		if w, ok := m.Workers[msg.WorkerID]; ok {
			w.Failed++
			w.CurrentScene = -1
		}

	case WorkerDoneMsg:
		if w, ok := m.Workers[msg.WorkerID]; ok {
			w.Done = true
			if msg.Failed {
				w.Phase = "failed"
				w.PhaseIcon = IconFailed
			} else {
				w.Phase = "done"
				w.PhaseIcon = IconComplete
			}
		}
	}

	return m, nil
}

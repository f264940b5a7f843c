package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeon-video/sceneforge/internal/events"
)

// Bridge connects the event bus to the bubbletea program
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a new bridge for the given program
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{
		program: program,
	}
}

// Handler returns an event handler function for the event bus
func (b *Bridge) Handler() events.Handler {
	return func(evt events.Event) {
		msg := b.eventToMsg(evt)
		if msg != nil {
			b.program.Send(msg)
		}
	}
}

// eventToMsg converts an events.Event to a tea.Msg
func (b *Bridge) eventToMsg(evt events.Event) tea.Msg {
	workerID := -1
	if evt.Worker != nil {
		workerID = *evt.Worker
	}
	scene := -1
	if evt.Unit != nil {
		scene = *evt.Unit
	}

	switch evt.Type {
	case events.BatchStarted:
		totalScenes := 0
		workerCount := 0
		if payload, ok := evt.Payload.(map[string]any); ok {
			if n, ok := payload["units"].(int); ok {
				totalScenes = n
			}
			if n, ok := payload["workers"].(int); ok {
				workerCount = n
			}
		}
		return BatchStartedMsg{
			TotalScenes: totalScenes,
			WorkerCount: workerCount,
		}

	case events.WorkerStarted:
		totalScenes := 0
		primary := ""
		if payload, ok := evt.Payload.(map[string]any); ok {
			if n, ok := payload["units"].(int); ok {
				totalScenes = n
			}
			if p, ok := payload["primary"].(string); ok {
				primary = p
			}
		}
		return WorkerStartedMsg{
			WorkerID:    workerID,
			TotalScenes: totalScenes,
			Primary:     primary,
		}

	case events.UnitSubmitting:
		return ScenePhaseMsg{
			WorkerID:  workerID,
			Scene:     scene,
			Provider:  evt.Provider,
			Phase:     "submitting",
			PhaseIcon: IconSubmit,
		}

	case events.UnitPolling:
		return ScenePhaseMsg{
			WorkerID:  workerID,
			Scene:     scene,
			Provider:  evt.Provider,
			Phase:     "polling",
			PhaseIcon: IconPoll,
		}

	case events.UnitFallback:
		return ScenePhaseMsg{
			WorkerID:  workerID,
			Scene:     scene,
			Provider:  evt.Provider,
			Phase:     "falling back",
			PhaseIcon: IconFallback,
		}

	case events.UnitSucceeded:
		return SceneCompletedMsg{
			WorkerID: workerID,
			Scene:    scene,
		}

	case events.UnitFailed:
		return SceneFailedMsg{
			WorkerID: workerID,
			Scene:    scene,
			Error:    evt.Error,
		}

	case events.WorkerCompleted:
		return WorkerDoneMsg{WorkerID: workerID}

	case events.WorkerFailed:
		return WorkerDoneMsg{WorkerID: workerID, Failed: true}

	default:
		return nil
	}
}

// SendDone sends a DoneMsg to the program
func (b *Bridge) SendDone() {
	b.program.Send(DoneMsg{})
}

// SendQuit sends a QuitMsg to the program
func (b *Bridge) SendQuit() {
	b.program.Send(QuitMsg{})
}

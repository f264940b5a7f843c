package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// WorkerRow tracks the state of a single worker in the TUI
type WorkerRow struct {
	ID           int
	TotalScenes  int
	Completed    int
	Failed       int
	CurrentScene int // -1 when idle
	Provider     string
	Phase        string
	PhaseIcon    string
	Done         bool
}

// Model is the bubbletea model for the TUI
type Model struct {
	// Configuration
	TotalScenes int
	WorkerCount int
	Styles      Styles

	// State
	Workers         map[int]*WorkerRow
	CompletedScenes int
	FailedScenes    int
	StartTime       time.Time
	Width           int
	Height          int

	// Control
	Quitting bool
	Done     bool
}

// NewModel creates a new TUI model
func NewModel(totalScenes, workerCount int) *Model {
	return &Model{
		TotalScenes: totalScenes,
		WorkerCount: workerCount,
		Styles:      DefaultStyles(),
		Workers:     make(map[int]*WorkerRow),
		StartTime:   time.Now(),
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
	)
}

// TickMsg is sent every second to update the timer
type TickMsg time.Time

// tickCmd returns a command that sends TickMsg every second
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// DoneMsg signals the TUI should exit
type DoneMsg struct{}

// QuitMsg signals the user requested quit (q or Ctrl+C)
type QuitMsg struct{}

// BatchStartedMsg indicates the batch has started with scene count
type BatchStartedMsg struct {
	TotalScenes int
	WorkerCount int
}

// WorkerStartedMsg indicates a worker has started
type WorkerStartedMsg struct {
	WorkerID    int
	TotalScenes int
	Primary     string
}

// ScenePhaseMsg indicates a worker moved to a new phase on a scene
type ScenePhaseMsg struct {
	WorkerID  int
	Scene     int
	Provider  string
	Phase     string
	PhaseIcon string
}

// SceneCompletedMsg indicates a scene produced an artifact
type SceneCompletedMsg struct {
	WorkerID int
	Scene    int
}

// SceneFailedMsg indicates a scene failed on every provider
type SceneFailedMsg struct {
	WorkerID int
	Scene    int
	Error    string
}

// WorkerDoneMsg indicates a worker finished its block
type WorkerDoneMsg struct {
	WorkerID int
	Failed   bool
}

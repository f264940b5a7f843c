package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Terminal writes notifications to stderr with visual severity
// indicators
type Terminal struct {
	mu sync.Mutex // Protects concurrent writes
	w  io.Writer
}

// NewTerminal creates a terminal notifier writing to stderr
func NewTerminal() *Terminal {
	return &Terminal{w: os.Stderr}
}

// NewTerminalWithWriter creates a terminal notifier with a custom
// writer (tests)
func NewTerminalWithWriter(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

// Notify writes the notification to the writer
func (t *Terminal) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := ""
	switch n.Severity {
	case SeverityCritical:
		prefix = "🚨 "
	case SeverityWarning:
		prefix = "⚠️  "
	default:
		prefix = "ℹ️  "
	}

	// Serialize writes to prevent interleaved output
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.w, "\n%s[%s] %s\n", prefix, n.Severity, n.Title)
	fmt.Fprintf(t.w, "   Run: %s\n", n.RunID)
	fmt.Fprintf(t.w, "   %s\n", n.Message)

	for k, v := range n.Context {
		fmt.Fprintf(t.w, "   %s: %s\n", k, v)
	}

	return nil
}

// Name returns "terminal"
func (t *Terminal) Name() string {
	return "terminal"
}

package notify

import "context"

// Severity indicates how urgent the notification is
type Severity string

const (
	SeverityInfo     Severity = "info"     // FYI, no action needed
	SeverityWarning  Severity = "warning"  // May need attention
	SeverityCritical Severity = "critical" // Requires immediate action
)

// Notification represents a generation outcome that needs attention
type Notification struct {
	Severity Severity          // How urgent is this?
	RunID    string            // Which batch run is affected
	Title    string            // Short summary (one line)
	Message  string            // Detailed explanation
	Context  map[string]string // Additional context (provider, unit index, error details)
}

// Notifier is the interface for alerting operators
type Notifier interface {
	// Notify sends a notification.
	// Returns nil if the notification was sent successfully.
	// Implementations should respect context cancellation.
	Notify(ctx context.Context, n Notification) error

	// Name returns the notifier type for logging
	Name() string
}

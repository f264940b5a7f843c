package notify

import "fmt"

// Config holds notification configuration
type Config struct {
	Backends   []string
	WebhookURL string
}

// FromConfig creates a Notifier from configuration
func FromConfig(cfg Config) (Notifier, error) {
	var notifiers []Notifier

	for _, backend := range cfg.Backends {
		switch backend {
		case "terminal":
			notifiers = append(notifiers, NewTerminal())
		case "webhook":
			if cfg.WebhookURL == "" {
				return nil, fmt.Errorf("webhook backend requires URL")
			}
			notifiers = append(notifiers, NewWebhook(cfg.WebhookURL))
		default:
			return nil, fmt.Errorf("unknown notification backend: %s", backend)
		}
	}

	if len(notifiers) == 0 {
		return NewTerminal(), nil
	}

	if len(notifiers) == 1 {
		return notifiers[0], nil
	}

	return NewMulti(notifiers...), nil
}

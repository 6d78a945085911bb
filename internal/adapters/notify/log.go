package notify

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/example/upkeep/internal/ports/secondary"
)

// LogNotifier writes notifications to the application log. It is the
// fallback when no Redis URL is configured, and keeps single-machine
// installs working without a broker.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.WithPrefix("notify")}
}

// Notify logs the notification instead of dispatching it.
func (n *LogNotifier) Notify(ctx context.Context, userID, message string, metadata map[string]string) error {
	args := []any{"user", userID, "event", metadata["event"]}
	for k, v := range metadata {
		if k == "event" {
			continue
		}
		args = append(args, k, v)
	}
	n.logger.Info(message, args...)
	return nil
}

// Ensure LogNotifier implements the interface
var _ secondary.Notifier = (*LogNotifier)(nil)

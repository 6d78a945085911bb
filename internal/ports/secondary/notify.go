package secondary

import "context"

// Notifier defines the outbound notification port. The engine only
// calls it; delivery lives elsewhere. Dispatch is fire-and-forget:
// callers log failures and never let them fail the triggering
// operation.
type Notifier interface {
	// Notify dispatches a message to a user. Metadata carries
	// machine-readable context (entity ids, event name).
	Notify(ctx context.Context, userID, message string, metadata map[string]string) error
}

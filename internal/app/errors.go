// Package app contains the application services that orchestrate business logic.
package app

import (
	"errors"

	"github.com/example/upkeep/internal/ports/secondary"
)

// isNotFound reports whether err carries the repositories' not-found
// sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, secondary.ErrNotFound)
}

// Package ctxutil provides context utilities that can be safely imported anywhere.
// This package has no internal dependencies to avoid import cycles.
package ctxutil

import "context"

// Caller roles. Authentication happens upstream of this engine; request
// handlers resolve the role and carry it through the context.
const (
	RoleContractor = "contractor"
	RoleOwner      = "owner"
	RoleTenant     = "tenant"
	RoleManager    = "manager"
)

// Actor identifies the authenticated caller of an operation.
type Actor struct {
	UserID string
	Role   string
}

// ActorKey is the context key for the caller identity.
// Exported so it can be used consistently across packages.
type ActorKey struct{}

// WithActor returns a context with the caller identity embedded.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ActorKey{}, actor)
}

// ActorFromContext returns the caller identity from context, or the zero
// Actor if not set.
func ActorFromContext(ctx context.Context) Actor {
	if v := ctx.Value(ActorKey{}); v != nil {
		return v.(Actor)
	}
	return Actor{}
}

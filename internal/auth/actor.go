package auth

import (
	"context"

	"github.com/gofrs/uuid"
)

// Actor is the authenticated account as seen by the domain services. The
// role flags are structural: they reflect the presence of a business or
// customer profile row, not a stored role field. An account may hold
// neither flag and still be a valid actor.
type Actor struct {
	ID         uuid.UUID
	Username   string
	IsStaff    bool
	IsBusiness bool
	IsCustomer bool
}

// IsOwnerOrAdmin reports whether the actor may mutate an object owned by
// ownerID.
func (a Actor) IsOwnerOrAdmin(ownerID uuid.UUID) bool {
	return a.IsStaff || a.ID == ownerID
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext returns the request actor, if any. The second result is
// false on unauthenticated requests.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok
}

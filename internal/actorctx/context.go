// Package actorctx carries the authenticated actor through request contexts
// so services can stamp audit fields without reaching into the HTTP layer.
package actorctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// SystemEmail is recorded when no authenticated actor is present.
const SystemEmail = "system"

type Actor struct {
	UserID snowflake.ID
	Email  string
	Role   string
}

type actorKey struct{}

// WithActor stores the actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor from context, if set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || actor.UserID == 0 {
		return Actor{}, false
	}
	return actor, true
}

// EmailOrSystem returns the actor email, or SystemEmail when absent.
func EmailOrSystem(ctx context.Context) string {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return SystemEmail
	}
	email := strings.TrimSpace(actor.Email)
	if email == "" {
		return SystemEmail
	}
	return email
}

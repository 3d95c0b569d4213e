package ledger

import (
	"context"

	"github.com/gastroflow/ledger/id"
)

type actorKey struct{}

// WithActor attaches the acting staff member to ctx. Stock movements caused
// by order changes are attributed to this user.
func WithActor(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user attached by WithActor, or id.Nil.
func ActorFrom(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(actorKey{}).(id.UserID); ok {
		return v
	}
	return id.Nil
}

package actorctx

import (
	"context"

	"github.com/geocoder89/shopapi/internal/domain/user"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is what a verified bearer token says about the caller.
type Identity struct {
	UserID string
	Role   user.Role
	// Admin is set once the caller's role has been confirmed against the store.
	Admin bool
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)

	return v, ok && v.UserID != ""
}

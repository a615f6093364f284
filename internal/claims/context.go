package claims

import (
	"context"

	"github.com/dukerupert/berrybridge/internal/model"
)

type contextKey struct{}

type identity struct {
	user  model.User
	token string
}

// WithUser attaches the caller and the bearer token they presented.
func WithUser(ctx context.Context, user model.User, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, identity{user: user, token: token})
}

func FromContext(ctx context.Context) (model.User, bool) {
	id, ok := ctx.Value(contextKey{}).(identity)
	return id.user, ok
}

// Token returns the caller's bearer token, or "" if none.
func Token(ctx context.Context) string {
	id, ok := ctx.Value(contextKey{}).(identity)
	if !ok {
		return ""
	}
	return id.token
}

func UserID(ctx context.Context) string {
	u, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return u.ID
}

func IsAdmin(ctx context.Context) bool {
	u, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return u.Role == model.RoleAdmin
}

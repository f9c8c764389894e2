package middlewares

import (
	"context"

	"github.com/stock-chat/stock-chat/internal/domain"
)

// Principal is the authenticated identity attached to a request.
type Principal interface {
	GetUserID() domain.UserID
	GetUsername() domain.Username
	GetUser() domain.User
}

type key int

var principalKey key

type sessionPrincipal struct {
	user domain.User
}

func (sp sessionPrincipal) GetUserID() domain.UserID {
	return sp.user.ID
}

func (sp sessionPrincipal) GetUsername() domain.Username {
	return sp.user.Username
}

func (sp sessionPrincipal) GetUser() domain.User {
	return sp.user
}

// GetPrincipal returns the principal stored in the request context by
// the auth middleware.
func GetPrincipal(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(sessionPrincipal)
	return p, ok
}

// ContextWithPrincipal is used by the auth middleware and by handler
// tests to attach an authenticated user to a request context.
func ContextWithPrincipal(ctx context.Context, user domain.User) context.Context {
	return context.WithValue(ctx, principalKey, sessionPrincipal{user: user})
}

package user

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const UserKey contextKey = "user"

var (
	ErrNoUser       = errors.New("no user in context")
	ErrUnauthorized = errors.New("operation not permitted for this role")
)

// CurrentUser retrieves the authenticated user from the context. Returns
// ErrNoUser when the request carried no valid identity.
func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(UserKey).(User)
	if !ok {
		log.Trace("user not found in context")
		return User{}, ErrNoUser
	}
	return u, nil
}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, UserKey, u)
}

// RequireAdmin resolves the current user and rejects anyone who is not a
// CGTSIM administrator.
func RequireAdmin(ctx context.Context) (User, error) {
	u, err := CurrentUser(ctx)
	if err != nil {
		return User{}, err
	}
	if u.Role != RoleAdminCGTSIM {
		return User{}, ErrUnauthorized
	}
	return u, nil
}

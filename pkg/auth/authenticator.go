package auth

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
)

type contextKey string

const userIDKey contextKey = "user_id"

type authenticator struct {
	users map[string]int64
}

// NewAuthenticator maps API tokens to the user ids they act for.
func NewAuthenticator(users map[string]int64) *authenticator {
	slog.Info("authorized user IDs", "user_ids", lo.Uniq(lo.Values(users)))

	return &authenticator{
		users: users,
	}
}

// Authenticate returns the user id of token.
func (a *authenticator) Authenticate(token string) (int64, bool) {
	if token == "" {
		return 0, false
	}
	userID, ok := a.users[token]
	return userID, ok
}

func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(userIDKey).(int64)
	return userID, ok
}

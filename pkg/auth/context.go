package auth

import (
	"context"

	"worldgraph-backend/internal/domain"
	"worldgraph-backend/pkg/errors"
)

// UserContext is the authenticated caller attached to a request.
type UserContext struct {
	UserID      string
	DisplayName string
	Role        domain.Role
}

type contextKey string

const userContextKey contextKey = "userContext"

// SetUserInContext attaches the user context to a request context.
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from the context.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, errors.NewUnauthorizedError("no authenticated user in context")
	}
	return user, nil
}

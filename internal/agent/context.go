package agent

import (
	"context"

	"shopmate/internal/chat"
)

type contextKey int

const (
	roleKey contextKey = iota
	userIDKey
)

// ContextWithRole records the caller's role for handlers that re-check
// authorization beyond the visibility filter.
func ContextWithRole(ctx context.Context, role chat.Caller) context.Context {
	return context.WithValue(ctx, roleKey, role)
}

func RoleFromContext(ctx context.Context) chat.Caller {
	if v, ok := ctx.Value(roleKey).(chat.Caller); ok {
		return v
	}
	return chat.CallerCustomer
}

// ContextWithUser records the calling user's id for handlers that query
// per-user data such as orders and carts.
func ContextWithUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserFromContext(ctx context.Context) int64 {
	if v, ok := ctx.Value(userIDKey).(int64); ok {
		return v
	}
	return 0
}

package llm

import (
	"context"

	"reweave/internal/types"
)

type ctxKeyRole struct{}

// WithRole tags ctx with the pipeline role driving this generation call.
// Clients use it for logging and the fake client keys its canned output
// on it.
func WithRole(ctx context.Context, role types.Role) context.Context {
	return context.WithValue(ctx, ctxKeyRole{}, role)
}

// RoleFrom returns the role stored in ctx, or an empty role.
func RoleFrom(ctx context.Context) types.Role {
	if v := ctx.Value(ctxKeyRole{}); v != nil {
		if r, ok := v.(types.Role); ok {
			return r
		}
	}
	return ""
}

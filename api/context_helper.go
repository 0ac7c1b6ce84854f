package api

import (
	"context"
	"time"

	"github.com/linesmerrill/police-case-api/workflow"
)

// QueryTimeout is the default timeout for workflow operations started by a request
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type principalKey struct{}

// WithPrincipal stores the authenticated principal in ctx
func WithPrincipal(ctx context.Context, p workflow.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by the auth middleware
func PrincipalFromContext(ctx context.Context) (workflow.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(workflow.Principal)
	return p, ok
}

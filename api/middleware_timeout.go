package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// TimeoutMiddleware bounds the request context. Handlers observe the deadline
// through the context and answer 408 themselves, so the response writer is
// never shared with a goroutine that outlives the handler.
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))

			if ctx.Err() == context.DeadlineExceeded {
				zap.S().Warnw("request timeout",
					"path", r.URL.Path,
					"method", r.Method,
					"timeout", timeout)
			}
		})
	}
}

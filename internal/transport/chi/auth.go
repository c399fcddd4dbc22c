package chi

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/docmind/internal/logger"
)

// DefaultOwner is the identity every request acts as when no API keys are configured.
const DefaultOwner = "local"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type ownerKey struct{}

// ContextWithOwner stores the authenticated owner in the context and tags
// the request logger with it.
func ContextWithOwner(ctx context.Context, owner string) context.Context {
	ctx = logpkg.WithFields(ctx, zap.String("owner_id", owner))
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the authenticated owner, or "" if none.
func OwnerFromContext(ctx context.Context) string {
	o, _ := ctx.Value(ownerKey{}).(string)
	return o
}

// BearerAuthMiddleware validates Bearer tokens and resolves them to owners.
// If owners is empty, authentication is disabled and requests act as DefaultOwner.
func BearerAuthMiddleware(owners map[string]string) func(http.Handler) http.Handler {
	valid := make(map[string]string, len(owners))
	for k, o := range owners {
		if k != "" && o != "" {
			valid[k] = o
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled: single implicit owner
		if len(valid) == 0 {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				setEventOwner(r.Context(), DefaultOwner)
				next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), DefaultOwner)))
			})
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Exempt paths
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					CodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			owner, ok := valid[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, "invalid api key")
				return
			}

			setEventOwner(r.Context(), owner)
			next.ServeHTTP(w, r.WithContext(ContextWithOwner(r.Context(), owner)))
		})
	}
}

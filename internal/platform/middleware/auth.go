package middleware

import (
	"context"
	"log/slog"
	"net/http"
)

// IdentityResolver turns a session cookie value into an authenticated
// principal. Implementations must return an error for absent, expired,
// tampered or anonymous sessions.
type IdentityResolver interface {
	ResolveToken(ctx context.Context, token string) (*Principal, error)
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	SteamID    string
	Persona    string
	AvatarURL  string
	ProfileURL string

	// ClaimedID is the raw OpenID identifier captured at verification time.
	ClaimedID string
}

type contextKeyPrincipal struct{}

// GetPrincipal retrieves the authenticated principal from the context, or nil.
func GetPrincipal(ctx context.Context) *Principal {
	principal, ok := ctx.Value(contextKeyPrincipal{}).(*Principal)
	if !ok {
		return nil
	}
	return principal
}

// WithPrincipal attaches a principal to the context. Exposed for handler tests.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, principal)
}

// RequireIdentity gates protected routes on an authenticated session.
// Unauthenticated requests are redirected to the public landing page rather
// than answered with 401: failing the gate is a UX event, not a protocol
// error, and the browser should land somewhere it can sign in from.
func RequireIdentity(resolver IdentityResolver, cookieName, redirectTarget string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				http.Redirect(w, r, redirectTarget, http.StatusFound)
				return
			}

			principal, err := resolver.ResolveToken(ctx, cookie.Value)
			if err != nil {
				logger.WarnContext(ctx, "denied access to protected route",
					"error", err,
					"path", r.URL.Path,
					"request_id", GetRequestID(ctx),
				)
				http.Redirect(w, r, redirectTarget, http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(ctx, principal)))
		})
	}
}

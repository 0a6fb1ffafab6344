package chi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	domuser "github.com/kailas-cloud/docsearch/internal/domain/user"
	"github.com/kailas-cloud/docsearch/internal/logger"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

type principalKey struct{}

// ContextWithPrincipal stores the authenticated user in the context.
func ContextWithPrincipal(ctx context.Context, u *domuser.User) context.Context {
	return context.WithValue(ctx, principalKey{}, u)
}

// PrincipalFromContext returns the authenticated user, nil for anonymous requests.
func PrincipalFromContext(ctx context.Context) *domuser.User {
	u, _ := ctx.Value(principalKey{}).(*domuser.User)
	return u
}

// AuthMiddleware resolves Bearer tokens and Basic credentials to a principal.
// Missing or invalid credentials leave the request anonymous; handlers let the
// access gate reject it, so a bad token on a public route is harmless.
func AuthMiddleware(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			u, ok := authenticate(r, authn)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx := ContextWithPrincipal(r.Context(), u)
			ctx = logger.With(ctx, zap.String("principal", u.Email))
			if tracker, ok := principalTracker(ctx); ok {
				tracker.email = u.Email
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, authn Authenticator) (*domuser.User, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, false
	}
	log := logger.FromContext(r.Context())

	const bearerPrefix = "Bearer "
	if len(header) > len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		u, err := authn.VerifyToken(r.Context(), strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			log.Debug("bearer token rejected", zap.Error(err))
			return nil, false
		}
		return &u, true
	}

	email, password, ok := r.BasicAuth()
	if !ok || email == "" {
		return nil, false
	}
	u, err := authn.VerifyPassword(r.Context(), email, password)
	if err != nil {
		log.Debug("basic credentials rejected", zap.String("user", email), zap.Error(err))
		return nil, false
	}
	return &u, true
}

// TokenRateLimit limits password logins per client IP.
func TokenRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded")
		}),
	)
}

package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// TokenResolver maps a bearer token to a user id.
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (int64, bool)
}

// Middleware resolves the bearer token of each request.
// Requests with a missing, malformed, unknown or expired token continue as
// anonymous; handlers decide whether an identity is required.
func Middleware(resolver TokenResolver, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch GetAuthType(r) {
			case AuthTypeAnonymous:

			case AuthTypeBearer:
				token, _ := ParseBearer(r.Header.Get(AuthorizationHeader))
				if userID, ok := resolver.Resolve(r.Context(), token); ok {
					r = r.WithContext(WithAuthContext(r.Context(), &AuthContext{UserID: userID, Token: token}))
				} else {
					logger.Debug().Str("path", r.URL.Path).Msg("bearer token did not resolve")
				}

			default:
				logger.Debug().Str("path", r.URL.Path).Msg("malformed authorization header")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithAuthContext returns a copy of ctx carrying authCtx.
func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, authCtx)
}

// GetAuthContext retrieves the AuthContext from a request context.
func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(authContextKey{}).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

// UserID returns the authenticated user id, or 0 for an anonymous request.
func UserID(ctx context.Context) int64 {
	if authCtx := GetAuthContext(ctx); authCtx != nil {
		return authCtx.UserID
	}
	return 0
}

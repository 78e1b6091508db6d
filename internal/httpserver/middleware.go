package httpserver

import (
	"context"
	"net/http"
	"strings"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

type contextKey string

const contextKeyAuthUser contextKey = "auth_user"

// authUserFrom returns the authenticated user placed by Authenticate.
func authUserFrom(ctx context.Context) (domain.AuthUser, bool) {
	u, ok := ctx.Value(contextKeyAuthUser).(domain.AuthUser)
	return u, ok
}

// Authenticate resolves the bearer token into an AuthUser and stores it
// on the request context. No token or a bad token is a 401; role checks
// happen later, per route.
func Authenticate(identity ports.IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			user, err := identity.Resolve(r.Context(), token)
			if err != nil {
				writeError(w, domain.ErrUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), contextKeyAuthUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

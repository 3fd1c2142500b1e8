package middleware

import (
	"context"
	"net/http"
	"strings"

	"server/internal/domain"
)

type userContextKey struct{}

// UserResolver turns a bearer token into a fresh identity. The middleware
// always goes back to the credential store instead of trusting the token's
// embedded role, so demotions take effect before the token expires.
type UserResolver interface {
	ResolveToken(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate classifies the request. A valid bearer token puts the
// resolved user into the context; anything else leaves the request
// anonymous. Rejection is left to RequireAuth / RequireAdmin so public
// routes can share the chain.
func Authenticate(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			user, err := resolver.ResolveToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFromContext(r.Context()) == nil {
			unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects anonymous requests with 401 and authenticated
// non-admins with 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			unauthorized(w, r)
			return
		}
		if !user.IsAdmin() {
			forbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	writeAuthError(w, http.StatusUnauthorized, "unauthorized", Localize(r.Context(), MsgUnauthenticated))
}

func forbidden(w http.ResponseWriter, r *http.Request) {
	writeAuthError(w, http.StatusForbidden, "forbidden", Localize(r.Context(), MsgForbidden))
}

func writeAuthError(w http.ResponseWriter, code int, slug, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":{"code":"` + slug + `","message":"` + message + `"}}`))
}

// UserFromContext returns the authenticated user, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userContextKey{}).(*domain.User); ok {
		return u
	}
	return nil
}

// ContextWithUser stores an authenticated user on the context.
func ContextWithUser(ctx context.Context, user *domain.User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey{}, user)
}

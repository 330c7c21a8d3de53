package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/contacts-api/internal/httputil"
	"github.com/redmonkez12/contacts-api/internal/logging"
	"github.com/redmonkez12/contacts-api/internal/user"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const UserContextKey ContextKey = "user"

// Authenticator resolves an access token to the account it was issued for
type Authenticator interface {
	CurrentUser(ctx context.Context, accessToken string) (*user.User, error)
}

// Middleware handles authentication for protected routes
type Middleware struct {
	auth Authenticator
}

func NewMiddleware(auth Authenticator) *Middleware {
	return &Middleware{auth: auth}
}

// RequireAuth is a middleware that validates the bearer access token
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.FromContext(r.Context())

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.RespondErrorWithCode(w, "not authenticated", httputil.CodeMissingAuth, http.StatusUnauthorized)
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
			return
		}

		u, err := m.auth.CurrentUser(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, ErrExpiredToken):
				httputil.RespondErrorWithCode(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
			case errors.Is(err, ErrInvalidToken):
				httputil.RespondErrorWithCode(w, "could not validate credentials", httputil.CodeInvalidToken, http.StatusUnauthorized)
			default:
				logger.Error("failed to authenticate request", "error", err)
				httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
			}
			return
		}

		ctx := WithUser(r.Context(), u)
		ctx = logging.NewContext(ctx, logger.With("username", u.Username))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithUser returns a copy of ctx carrying the authenticated user
func WithUser(ctx context.Context, u *user.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

// UserFromContext extracts the authenticated user from the request context
func UserFromContext(ctx context.Context) (*user.User, bool) {
	u, ok := ctx.Value(UserContextKey).(*user.User)
	return u, ok && u != nil
}

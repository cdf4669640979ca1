package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/daily-diet/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of type contextKey, so only this package
// can read or write the Identity stored under it.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID    string
	SessionID string
}

// Authenticator resolves a session id into the id of the user who owns it.
// It returns an error wrapping apperror.ErrUnauthenticated when the session
// is unknown or expired; any other error is an infrastructure failure.
type Authenticator interface {
	Authenticate(ctx context.Context, sessionID string) (userID string, err error)
}

// RequireSession is a middleware that enforces a valid session on protected
// routes.
//
// It reads the session id from the named cookie, resolves it through authn
// and stores the resulting Identity in the request context. A missing,
// unknown or expired session gets 401 and the request chain stops before any
// handler runs.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireSession(authn Authenticator, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				writeUnauthorized(w, r, logger)
				return
			}

			userID, err := authn.Authenticate(r.Context(), cookie.Value)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthenticated) {
					writeUnauthorized(w, r, logger)
					return
				}
				logger.ErrorContext(r.Context(), "session lookup failed", slog.String("error", err.Error()))
				writeStatus(w, r, logger, http.StatusInternalServerError, "An internal error occurred", "internal_error")
				return
			}

			ctx := WithIdentity(r.Context(), Identity{UserID: userID, SessionID: cookie.Value})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext retrieves the caller stored by RequireSession.
//
// Returns (Identity{}, false) outside a RequireSession-protected route.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	writeStatus(w, r, logger, http.StatusUnauthorized, apperror.Unauthenticated().Message, "unauthenticated")
}

// writeStatus writes the same {"error","code"} body the handler package uses.
func writeStatus(w http.ResponseWriter, r *http.Request, logger *slog.Logger, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message, "code": code}); err != nil {
		logger.ErrorContext(r.Context(), "failed to encode JSON response", slog.String("error", err.Error()))
	}
}

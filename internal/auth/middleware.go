package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
)

// Authenticator resolves the caller from a bearer token or the session cookie.
type Authenticator struct {
	Sessions sessions.Store
	Tokens   *TokenIssuer
	logger   *slog.Logger
}

func NewAuthenticator(store sessions.Store, tokens *TokenIssuer) *Authenticator {
	return &Authenticator{
		Sessions: store,
		Tokens:   tokens,
		logger:   slog.Default().With("component", "auth"),
	}
}

// Resolve returns the user id for r. A malformed bearer token is an error
// even when a session cookie is also present.
func (a *Authenticator) Resolve(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || a.Tokens == nil {
			return "", ErrInvalidToken
		}
		return a.Tokens.Verify(strings.TrimSpace(token))
	}
	return SessionUserID(r, a.Sessions)
}

// RequireUser rejects requests without a valid session or bearer token.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := a.Resolve(r)
		if err != nil {
			a.logger.Debug("unauthenticated request", "path", r.URL.Path, "error", err)
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

// OptionalUser attaches the user id when the caller is signed in and lets
// anonymous requests through unchanged.
func (a *Authenticator) OptionalUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID, err := a.Resolve(r); err == nil {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(http.StatusUnauthorized),
		"message": "Not Authorized",
	})
}

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

const (
	SessionName   = "presenter_session"
	sessionUserID = "user_id"
)

// NewCookieStore builds the signed cookie store shared by password and
// OAuth sign-in.
func NewCookieStore(secret []byte, secure bool, maxAge time.Duration) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.MaxAge(int(maxAge.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.SameSite = http.SameSiteLaxMode
	return store
}

// StartSession records userID in the session cookie.
func StartSession(w http.ResponseWriter, r *http.Request, store sessions.Store, userID string) error {
	session, err := store.Get(r, SessionName)
	if err != nil && session == nil {
		return fmt.Errorf("loading session: %w", err)
	}
	session.Values[sessionUserID] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// EndSession expires the session cookie.
func EndSession(w http.ResponseWriter, r *http.Request, store sessions.Store) error {
	session, err := store.Get(r, SessionName)
	if err != nil && session == nil {
		return fmt.Errorf("loading session: %w", err)
	}
	delete(session.Values, sessionUserID)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

var errNoSession = errors.New("no session")

// SessionUserID reads the user id from the session cookie.
func SessionUserID(r *http.Request, store sessions.Store) (string, error) {
	session, err := store.Get(r, SessionName)
	if err != nil {
		return "", fmt.Errorf("loading session: %w", err)
	}
	userID, ok := session.Values[sessionUserID].(string)
	if !ok || userID == "" {
		return "", errNoSession
	}
	return userID, nil
}

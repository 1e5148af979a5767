package auth

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// UseGoogle registers the Google provider and points gothic at the shared
// cookie store.
func UseGoogle(key, secret, callbackURL string, store sessions.Store) {
	goth.UseProviders(google.New(key, secret, callbackURL, "email", "profile"))
	gothic.Store = store
}

// OAuthUser is the subset of a provider profile we keep.
type OAuthUser struct {
	Name     string
	Email    string
	Provider string
}

// BeginOAuth redirects to the provider's consent page.
func BeginOAuth(w http.ResponseWriter, r *http.Request, provider string) {
	gothic.BeginAuthHandler(w, gothic.GetContextWithProvider(r, provider))
}

// CompleteOAuth finishes the provider round trip.
func CompleteOAuth(w http.ResponseWriter, r *http.Request, provider string) (OAuthUser, error) {
	user, err := gothic.CompleteUserAuth(w, gothic.GetContextWithProvider(r, provider))
	if err != nil {
		return OAuthUser{}, err
	}
	name := user.Name
	if name == "" {
		name = user.NickName
	}
	return OAuthUser{Name: name, Email: user.Email, Provider: user.Provider}, nil
}

package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/models"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

// readCredentials accepts a JSON body or a posted HTML form.
func readCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	if isForm(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			return credentials{}, err
		}
		return credentials{
			Name:     r.PostForm.Get("name"),
			Email:    r.PostForm.Get("email"),
			Password: r.PostForm.Get("password"),
		}, nil
	}
	var c credentials
	err := ParseJSONBody(w, r, &c)
	return c, err
}

// formFailure sends browser form posts back to the auth page with a message.
func formFailure(w http.ResponseWriter, r *http.Request, message string) {
	http.Redirect(w, r, "/auth?error="+url.QueryEscape(message), http.StatusSeeOther)
}

func (h *Handler) SignUp(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c.Email = store.NormalizeEmail(c.Email)
	if !strings.Contains(c.Email, "@") {
		h.failAuth(w, r, &models.ValidationError{Field: "email", Message: "must be a valid address"})
		return
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name, _, _ = strings.Cut(c.Email, "@")
	}

	hash, err := auth.HashPassword(c.Password)
	if err != nil {
		h.failAuth(w, r, err)
		return
	}
	user, err := h.store.CreateUser(r.Context(), c.Name, c.Email, hash)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			h.failAuth(w, r, &models.ValidationError{Field: "email", Message: "is already registered"})
			return
		}
		h.failAuth(w, r, err)
		return
	}
	if err := auth.StartSession(w, r, h.auth.Sessions, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	if isForm(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	JSONResponse(w, http.StatusCreated, user)
}

// authenticate checks email and password. Unknown accounts fail the same
// way as wrong passwords.
func (h *Handler) authenticate(r *http.Request, c credentials) (*models.User, error) {
	user, err := h.store.UserByEmail(r.Context(), c.Email)
	if errors.Is(err, store.ErrNotFound) {
		_ = auth.CheckPassword("", c.Password)
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, c.Password); err != nil {
		return nil, err
	}
	return user, nil
}

func (h *Handler) SignIn(w http.ResponseWriter, r *http.Request) {
	c, err := readCredentials(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.authenticate(r, c)
	if err != nil {
		h.failAuth(w, r, err)
		return
	}
	if err := auth.StartSession(w, r, h.auth.Sessions, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("user signed in", "user_id", user.ID)
	if isForm(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	JSONResponse(w, http.StatusOK, user)
}

func (h *Handler) failAuth(w http.ResponseWriter, r *http.Request, err error) {
	if isForm(r) {
		_, message := StatusFor(err)
		formFailure(w, r, message)
		return
	}
	h.writeError(w, r, err)
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := auth.EndSession(w, r, h.auth.Sessions); err != nil {
		h.logger.Warn("ending session failed", "error", err)
	}
	if isForm(r) {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// IssueToken exchanges credentials for a bearer token used by API clients.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := ParseJSONBody(w, r, &c); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.authenticate(r, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	token, err := h.auth.Tokens.Generate(user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.UserByID(r.Context(), currentUser(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "User not found")
			return
		}
		h.writeError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, user)
}

func (h *Handler) BeginOAuth(w http.ResponseWriter, r *http.Request) {
	auth.BeginOAuth(w, r, chi.URLParam(r, "provider"))
}

func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	profile, err := auth.CompleteOAuth(w, r, chi.URLParam(r, "provider"))
	if err != nil {
		h.logger.Warn("oauth callback failed", "error", err)
		formFailure(w, r, "sign-in with provider failed")
		return
	}
	if profile.Email == "" {
		formFailure(w, r, "provider did not share an email address")
		return
	}

	user, err := h.store.UpsertOAuthUser(r.Context(), profile.Name, profile.Email, profile.Provider)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := auth.StartSession(w, r, h.auth.Sessions, user.ID); err != nil {
		h.writeError(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Package server assembles the HTTP routes for the API, auth endpoints and
// browser views.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/handlers"
	"github.com/petermazzocco/go-presenter/internal/web"
)

type Deps struct {
	Handlers      *handlers.Handler
	Auth          *auth.Authenticator
	Site          *web.Site
	OAuthEnabled  bool
	RateLimit     int
	AccessLogging bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if d.AccessLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	h := d.Handlers

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(httprate.Limit(
			d.RateLimit,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))
		if d.Site != nil {
			r.Get("/", d.Site.Auth)
		}
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Post("/signout", h.SignOut)
		r.Post("/token", h.IssueToken)
		if d.OAuthEnabled {
			r.Get("/{provider}", h.BeginOAuth)
			r.Get("/{provider}/callback", h.OAuthCallback)
		}
	})

	// Share links work without an account; signed-in owners also see
	// dashboard items.
	r.With(d.Auth.OptionalUser).Get("/public/presentations/{id}", h.GetPresentation)
	r.With(d.Auth.OptionalUser).Get("/public/presentations/{id}/items", h.ListItems)

	r.Route("/api", func(r chi.Router) {
		r.Use(d.Auth.RequireUser)
		r.Use(httprate.Limit(
			d.RateLimit,
			1*time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))
		r.Get("/me", h.GetUser)
		r.Post("/uploads", h.UploadImage)

		r.Route("/presentations", func(r chi.Router) {
			r.Get("/", h.ListPresentations)
			r.Post("/", h.CreatePresentation)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetPresentation)
				r.Patch("/", h.UpdatePresentation)
				r.Delete("/", h.DeletePresentation)
				r.Get("/items", h.ListItems)
				r.Post("/items", h.CreateItem)
				r.Put("/items/order", h.ReorderItems)
				r.Patch("/items/{itemID}", h.UpdateItem)
				r.Delete("/items/{itemID}", h.DeleteItem)
			})
		})
	})

	if d.Site != nil {
		r.With(d.Auth.OptionalUser).Get("/", d.Site.Index)
		r.With(d.Auth.OptionalUser).Get("/p/{id}", d.Site.Player)
	}

	return r
}

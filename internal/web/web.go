// Package web renders the browser views: the manage list, the sign-in page
// and the slideshow player behind a presentation's share link.
package web

import (
	"errors"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/player"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/models"
)

type Site struct {
	store         *store.Store
	tmpl          *template.Template
	googleEnabled bool
	logger        *slog.Logger
}

func New(s *store.Store, googleEnabled bool) (*Site, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Site{
		store:         s,
		tmpl:          tmpl,
		googleEnabled: googleEnabled,
		logger:        slog.Default().With("component", "web"),
	}, nil
}

type page struct {
	Title   string
	Refresh template.HTML
}

type indexData struct {
	page
	Presentations []models.Presentation
}

type authData struct {
	page
	Error         string
	GoogleEnabled bool
}

func (s *Site) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("rendering template", "template", name, "error", err)
	}
}

// Index lists the signed-in user's presentations, or sends anonymous
// visitors to the sign-in page.
func (s *Site) Index(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/auth", http.StatusSeeOther)
		return
	}
	list, err := s.store.ListPresentations(r.Context(), userID)
	if err != nil {
		s.logger.Error("listing presentations", "error", err)
		http.Error(w, "Could not load presentations", http.StatusInternalServerError)
		return
	}
	s.render(w, "index", indexData{page: page{Title: "Presentations"}, Presentations: list})
}

func (s *Site) Auth(w http.ResponseWriter, r *http.Request) {
	s.render(w, "auth", authData{
		page:          page{Title: "Sign in"},
		Error:         r.URL.Query().Get("error"),
		GoogleEnabled: s.googleEnabled,
	})
}

type playerData struct {
	page
	Empty       bool
	Item        models.PresentationItem
	IsImage     bool
	MediaError  string
	Position    int
	Total       int
	AutoAdvance bool
	NextIn      string
	RefreshIn   string
	// Deadlines in unix milliseconds; the page counts down to them.
	NextAt    int64
	RefreshAt int64
}

// Player shows one item of a presentation. The page reloads itself onto the
// next item once the item's display time is up, or onto the same item when
// the presentation's refresh interval elapses for items that do not advance.
// Every reload reads the item list again, and the v parameter carries the
// list fingerprint so a changed list restarts at the first item.
func (s *Site) Player(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer, _ := auth.UserIDFromContext(r.Context())
	p, items, err := s.store.VisiblePresentation(r.Context(), id, viewer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		s.logger.Error("loading presentation", "presentation_id", id, "error", err)
		http.Error(w, "Could not load presentation", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	index, _ := strconv.Atoi(q.Get("i"))
	s.render(w, "player", buildPlayer(p, items, index, q.Get("v"), time.Now()))
}

func buildPlayer(p *models.Presentation, items []models.PresentationItem, index int, version string, now time.Time) playerData {
	refreshEvery := p.RefreshEvery()
	data := playerData{
		page:      page{Title: p.Title},
		Total:     len(items),
		RefreshIn: formatDuration(refreshEvery),
		RefreshAt: now.Add(refreshEvery).UnixMilli(),
	}
	fingerprint := player.Fingerprint(items)
	target := func(i int) string {
		return fmt.Sprintf("/p/%s?i=%d&v=%s", p.ID, i, fingerprint)
	}

	if len(items) == 0 {
		data.Empty = true
		data.Refresh = refreshTag(refreshEvery, target(0))
		return data
	}

	if index < 0 || index >= len(items) || (version != "" && version != fingerprint) {
		index = 0
	}
	item := items[index]
	data.Item = item
	data.Position = index + 1
	data.IsImage = item.Type == models.ItemTypeImage
	if err := player.ValidMediaURL(item.URL); err != nil {
		data.MediaError = "the slide URL is not valid"
	}

	if item.AutoAdvances() {
		next := (index + 1) % len(items)
		data.AutoAdvance = true
		data.NextIn = formatDuration(item.DisplayDuration())
		data.NextAt = now.Add(item.DisplayDuration()).UnixMilli()
		data.Refresh = refreshTag(item.DisplayDuration(), target(next))
	} else {
		data.Refresh = refreshTag(refreshEvery, target(index))
	}
	return data
}

func refreshTag(after time.Duration, target string) template.HTML {
	secs := int(after / time.Second)
	if secs <= 0 {
		return ""
	}
	return template.HTML(fmt.Sprintf(`<meta http-equiv="refresh" content="%d;url=%s">`, secs, html.EscapeString(target)))
}

func formatDuration(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

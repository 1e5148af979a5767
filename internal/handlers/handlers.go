// Package handlers implements the JSON API for presentations, their items,
// image uploads and account sessions.
package handlers

import (
	"context"
	"log/slog"

	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/internal/upload"
	"github.com/petermazzocco/go-presenter/models"
)

type Handler struct {
	store   *store.Store
	auth    *auth.Authenticator
	uploads *upload.Pipeline
	logger  *slog.Logger
}

// New wires the API. uploads may be nil when no bucket is configured.
func New(s *store.Store, a *auth.Authenticator, uploads *upload.Pipeline) *Handler {
	return &Handler{
		store:   s,
		auth:    a,
		uploads: uploads,
		logger:  slog.Default().With("component", "handlers"),
	}
}

// urlKeyer is implemented by object stores that can map a public URL back to
// its key, which covers items created with a pasted bucket URL.
type urlKeyer interface {
	KeyFromURL(rawURL string) (string, bool)
}

// removeMedia deletes uploaded objects for removed items. Only keys under
// the owner's upload prefix that no remaining item references are deleted.
// Failures are logged; the rows are already gone.
func (h *Handler) removeMedia(ctx context.Context, ownerID string, items ...models.PresentationItem) {
	if h.uploads == nil || h.uploads.Objects == nil {
		return
	}
	keyer, _ := h.uploads.Objects.(urlKeyer)
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := item.StorageKey
		if key == "" && keyer != nil && item.Type == models.ItemTypeImage {
			key, _ = keyer.KeyFromURL(item.URL)
		}
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if !models.OwnsMediaKey(ownerID, key) {
			h.logger.Warn("not deleting media outside owner prefix", "key", key, "owner_id", ownerID)
			continue
		}
		inUse, err := h.store.MediaInUse(ctx, key, item.URL)
		if err != nil {
			h.logger.Warn("checking media references failed", "key", key, "error", err)
			continue
		}
		if inUse {
			continue
		}
		if err := h.uploads.Objects.Delete(ctx, key); err != nil {
			h.logger.Warn("deleting stored media failed", "key", key, "error", err)
		}
	}
}

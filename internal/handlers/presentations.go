package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/models"
)

type createPresentationRequest struct {
	Title           string `json:"title"`
	RefreshInterval *int   `json:"refresh_interval"`
	IsPublic        bool   `json:"is_public"`
}

func (h *Handler) ListPresentations(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	admin, err := h.store.HasRole(r.Context(), userID, models.RoleAdmin)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var list []models.Presentation
	if admin && r.URL.Query().Get("scope") == "all" {
		list, err = h.store.ListAllPresentations(r.Context())
	} else {
		list, err = h.store.ListPresentations(r.Context(), userID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Presentation{}
	}
	JSONResponse(w, http.StatusOK, list)
}

func (h *Handler) CreatePresentation(w http.ResponseWriter, r *http.Request) {
	var req createPresentationRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p := &models.Presentation{
		Title:           req.Title,
		RefreshInterval: models.DefaultRefreshInterval,
		IsPublic:        req.IsPublic,
		OwnerID:         currentUser(r),
	}
	if req.RefreshInterval != nil {
		p.RefreshInterval = *req.RefreshInterval
	}
	if err := h.store.CreatePresentation(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, p)
}

// GetPresentation serves both the owner API and the public share link. The
// caller only gets the items it may see.
func (h *Handler) GetPresentation(w http.ResponseWriter, r *http.Request) {
	p, items, err := h.store.VisiblePresentation(r.Context(), chi.URLParam(r, "id"), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p.Items = items
	if p.Items == nil {
		p.Items = []models.PresentationItem{}
	}
	JSONResponse(w, http.StatusOK, p)
}

func (h *Handler) UpdatePresentation(w http.ResponseWriter, r *http.Request) {
	var patch store.PresentationPatch
	if err := ParseJSONBody(w, r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.store.UpdatePresentation(r.Context(), currentUser(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, p)
}

func (h *Handler) DeletePresentation(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.DeletePresentation(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.removeMedia(r.Context(), currentUser(r), removed...)
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/models"
)

type createItemRequest struct {
	Type        models.ItemType `json:"type"`
	Title       string          `json:"title"`
	URL         string          `json:"url"`
	DisplayTime *int            `json:"display_time"`
	StorageKey  string          `json:"storage_key"`
}

type reorderRequest struct {
	ItemIDs []string `json:"item_ids"`
}

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	_, items, err := h.store.VisiblePresentation(r.Context(), chi.URLParam(r, "id"), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.PresentationItem{}
	}
	JSONResponse(w, http.StatusOK, items)
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item := &models.PresentationItem{
		PresentationID: chi.URLParam(r, "id"),
		Type:           req.Type,
		Title:          req.Title,
		URL:            req.URL,
		DisplayTime:    models.DefaultDisplayTime,
		StorageKey:     req.StorageKey,
	}
	if req.DisplayTime != nil {
		item.DisplayTime = *req.DisplayTime
	}
	if err := h.store.CreateItem(r.Context(), currentUser(r), item); err != nil {
		h.writeError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, item)
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch store.ItemPatch
	if err := ParseJSONBody(w, r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := h.store.UpdateItem(r.Context(), currentUser(r), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"), patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusOK, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.DeleteItem(r.Context(), currentUser(r), chi.URLParam(r, "id"), chi.URLParam(r, "itemID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.removeMedia(r.Context(), currentUser(r), *removed)
	w.WriteHeader(http.StatusNoContent)
}

// ReorderItems persists a full ordering. The response is the stored order,
// which clients treat as the new known-good state.
func (h *Handler) ReorderItems(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := ParseJSONBody(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	items, err := h.store.ReorderItems(r.Context(), currentUser(r), chi.URLParam(r, "id"), req.ItemIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []models.PresentationItem{}
	}
	JSONResponse(w, http.StatusOK, items)
}

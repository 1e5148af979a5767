package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/petermazzocco/go-presenter/internal/auth"
	"github.com/petermazzocco/go-presenter/internal/store"
	"github.com/petermazzocco/go-presenter/internal/upload"
	"github.com/petermazzocco/go-presenter/models"
)

const maxJSONBody = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSONResponse writes data as JSON with the given status.
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a JSON error body.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// ParseJSONBody decodes a bounded request body into v.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// StatusFor maps domain errors to an HTTP status and a message safe to show
// the user.
func StatusFor(err error) (int, string) {
	var verr *models.ValidationError
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.As(err, &tooBig), errors.Is(err, upload.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, upload.ErrTooLarge.Error()
	case errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "only JPEG, PNG, WebP and GIF images are allowed"
	case errors.Is(err, upload.ErrEmpty):
		return http.StatusBadRequest, upload.ErrEmpty.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, store.ErrForbidden):
		return http.StatusForbidden, "only the owner can change this presentation"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict with existing data, reload and try again"
	case errors.Is(err, store.ErrInvalidOrder):
		return http.StatusBadRequest, "item order must list every item of the presentation exactly once"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, auth.ErrInvalidCredentials.Error()
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusBadRequest, auth.ErrWeakPassword.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		h.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	WriteError(w, status, message)
}

func currentUser(r *http.Request) string {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

package handlers

import (
	"net/http"

	"github.com/petermazzocco/go-presenter/internal/upload"
)

// multipartOverhead leaves room for form boundaries around the file.
const multipartOverhead = 1 << 20

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.uploads == nil {
		WriteError(w, http.StatusServiceUnavailable, "image uploads are not configured")
		return
	}
	if r.ContentLength > upload.MaxUploadBytes+multipartOverhead {
		h.writeError(w, r, upload.ErrTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, upload.MaxUploadBytes+multipartOverhead)

	file, header, err := r.FormFile("image")
	if err != nil {
		status, message := StatusFor(err)
		if status == http.StatusInternalServerError {
			status, message = http.StatusBadRequest, "multipart field \"image\" is required"
		}
		WriteError(w, status, message)
		return
	}
	defer file.Close()

	res, err := h.uploads.Upload(r.Context(), currentUser(r), upload.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	JSONResponse(w, http.StatusCreated, res)
}

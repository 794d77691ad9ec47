package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/auth"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
	"github.com/szhou/travelog/internal/service"
)

// PhotoHandler serves the /api/photos routes.
type PhotoHandler struct {
	photos *service.PhotoService
}

func NewPhotoHandler(photos *service.PhotoService) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Upload accepts a multipart form with the image under "file".
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	// An extra MiB of headroom for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(service.MaxUploadBytes); err != nil {
		writeError(w, apperror.ValidationFailed("file", "could not parse upload: "+err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "a file field is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "could not read upload"))
		return
	}

	photo, err := h.photos.Upload(r.Context(), sess.UserID, service.UploadInput{
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Data:         data,
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		LocationID:   r.FormValue("locationId"),
		IsPublic:     r.FormValue("isPublic") == "true",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// List serves GET /api/photos with optional ?category=, ?location=, and
// ?trashed=true filters.
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())
	q := r.URL.Query()

	opts := repository.PhotoListOptions{
		Category:    model.PhotoCategory(q.Get("category")),
		TrashedOnly: q.Get("trashed") == "true",
		LocationID:  q.Get("location"),
	}

	photos, err := h.photos.List(r.Context(), sess.UserID, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photos)
}

func (h *PhotoHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	photo, err := h.photos.Get(r.Context(), chi.URLParam(r, "id"), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

type photoUpdateRequest struct {
	Title       *string  `json:"title" validate:"omitempty,max=200"`
	Description *string  `json:"description" validate:"omitempty,max=2000"`
	Tags        []string `json:"tags" validate:"omitempty,max=50,dive,max=100"`
	IsPublic    *bool    `json:"isPublic"`

	LocationID    *string `json:"locationId"`
	ClearLocation bool    `json:"clearLocation"`

	Latitude  *float64   `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64   `json:"longitude" validate:"omitempty,min=-180,max=180"`
	TakenAt   *time.Time `json:"takenAt"`
}

// Update applies a partial metadata edit; absent fields stay unchanged.
func (h *PhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req photoUpdateRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	photo, err := h.photos.Update(r.Context(), chi.URLParam(r, "id"), sess.UserID, service.PhotoUpdate{
		Title:         req.Title,
		Description:   req.Description,
		Tags:          req.Tags,
		IsPublic:      req.IsPublic,
		LocationID:    req.LocationID,
		ClearLocation: req.ClearLocation,
		Latitude:      req.Latitude,
		Longitude:     req.Longitude,
		TakenAt:       req.TakenAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, photo)
}

func (h *PhotoHandler) Trash(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	if err := h.photos.Trash(r.Context(), chi.URLParam(r, "id"), sess.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"trashed": true})
}

func (h *PhotoHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	if err := h.photos.Restore(r.Context(), chi.URLParam(r, "id"), sess.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"trashed": false})
}

// Delete permanently removes a photo and its stored file.
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	if err := h.photos.Delete(r.Context(), chi.URLParam(r, "id"), sess.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PhotoHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	stats, err := h.photos.Stats(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/szhou/travelog/internal/auth"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/service"
)

// CanvasHandler serves the /api/canvas routes.
type CanvasHandler struct {
	canvas *service.CanvasService
}

func NewCanvasHandler(canvas *service.CanvasService) *CanvasHandler {
	return &CanvasHandler{canvas: canvas}
}

type createCanvasRequest struct {
	Title string `json:"title" validate:"max=200"`
}

func (h *CanvasHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req createCanvasRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.canvas.Create(r.Context(), sess.UserID, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *CanvasHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	list, err := h.canvas.List(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CanvasHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	project, err := h.canvas.Get(r.Context(), chi.URLParam(r, "id"), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// Save applies a partial update under the optimistic version check. A
// stale version returns 409 with both version numbers in the body.
func (h *CanvasHandler) Save(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var save model.CanvasSave
	if err := decode(r, &save); err != nil {
		writeError(w, err)
		return
	}

	project, err := h.canvas.Save(r.Context(), chi.URLParam(r, "id"), sess.UserID, &save)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *CanvasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	if err := h.canvas.Delete(r.Context(), chi.URLParam(r, "id"), sess.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

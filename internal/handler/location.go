package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/szhou/travelog/internal/auth"
	"github.com/szhou/travelog/internal/geo"
	"github.com/szhou/travelog/internal/service"
)

// LocationHandler serves the /api/locations routes.
type LocationHandler struct {
	locations *service.LocationService
}

func NewLocationHandler(locations *service.LocationService) *LocationHandler {
	return &LocationHandler{locations: locations}
}

type locationRequest struct {
	Name      string  `json:"name" validate:"required,max=200"`
	Latitude  float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64 `json:"longitude" validate:"min=-180,max=180"`
	Address   string  `json:"address" validate:"max=500"`
	PlaceID   string  `json:"placeId" validate:"max=200"`
	Category  string  `json:"category" validate:"max=100"`
	Notes     string  `json:"notes" validate:"max=2000"`
	IsPublic  bool    `json:"isPublic"`
}

func (req *locationRequest) toInput() service.LocationInput {
	return service.LocationInput{
		Name:      req.Name,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Address:   req.Address,
		PlaceID:   req.PlaceID,
		Category:  req.Category,
		Notes:     req.Notes,
		IsPublic:  req.IsPublic,
	}
}

func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req locationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	loc, err := h.locations.Create(r.Context(), sess.UserID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

// List serves GET /api/locations: the user's own library, ordered by
// usage.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	list, err := h.locations.List(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// ListAvailable additionally includes public locations shared by others.
func (h *LocationHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	list, err := h.locations.ListAvailable(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Search serves GET /api/locations/search?q=; an empty query returns the
// full listing.
func (h *LocationHandler) Search(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	list, err := h.locations.Search(r.Context(), sess.UserID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *LocationHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	loc, err := h.locations.Get(r.Context(), chi.URLParam(r, "id"), sess.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	var req locationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	loc, err := h.locations.Update(r.Context(), chi.URLParam(r, "id"), sess.UserID, req.toInput())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess, _ := auth.SessionFromContext(r.Context())

	if err := h.locations.Delete(r.Context(), chi.URLParam(r, "id"), sess.UserID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type parseURLRequest struct {
	URL string `json:"url" validate:"required,max=2000"`
}

// ParseURL extracts a coordinate and place name from a shared Google Maps
// link, for prefilling the location form. Nothing is stored.
func (h *LocationHandler) ParseURL(w http.ResponseWriter, r *http.Request) {
	var req parseURLRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	parsed, err := geo.ParseMapsURL(req.URL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

// LocationService manages the location library.
type LocationService struct {
	repo   repository.LocationRepository
	logger *slog.Logger
}

func NewLocationService(repo repository.LocationRepository, logger *slog.Logger) *LocationService {
	return &LocationService{repo: repo, logger: logger}
}

// LocationInput carries the writable fields of a location.
type LocationInput struct {
	Name      string
	Latitude  float64
	Longitude float64
	Address   string
	PlaceID   string
	Category  string
	Notes     string
	IsPublic  bool
}

func (in *LocationInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.ValidationFailed("name", "name is required")
	}
	if in.Latitude < -90 || in.Latitude > 90 {
		return apperror.ValidationFailed("latitude", "latitude must be between -90 and 90")
	}
	if in.Longitude < -180 || in.Longitude > 180 {
		return apperror.ValidationFailed("longitude", "longitude must be between -180 and 180")
	}
	return nil
}

// Create adds a location to the user's library.
func (s *LocationService) Create(ctx context.Context, userID string, in LocationInput) (*model.Location, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	loc := &model.Location{
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		Address:   in.Address,
		PlaceID:   in.PlaceID,
		Category:  in.Category,
		Notes:     in.Notes,
		IsPublic:  in.IsPublic,
	}
	if err := s.repo.Create(ctx, loc); err != nil {
		return nil, err
	}

	s.logger.Info("location created", "location_id", loc.ID, "user_id", userID)
	return loc, nil
}

func (s *LocationService) Get(ctx context.Context, id, userID string) (*model.Location, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// Update replaces the writable fields. UsageCount and LastUsedAt are
// maintained by the usage counters, never through Update.
func (s *LocationService) Update(ctx context.Context, id, userID string, in LocationInput) (*model.Location, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	loc, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	loc.Name = strings.TrimSpace(in.Name)
	loc.Latitude = in.Latitude
	loc.Longitude = in.Longitude
	loc.Address = in.Address
	loc.PlaceID = in.PlaceID
	loc.Category = in.Category
	loc.Notes = in.Notes
	loc.IsPublic = in.IsPublic

	if err := s.repo.Update(ctx, loc); err != nil {
		return nil, err
	}
	return loc, nil
}

// Delete removes a location. Photos referencing it keep their own copy of
// the coordinate data; their locationId simply dangles.
func (s *LocationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("location deleted", "location_id", id, "user_id", userID)
	return nil
}

// List returns the user's library ordered by usage.
func (s *LocationService) List(ctx context.Context, userID string) ([]model.LocationIndex, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Search matches the query against name and address. An empty query falls
// back to the full listing.
func (s *LocationService) Search(ctx context.Context, userID, query string) ([]model.LocationIndex, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListByUser(ctx, userID)
	}
	return s.repo.Search(ctx, userID, query)
}

// ListAvailable returns the user's own locations plus public ones shared
// by others, for the location picker.
func (s *LocationService) ListAvailable(ctx context.Context, userID string) ([]model.LocationIndex, error) {
	return s.repo.ListAvailable(ctx, userID)
}

// ListPublic returns the shared locations shown on the public map.
func (s *LocationService) ListPublic(ctx context.Context) ([]model.LocationIndex, error) {
	return s.repo.ListPublic(ctx)
}

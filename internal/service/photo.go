package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/blob"
	"github.com/szhou/travelog/internal/exif"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

// MaxUploadBytes caps a single photo upload at 10 MiB.
const MaxUploadBytes = 10 << 20

// extByMime doubles as the upload allow-list: a MIME type without an entry
// is rejected before anything is written.
var extByMime = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// PhotoService owns the photo lifecycle: the upload saga, metadata edits
// with location usage bookkeeping, the trash, and permanent deletion.
type PhotoService struct {
	photos    repository.PhotoRepository
	locations repository.LocationRepository
	store     blob.Store
	logger    *slog.Logger
}

func NewPhotoService(photos repository.PhotoRepository, locations repository.LocationRepository, store blob.Store, logger *slog.Logger) *PhotoService {
	return &PhotoService{photos: photos, locations: locations, store: store, logger: logger}
}

// UploadInput is one file from a multipart upload, plus the optional
// metadata form fields sent alongside it. Data is fully buffered: the size
// cap keeps that bounded, and EXIF extraction needs two passes.
type UploadInput struct {
	OriginalName string
	MimeType     string
	Data         []byte

	Title       string
	Description string
	LocationID  string
	IsPublic    bool
}

// Upload validates the file, stores the bytes, extracts EXIF metadata, and
// records the photo. The blob write and the metadata insert cannot be
// atomic across two stores, so the insert failure path deletes the blob
// again; all validation happens before anything is written.
func (s *PhotoService) Upload(ctx context.Context, userID string, in UploadInput) (*model.Photo, error) {
	if len(in.Data) == 0 {
		return nil, apperror.ValidationFailed("file", "file is empty")
	}
	if len(in.Data) > MaxUploadBytes {
		return nil, apperror.ValidationFailed("file",
			fmt.Sprintf("file exceeds the %d MiB limit", MaxUploadBytes>>20))
	}
	mimeType := strings.ToLower(strings.TrimSpace(in.MimeType))
	ext, ok := extByMime[mimeType]
	if !ok {
		return nil, apperror.ValidationFailed("file", "unsupported image type: "+in.MimeType)
	}
	if e := strings.ToLower(filepath.Ext(in.OriginalName)); e != "" && extAllowed(e) {
		ext = e
	}
	// A location assigned at upload time must exist in the user's own
	// library; checked here so a bad ID rejects before the blob write.
	if in.LocationID != "" {
		if _, err := s.locations.GetByID(ctx, in.LocationID, userID); err != nil {
			return nil, err
		}
	}

	meta := exif.Extract(in.Data)

	id := xid.New().String()
	key := userID + "/" + id + ext

	if err := s.store.Put(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), mimeType); err != nil {
		return nil, err
	}

	photo := &model.Photo{
		ID:           id,
		UserID:       userID,
		FileName:     key,
		OriginalName: in.OriginalName,
		URL:          s.store.URL(key),
		TakenAt:      meta.TakenAt,
		Latitude:     meta.Latitude,
		Longitude:    meta.Longitude,
		CameraMake:   meta.CameraMake,
		CameraModel:  meta.CameraModel,
		Width:        meta.Width,
		Height:       meta.Height,
		SizeBytes:    int64(len(in.Data)),
		MimeType:     mimeType,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		IsPublic:     in.IsPublic,
	}
	if meta.HasGPS() {
		photo.GPSSource = "exif"
	}
	if in.LocationID != "" {
		locID := in.LocationID
		photo.LocationID = &locID
	}

	if err := s.photos.Create(ctx, photo); err != nil {
		// Compensate: without the metadata row the blob is unreachable.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error("orphaned blob after failed photo insert",
				"key", key, "error", delErr)
		}
		return nil, err
	}

	if photo.LocationID != nil {
		if err := s.locations.IncrementUsage(ctx, *photo.LocationID, userID); err != nil {
			s.logger.Warn("incrementing location usage", "location_id", *photo.LocationID, "error", err)
		}
	}

	s.logger.Info("photo uploaded",
		"photo_id", photo.ID, "user_id", userID,
		"category", photo.Category, "bytes", photo.SizeBytes)
	return photo, nil
}

func extAllowed(ext string) bool {
	for _, e := range extByMime {
		if e == ext {
			return true
		}
	}
	return ext == ".jpeg"
}

func (s *PhotoService) Get(ctx context.Context, id, userID string) (*model.Photo, error) {
	return s.photos.GetByID(ctx, id, userID)
}

// PhotoUpdate is a partial metadata edit. Nil fields are left unchanged.
type PhotoUpdate struct {
	Title       *string
	Description *string
	Tags        []string // nil = unchanged, empty = clear
	IsPublic    *bool

	// Location assignment. ClearLocation wins over LocationID.
	LocationID    *string
	ClearLocation bool

	// Manual coordinate override; both must be set together.
	Latitude  *float64
	Longitude *float64

	TakenAt *time.Time
}

// Update applies a metadata edit and keeps the location usage counters in
// step: releasing a location decrements it, adopting one increments it.
// The category is recomputed from the resulting time and GPS facts.
func (s *PhotoService) Update(ctx context.Context, id, userID string, upd PhotoUpdate) (*model.Photo, error) {
	if (upd.Latitude == nil) != (upd.Longitude == nil) {
		return nil, apperror.ValidationFailed("latitude", "latitude and longitude must be set together")
	}

	photo, err := s.photos.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	oldLocation := photo.LocationID

	if upd.Title != nil {
		photo.Title = *upd.Title
	}
	if upd.Description != nil {
		photo.Description = *upd.Description
	}
	if upd.Tags != nil {
		photo.Tags = upd.Tags
	}
	if upd.IsPublic != nil {
		photo.IsPublic = *upd.IsPublic
	}
	if upd.TakenAt != nil {
		photo.TakenAt = upd.TakenAt
	}
	if upd.Latitude != nil {
		if *upd.Latitude < -90 || *upd.Latitude > 90 {
			return nil, apperror.ValidationFailed("latitude", "latitude must be between -90 and 90")
		}
		if *upd.Longitude < -180 || *upd.Longitude > 180 {
			return nil, apperror.ValidationFailed("longitude", "longitude must be between -180 and 180")
		}
		photo.Latitude = upd.Latitude
		photo.Longitude = upd.Longitude
		photo.GPSSource = "manual"
	}

	switch {
	case upd.ClearLocation:
		photo.LocationID = nil
	case upd.LocationID != nil:
		// The location must exist in the user's own library.
		if _, err := s.locations.GetByID(ctx, *upd.LocationID, userID); err != nil {
			return nil, err
		}
		photo.LocationID = upd.LocationID
	}

	if err := s.photos.Update(ctx, photo); err != nil {
		return nil, err
	}

	s.adjustUsage(ctx, userID, oldLocation, photo.LocationID)
	return photo, nil
}

// adjustUsage reconciles the usage counters after a location assignment
// change. Counter failures are logged, not returned: the edit itself
// already committed and the counters are advisory.
func (s *PhotoService) adjustUsage(ctx context.Context, userID string, before, after *string) {
	if before != nil && after != nil && *before == *after {
		return
	}
	if before != nil {
		if err := s.locations.DecrementUsage(ctx, *before, userID); err != nil {
			s.logger.Warn("decrementing location usage", "location_id", *before, "error", err)
		}
	}
	if after != nil {
		if err := s.locations.IncrementUsage(ctx, *after, userID); err != nil {
			s.logger.Warn("incrementing location usage", "location_id", *after, "error", err)
		}
	}
}

// Trash soft-deletes a photo. Trashed photos keep their location reference
// and usage count; only permanent deletion releases them.
func (s *PhotoService) Trash(ctx context.Context, id, userID string) error {
	return s.photos.SetTrashed(ctx, id, userID, true)
}

// Restore moves a photo out of the trash.
func (s *PhotoService) Restore(ctx context.Context, id, userID string) error {
	return s.photos.SetTrashed(ctx, id, userID, false)
}

// Delete permanently removes a photo: the metadata row first, then the
// blob. A failed blob delete leaves an orphan object and is only logged;
// the metadata row is already gone and must not resurface.
func (s *PhotoService) Delete(ctx context.Context, id, userID string) error {
	photo, err := s.photos.GetByID(ctx, id, userID)
	if err != nil {
		return err
	}

	if err := s.photos.Delete(ctx, id, userID); err != nil {
		return err
	}

	if photo.LocationID != nil {
		if err := s.locations.DecrementUsage(ctx, *photo.LocationID, userID); err != nil {
			s.logger.Warn("decrementing location usage", "location_id", *photo.LocationID, "error", err)
		}
	}
	if err := s.store.Delete(ctx, photo.FileName); err != nil {
		s.logger.Error("deleting photo blob", "key", photo.FileName, "error", err)
	}
	// An edited photo keeps its pre-edit blob around; remove that too.
	if photo.OriginalFileURL != "" {
		prefix := s.store.URL("")
		if key := strings.TrimPrefix(photo.OriginalFileURL, prefix); key != "" && key != photo.OriginalFileURL {
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.Error("deleting original photo blob", "key", key, "error", err)
			}
		}
	}

	s.logger.Info("photo deleted", "photo_id", id, "user_id", userID)
	return nil
}

// List returns the user's photos, narrowed by the options.
func (s *PhotoService) List(ctx context.Context, userID string, opts repository.PhotoListOptions) ([]model.Photo, error) {
	if opts.Category != "" && !model.ValidCategory(string(opts.Category)) {
		return nil, apperror.ValidationFailed("category", "unknown category: "+string(opts.Category))
	}
	return s.photos.List(ctx, userID, opts)
}

// ListPublic returns the shared photos shown on the public map.
func (s *PhotoService) ListPublic(ctx context.Context) ([]model.Photo, error) {
	return s.photos.ListPublic(ctx)
}

// Stats returns the per-user aggregate counts.
func (s *PhotoService) Stats(ctx context.Context, userID string) (*model.PhotoStats, error) {
	return s.photos.Stats(ctx, userID)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/xid"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

// PhotoDB implements repository.PhotoRepository.
type PhotoDB struct {
	db *DB
}

// Photos returns the photo repository view of the database.
func (db *DB) Photos() *PhotoDB {
	return &PhotoDB{db: db}
}

var _ repository.PhotoRepository = (*PhotoDB)(nil)

const photoColumns = `id, user_id, file_name, original_name, url, location_id,
	taken_at, latitude, longitude, gps_source, camera_make, camera_model,
	width, height, size_bytes, mime_type, category, title, description, tags,
	is_public, trashed, trashed_at, edited, edited_at, original_file_url,
	created_at, updated_at`

// Create inserts the metadata row for an uploaded photo. The category is
// recomputed here so it can never disagree with the metadata being stored.
func (p *PhotoDB) Create(ctx context.Context, photo *model.Photo) error {
	now := time.Now()
	if photo.ID == "" {
		photo.ID = xid.New().String()
	}
	photo.Recategorize()
	photo.CreatedAt = now
	photo.UpdatedAt = now

	tags, err := marshalTags(photo.Tags)
	if err != nil {
		return err
	}

	_, err = p.db.conn.ExecContext(ctx,
		`INSERT INTO photos (id, user_id, file_name, original_name, url, location_id,
			taken_at, latitude, longitude, gps_source, camera_make, camera_model,
			width, height, size_bytes, mime_type, category, title, description, tags,
			is_public, trashed, edited, original_file_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?)`,
		photo.ID,
		photo.UserID,
		photo.FileName,
		photo.OriginalName,
		photo.URL,
		photo.LocationID,
		photo.TakenAt,
		photo.Latitude,
		photo.Longitude,
		photo.GPSSource,
		photo.CameraMake,
		photo.CameraModel,
		photo.Width,
		photo.Height,
		photo.SizeBytes,
		photo.MimeType,
		string(photo.Category),
		photo.Title,
		photo.Description,
		tags,
		photo.IsPublic,
		photo.Edited,
		photo.OriginalFileURL,
		photo.CreatedAt,
		photo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting photo %s: %w", photo.ID, err)
	}
	return nil
}

// GetByID retrieves one photo scoped to its owner.
func (p *PhotoDB) GetByID(ctx context.Context, id, userID string) (*model.Photo, error) {
	row := p.db.conn.QueryRowContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE id = ? AND user_id = ?`,
		id, userID)

	photo, err := scanPhoto(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("photo", id)
		}
		return nil, fmt.Errorf("sqlite: getting photo %s: %w", id, err)
	}
	return photo, nil
}

// Update persists the mutable fields and recomputes the category from the
// current metadata, so a metadata edit can never leave it stale.
func (p *PhotoDB) Update(ctx context.Context, photo *model.Photo) error {
	photo.Recategorize()
	photo.UpdatedAt = time.Now()

	tags, err := marshalTags(photo.Tags)
	if err != nil {
		return err
	}

	res, err := p.db.conn.ExecContext(ctx,
		`UPDATE photos
		 SET location_id = ?, taken_at = ?, latitude = ?, longitude = ?,
			gps_source = ?, category = ?, title = ?, description = ?, tags = ?,
			is_public = ?, url = ?, edited = ?, edited_at = ?, original_file_url = ?,
			updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		photo.LocationID,
		photo.TakenAt,
		photo.Latitude,
		photo.Longitude,
		photo.GPSSource,
		string(photo.Category),
		photo.Title,
		photo.Description,
		tags,
		photo.IsPublic,
		photo.URL,
		photo.Edited,
		photo.EditedAt,
		photo.OriginalFileURL,
		photo.UpdatedAt,
		photo.ID,
		photo.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating photo %s: %w", photo.ID, err)
	}
	return requireRow(res, "photo", photo.ID)
}

// Delete permanently removes the metadata row. The service deletes the
// backing object; this method only touches the database.
func (p *PhotoDB) Delete(ctx context.Context, id, userID string) error {
	res, err := p.db.conn.ExecContext(ctx,
		`DELETE FROM photos WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting photo %s: %w", id, err)
	}
	return requireRow(res, "photo", id)
}

// List returns the user's photos, newest first. The default view excludes
// trashed photos; opts.TrashedOnly flips to the trash view.
func (p *PhotoDB) List(ctx context.Context, userID string, opts repository.PhotoListOptions) ([]model.Photo, error) {
	query := `SELECT ` + photoColumns + ` FROM photos WHERE user_id = ?`
	args := []any{userID}

	if opts.TrashedOnly {
		query += ` AND trashed = 1`
	} else {
		query += ` AND trashed = 0`
	}
	if opts.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(opts.Category))
	}
	if opts.LocationID != "" {
		query += ` AND location_id = ?`
		args = append(args, opts.LocationID)
	}
	query += ` ORDER BY created_at DESC`

	return p.queryPhotos(ctx, query, args...)
}

// ListPublic returns every public, non-trashed photo for the map view.
func (p *PhotoDB) ListPublic(ctx context.Context) ([]model.Photo, error) {
	return p.queryPhotos(ctx,
		`SELECT `+photoColumns+` FROM photos
		 WHERE is_public = 1 AND trashed = 0
		 ORDER BY created_at DESC`)
}

func (p *PhotoDB) queryPhotos(ctx context.Context, query string, args ...any) ([]model.Photo, error) {
	rows, err := p.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing photos: %w", err)
	}
	defer rows.Close()

	out := []model.Photo{}
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning photo row: %w", err)
		}
		out = append(out, *photo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating photo rows: %w", err)
	}
	return out, nil
}

// SetTrashed flips the soft-delete flag. Trashing stamps trashed_at;
// restoring clears it.
func (p *PhotoDB) SetTrashed(ctx context.Context, id, userID string, trashed bool) error {
	var trashedAt any
	if trashed {
		trashedAt = time.Now()
	}
	res, err := p.db.conn.ExecContext(ctx,
		`UPDATE photos SET trashed = ?, trashed_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		trashed, trashedAt, time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting trashed=%v on photo %s: %w", trashed, id, err)
	}
	return requireRow(res, "photo", id)
}

// Stats aggregates the user's photo metadata, including trashed photos in
// the total byte count but not in the per-category counts.
func (p *PhotoDB) Stats(ctx context.Context, userID string) (*model.PhotoStats, error) {
	stats := &model.PhotoStats{
		ByCategory: map[model.PhotoCategory]int{
			model.CategoryTimeLocation: 0,
			model.CategoryTimeOnly:     0,
			model.CategoryLocationOnly: 0,
			model.CategoryNeither:      0,
		},
	}

	rows, err := p.db.conn.QueryContext(ctx,
		`SELECT category, COUNT(*) FROM photos
		 WHERE user_id = ? AND trashed = 0
		 GROUP BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: photo category stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			category string
			count    int
		)
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("sqlite: scanning stats row: %w", err)
		}
		stats.ByCategory[model.PhotoCategory(category)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating stats rows: %w", err)
	}

	err = p.db.conn.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN trashed = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_public = 1 AND trashed = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(size_bytes), 0)
		 FROM photos WHERE user_id = ?`, userID,
	).Scan(&stats.Trashed, &stats.Public, &stats.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("sqlite: photo aggregate stats: %w", err)
	}

	return stats, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPhoto(s scanner) (*model.Photo, error) {
	var (
		photo      model.Photo
		locationID sql.NullString
		takenAt    sql.NullTime
		lat, lng   sql.NullFloat64
		trashedAt  sql.NullTime
		editedAt   sql.NullTime
		tags       string
	)

	err := s.Scan(
		&photo.ID,
		&photo.UserID,
		&photo.FileName,
		&photo.OriginalName,
		&photo.URL,
		&locationID,
		&takenAt,
		&lat,
		&lng,
		&photo.GPSSource,
		&photo.CameraMake,
		&photo.CameraModel,
		&photo.Width,
		&photo.Height,
		&photo.SizeBytes,
		&photo.MimeType,
		&photo.Category,
		&photo.Title,
		&photo.Description,
		&tags,
		&photo.IsPublic,
		&photo.Trashed,
		&trashedAt,
		&photo.Edited,
		&editedAt,
		&photo.OriginalFileURL,
		&photo.CreatedAt,
		&photo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	photo.LocationID = nullableString(locationID)
	photo.TakenAt = nullableTime(takenAt)
	photo.Latitude = nullableFloat(lat)
	photo.Longitude = nullableFloat(lng)
	photo.TrashedAt = nullableTime(trashedAt)
	photo.EditedAt = nullableTime(editedAt)

	if tags != "" && tags != "[]" {
		if err := json.Unmarshal([]byte(tags), &photo.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags for photo %s: %w", photo.ID, err)
		}
	}

	return &photo, nil
}

func marshalTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}

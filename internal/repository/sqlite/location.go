package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

// LocationDB implements repository.LocationRepository.
type LocationDB struct {
	db *DB
}

// Locations returns the location repository view of the database.
func (db *DB) Locations() *LocationDB {
	return &LocationDB{db: db}
}

var _ repository.LocationRepository = (*LocationDB)(nil)

// locationIndexColumns is the reduced projection for list queries: notes and
// place_id are detail-view fields and stay out of listings.
const locationIndexColumns = `id, user_id, name, latitude, longitude, address,
	category, usage_count, last_used_at, is_public, created_at`

const locationIndexOrder = ` ORDER BY usage_count DESC, created_at DESC`

// Create inserts a new location owned by loc.UserID.
func (l *LocationDB) Create(ctx context.Context, loc *model.Location) error {
	now := time.Now()
	loc.ID = xid.New().String()
	loc.UsageCount = 0
	loc.CreatedAt = now
	loc.UpdatedAt = now

	_, err := l.db.conn.ExecContext(ctx,
		`INSERT INTO locations (id, user_id, name, latitude, longitude, address,
			place_id, category, notes, usage_count, is_public, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		loc.ID,
		loc.UserID,
		loc.Name,
		loc.Latitude,
		loc.Longitude,
		loc.Address,
		loc.PlaceID,
		loc.Category,
		loc.Notes,
		loc.IsPublic,
		loc.CreatedAt,
		loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting location %q: %w", loc.Name, err)
	}
	return nil
}

// GetByID retrieves one location scoped to its owner. A location
// owned by someone else comes back as NotFound.
func (l *LocationDB) GetByID(ctx context.Context, id, userID string) (*model.Location, error) {
	var (
		loc      model.Location
		lastUsed sql.NullTime
	)
	err := l.db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, latitude, longitude, address, place_id,
			category, notes, usage_count, last_used_at, is_public, created_at, updated_at
		 FROM locations WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&loc.ID,
		&loc.UserID,
		&loc.Name,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Address,
		&loc.PlaceID,
		&loc.Category,
		&loc.Notes,
		&loc.UsageCount,
		&lastUsed,
		&loc.IsPublic,
		&loc.CreatedAt,
		&loc.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("location", id)
		}
		return nil, fmt.Errorf("sqlite: getting location %s: %w", id, err)
	}
	loc.LastUsedAt = nullableTime(lastUsed)
	return &loc, nil
}

// Update persists the mutable fields. Usage counters are managed
// separately by IncrementUsage/DecrementUsage.
func (l *LocationDB) Update(ctx context.Context, loc *model.Location) error {
	loc.UpdatedAt = time.Now()
	res, err := l.db.conn.ExecContext(ctx,
		`UPDATE locations
		 SET name = ?, latitude = ?, longitude = ?, address = ?, place_id = ?,
			category = ?, notes = ?, is_public = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		loc.Name,
		loc.Latitude,
		loc.Longitude,
		loc.Address,
		loc.PlaceID,
		loc.Category,
		loc.Notes,
		loc.IsPublic,
		loc.UpdatedAt,
		loc.ID,
		loc.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating location %s: %w", loc.ID, err)
	}
	return requireRow(res, "location", loc.ID)
}

// Delete removes the row. Photos referencing the location are
// untouched; they carry their own copy of the coordinate data.
func (l *LocationDB) Delete(ctx context.Context, id, userID string) error {
	res, err := l.db.conn.ExecContext(ctx,
		`DELETE FROM locations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting location %s: %w", id, err)
	}
	return requireRow(res, "location", id)
}

// ListByUser returns the user's locations, most used first.
func (l *LocationDB) ListByUser(ctx context.Context, userID string) ([]model.LocationIndex, error) {
	return l.queryLocationIndex(ctx,
		`SELECT `+locationIndexColumns+` FROM locations WHERE user_id = ?`+locationIndexOrder,
		userID)
}

// Search matches the query against name and address,
// case-insensitively, within the user's own library.
func (l *LocationDB) Search(ctx context.Context, userID, query string) ([]model.LocationIndex, error) {
	pattern := "%" + query + "%"
	return l.queryLocationIndex(ctx,
		`SELECT `+locationIndexColumns+` FROM locations
		 WHERE user_id = ? AND (name LIKE ? OR address LIKE ?)`+locationIndexOrder,
		userID, pattern, pattern)
}

// ListPublic returns every public location regardless of owner.
func (l *LocationDB) ListPublic(ctx context.Context) ([]model.LocationIndex, error) {
	return l.queryLocationIndex(ctx,
		`SELECT `+locationIndexColumns+` FROM locations WHERE is_public = 1`+locationIndexOrder)
}

// ListAvailable returns the union of the user's own locations and
// everyone's public ones. Own public locations appear once.
func (l *LocationDB) ListAvailable(ctx context.Context, userID string) ([]model.LocationIndex, error) {
	return l.queryLocationIndex(ctx,
		`SELECT `+locationIndexColumns+` FROM locations
		 WHERE user_id = ? OR is_public = 1`+locationIndexOrder,
		userID)
}

func (l *LocationDB) queryLocationIndex(ctx context.Context, query string, args ...any) ([]model.LocationIndex, error) {
	rows, err := l.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing locations: %w", err)
	}
	defer rows.Close()

	out := []model.LocationIndex{}
	for rows.Next() {
		var (
			idx      model.LocationIndex
			lastUsed sql.NullTime
		)
		if err := rows.Scan(
			&idx.ID,
			&idx.UserID,
			&idx.Name,
			&idx.Latitude,
			&idx.Longitude,
			&idx.Address,
			&idx.Category,
			&idx.UsageCount,
			&lastUsed,
			&idx.IsPublic,
			&idx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning location row: %w", err)
		}
		idx.LastUsedAt = nullableTime(lastUsed)
		out = append(out, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating location rows: %w", err)
	}
	return out, nil
}

// IncrementUsage bumps the usage counter when a photo adopts the location.
func (l *LocationDB) IncrementUsage(ctx context.Context, id, userID string) error {
	res, err := l.db.conn.ExecContext(ctx,
		`UPDATE locations
		 SET usage_count = usage_count + 1, last_used_at = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		time.Now(), time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: incrementing usage for location %s: %w", id, err)
	}
	return requireRow(res, "location", id)
}

// DecrementUsage releases one usage. The MAX(...) guard floors the counter
// at zero, and an already-deleted location is a silent no-op: usage
// tracking is best-effort bookkeeping, not a correctness-critical counter.
func (l *LocationDB) DecrementUsage(ctx context.Context, id, userID string) error {
	_, err := l.db.conn.ExecContext(ctx,
		`UPDATE locations
		 SET usage_count = MAX(usage_count - 1, 0), updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		time.Now(), id, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: decrementing usage for location %s: %w", id, err)
	}
	return nil
}

// requireRow converts a zero-rows-affected result into NotFound.
func requireRow(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

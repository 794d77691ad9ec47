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

// CanvasDB implements repository.CanvasRepository.
type CanvasDB struct {
	db *DB
}

// Canvas returns the canvas-project repository view of the database.
func (db *DB) Canvas() *CanvasDB {
	return &CanvasDB{db: db}
}

var _ repository.CanvasRepository = (*CanvasDB)(nil)

// Create inserts a new project at version 1 with a single empty page.
func (c *CanvasDB) Create(ctx context.Context, project *model.CanvasProject) error {
	now := time.Now()
	project.ID = xid.New().String()
	project.Version = 1
	if len(project.Pages) == 0 {
		project.Pages = []model.CanvasPage{{ID: xid.New().String()}}
	}
	project.CreatedAt = now
	project.UpdatedAt = now

	pages, err := json.Marshal(project.Pages)
	if err != nil {
		return fmt.Errorf("encoding pages: %w", err)
	}

	_, err = c.db.conn.ExecContext(ctx,
		`INSERT INTO canvas_projects (id, user_id, title, current_page, pages,
			thumbnail_url, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		project.ID,
		project.UserID,
		project.Title,
		project.CurrentPage,
		string(pages),
		project.ThumbnailURL,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting canvas project %s: %w", project.ID, err)
	}
	return nil
}

// GetByID retrieves a full project, pages included, scoped to its owner.
func (c *CanvasDB) GetByID(ctx context.Context, id, userID string) (*model.CanvasProject, error) {
	var (
		project model.CanvasProject
		pages   string
	)
	err := c.db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, title, current_page, pages, thumbnail_url, version,
			created_at, updated_at
		 FROM canvas_projects WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&project.ID,
		&project.UserID,
		&project.Title,
		&project.CurrentPage,
		&pages,
		&project.ThumbnailURL,
		&project.Version,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("canvas project", id)
		}
		return nil, fmt.Errorf("sqlite: getting canvas project %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(pages), &project.Pages); err != nil {
		return nil, fmt.Errorf("decoding pages for canvas project %s: %w", id, err)
	}
	return &project, nil
}

// ListByUser returns the index projection (no page content), most recently
// updated first.
func (c *CanvasDB) ListByUser(ctx context.Context, userID string) ([]model.CanvasIndex, error) {
	rows, err := c.db.conn.QueryContext(ctx,
		`SELECT id, user_id, title, json_array_length(pages), thumbnail_url,
			version, created_at, updated_at
		 FROM canvas_projects WHERE user_id = ?
		 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing canvas projects: %w", err)
	}
	defer rows.Close()

	out := []model.CanvasIndex{}
	for rows.Next() {
		var idx model.CanvasIndex
		if err := rows.Scan(
			&idx.ID,
			&idx.UserID,
			&idx.Title,
			&idx.PageCount,
			&idx.ThumbnailURL,
			&idx.Version,
			&idx.CreatedAt,
			&idx.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning canvas row: %w", err)
		}
		out = append(out, idx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating canvas rows: %w", err)
	}
	return out, nil
}

// Save applies a partial update under the optimistic version check.
//
// The whole operation runs in one transaction: read the current row, merge
// the non-nil fields of the save, then UPDATE guarded by
// `AND version = ?`. The guard means a concurrent writer who committed
// first makes our UPDATE hit zero rows; the re-read then reports the
// authoritative version in the conflict error. On success the stored
// version is ExpectedVersion+1, exactly.
func (c *CanvasDB) Save(ctx context.Context, id, userID string, save *model.CanvasSave) (*model.CanvasProject, error) {
	tx, err := c.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning canvas save: %w", err)
	}
	defer tx.Rollback()

	var (
		project model.CanvasProject
		pages   string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, user_id, title, current_page, pages, thumbnail_url, version,
			created_at, updated_at
		 FROM canvas_projects WHERE id = ? AND user_id = ?`,
		id, userID,
	).Scan(
		&project.ID,
		&project.UserID,
		&project.Title,
		&project.CurrentPage,
		&pages,
		&project.ThumbnailURL,
		&project.Version,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("canvas project", id)
		}
		return nil, fmt.Errorf("sqlite: reading canvas project %s: %w", id, err)
	}

	if project.Version != save.ExpectedVersion {
		return nil, &apperror.VersionConflict{
			ServerVersion: project.Version,
			ClientVersion: save.ExpectedVersion,
		}
	}

	if err := json.Unmarshal([]byte(pages), &project.Pages); err != nil {
		return nil, fmt.Errorf("decoding pages for canvas project %s: %w", id, err)
	}

	// Merge the partial save.
	if save.Title != nil {
		project.Title = *save.Title
	}
	if save.CurrentPage != nil {
		project.CurrentPage = *save.CurrentPage
	}
	if save.Pages != nil {
		project.Pages = save.Pages
	}
	if save.ThumbnailURL != nil {
		project.ThumbnailURL = *save.ThumbnailURL
	}
	project.UpdatedAt = time.Now()

	encoded, err := json.Marshal(project.Pages)
	if err != nil {
		return nil, fmt.Errorf("encoding pages: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE canvas_projects
		 SET title = ?, current_page = ?, pages = ?, thumbnail_url = ?,
			version = version + 1, updated_at = ?
		 WHERE id = ? AND user_id = ? AND version = ?`,
		project.Title,
		project.CurrentPage,
		string(encoded),
		project.ThumbnailURL,
		project.UpdatedAt,
		id,
		userID,
		save.ExpectedVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: saving canvas project %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		// The version guard failed; report the authoritative version from
		// a re-read on the same transaction.
		var serverVersion int
		readErr := tx.QueryRowContext(ctx,
			`SELECT version FROM canvas_projects WHERE id = ? AND user_id = ?`,
			id, userID,
		).Scan(&serverVersion)
		if readErr != nil {
			if readErr == sql.ErrNoRows {
				return nil, apperror.NotFound("canvas project", id)
			}
			return nil, fmt.Errorf("sqlite: re-reading after conflict: %w", readErr)
		}
		return nil, &apperror.VersionConflict{
			ServerVersion: serverVersion,
			ClientVersion: save.ExpectedVersion,
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing canvas save: %w", err)
	}

	project.Version = save.ExpectedVersion + 1
	return &project, nil
}

// Delete removes a project.
func (c *CanvasDB) Delete(ctx context.Context, id, userID string) error {
	res, err := c.db.conn.ExecContext(ctx,
		`DELETE FROM canvas_projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting canvas project %s: %w", id, err)
	}
	return requireRow(res, "canvas project", id)
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/szhou/travelog/internal/apperror"
	"github.com/szhou/travelog/internal/model"
	"github.com/szhou/travelog/internal/repository"
)

// UserDB implements repository.UserRepository.
type UserDB struct {
	db *DB
}

// Users returns the user repository view of the database.
func (db *DB) Users() *UserDB {
	return &UserDB{db: db}
}

var _ repository.UserRepository = (*UserDB)(nil)

const userColumns = `id, email, password_hash, name, require_password_change,
	security_question, security_answer_hash, created_at, updated_at`

// Create inserts a new user. Emails are stored lowercase so the UNIQUE
// constraint is case-insensitive in practice.
func (u *UserDB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := u.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, name, require_password_change,
			security_question, security_answer_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.RequirePasswordChange,
		user.SecurityQuestion,
		user.SecurityAnswerHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("email is already registered")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
func (u *UserDB) GetByID(ctx context.Context, id string) (*model.User, error) {
	return u.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByEmail retrieves a user by email (case-insensitive).
func (u *UserDB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return u.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (u *UserDB) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var usr model.User
	err := u.db.conn.QueryRowContext(ctx, query, arg).Scan(
		&usr.ID,
		&usr.Email,
		&usr.PasswordHash,
		&usr.Name,
		&usr.RequirePasswordChange,
		&usr.SecurityQuestion,
		&usr.SecurityAnswerHash,
		&usr.CreatedAt,
		&usr.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprint(arg))
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}
	return &usr, nil
}

// UpdatePassword replaces the password hash and sets the forced
// password-change flag in one statement. Both the change-password and the
// security-answer reset paths go through here.
func (u *UserDB) UpdatePassword(ctx context.Context, userID, passwordHash string, requireChange bool) error {
	res, err := u.db.conn.ExecContext(ctx,
		`UPDATE users
		 SET password_hash = ?, require_password_change = ?, updated_at = ?
		 WHERE id = ?`,
		passwordHash, requireChange, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating password for user %s: %w", userID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

// isUniqueViolation detects a UNIQUE constraint failure. modernc.org/sqlite
// surfaces these as its own error type; matching on the message avoids
// importing driver internals.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

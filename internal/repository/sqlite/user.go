package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
)

// CreateUser inserts a new user, generating its ID. A second user with the
// same email violates the UNIQUE constraint and is reported as a conflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.exec(ctx, sq.Insert("users").
		Columns("id", "name", "email", "created_at", "updated_at").
		Values(user.ID, user.Name, user.Email, user.CreatedAt, user.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email "+user.Email)
		}
		return fmt.Errorf("sqlite: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row, err := db.queryRow(ctx, sq.Select("id", "name", "email", "created_at", "updated_at").
		From("users").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// DeleteUser removes the user with id. Meals and sessions reference users,
// so this only succeeds for a user that has neither.
func (db *DB) DeleteUser(ctx context.Context, id string) error {
	result, err := db.exec(ctx, sq.Delete("users").Where(sq.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	return expectOneRow(result, "User")
}

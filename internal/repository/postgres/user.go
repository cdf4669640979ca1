package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
)

func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.exec(ctx, psql.Insert("users").
		Columns("id", "name", "email", "created_at", "updated_at").
		Values(user.ID, user.Name, user.Email, user.CreatedAt, user.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email "+user.Email)
		}
		return fmt.Errorf("postgres: inserting user (email=%s): %w", user.Email, err)
	}

	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row, err := db.queryRow(ctx, psql.Select("id", "name", "email", "created_at", "updated_at").
		From("users").
		Where("id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}

	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("User")
		}
		return nil, fmt.Errorf("postgres: getting user %s: %w", id, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()

	return &u, nil
}

func (db *DB) DeleteUser(ctx context.Context, id string) error {
	tag, err := db.exec(ctx, psql.Delete("users").Where("id = ?", id))
	if err != nil {
		return fmt.Errorf("postgres: deleting user %s: %w", id, err)
	}
	return expectOneRow(tag, "User")
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
)

func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.exec(ctx, psql.Insert("sessions").
		Columns("id", "user_id", "created_at", "expires_at").
		Values(session.ID, session.UserID, session.CreatedAt, session.ExpiresAt.UnixMilli()))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("session", "the same id")
		}
		return fmt.Errorf("postgres: creating session for user %s: %w", session.UserID, err)
	}
	return nil
}

func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row, err := db.queryRow(ctx, psql.Select("id", "user_id", "created_at", "expires_at").
		From("sessions").
		Where("id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("postgres: getting session: %w", err)
	}

	var (
		s         model.Session
		expiresAt int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres: getting session: %w", err)
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = time.UnixMilli(expiresAt).UTC()

	return &s, nil
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.exec(ctx, psql.Delete("sessions").Where("id = ?", id)); err != nil {
		return fmt.Errorf("postgres: deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := db.exec(ctx, psql.Delete("sessions").
		Where("expires_at <= ?", now.UnixMilli()))
	if err != nil {
		return 0, fmt.Errorf("postgres: deleting expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

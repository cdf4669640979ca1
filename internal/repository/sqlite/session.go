package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
)

// CreateSession stores a session. The caller generates the ID.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	_, err := db.exec(ctx, sq.Insert("sessions").
		Columns("id", "user_id", "created_at", "expires_at").
		Values(session.ID, session.UserID, session.CreatedAt, session.ExpiresAt.UnixMilli()))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("session", "the same id")
		}
		return fmt.Errorf("sqlite: creating session for user %s: %w", session.UserID, err)
	}
	return nil
}

func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	row, err := db.queryRow(ctx, sq.Select("id", "user_id", "created_at", "expires_at").
		From("sessions").
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}

	var (
		s         model.Session
		expiresAt int64
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.CreatedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Session")
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}
	s.ExpiresAt = time.UnixMilli(expiresAt).UTC()

	return &s, nil
}

func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.exec(ctx, sq.Delete("sessions").Where(sq.Eq{"id": id})); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes every session that expired at or before now
// and returns how many were removed.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := db.exec(ctx, sq.Delete("sessions").
		Where(sq.LtOrEq{"expires_at": now.UnixMilli()}))
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting expired sessions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return n, nil
}

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

var mealColumns = []string{
	"seq", "id", "user_id", "name", "description", "is_on_diet",
	"occurred_at", "created_at", "updated_at",
}

// CreateMeal inserts a new meal. It generates the ID, fills in Seq from the
// row id SQLite assigned and sets both timestamps on the caller's struct.
func (db *DB) CreateMeal(ctx context.Context, meal *model.Meal) error {
	meal.ID = xid.New().String()

	now := time.Now().UTC()
	meal.CreatedAt = now
	meal.UpdatedAt = now

	result, err := db.exec(ctx, sq.Insert("meals").
		Columns("id", "user_id", "name", "description", "is_on_diet", "occurred_at", "created_at", "updated_at").
		Values(
			meal.ID,
			meal.UserID,
			meal.Name,
			meal.Description,
			meal.IsOnDiet,
			meal.OccurredAt.UnixMilli(),
			meal.CreatedAt,
			meal.UpdatedAt,
		))
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("meal", "id "+meal.ID)
		}
		return fmt.Errorf("sqlite: creating meal: %w", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading meal seq: %w", err)
	}
	meal.Seq = seq

	return nil
}

// ListMealsByUser returns every meal owned by userID.
//
// The ORDER BY matches history order so the index is used, but callers still
// sort: the repository contract does not promise an order.
func (db *DB) ListMealsByUser(ctx context.Context, userID string) ([]model.Meal, error) {
	query, args, err := sq.Select(mealColumns...).
		From("meals").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("occurred_at DESC", "seq DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sqlite: building meal list query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing meals for user %s: %w", userID, err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning meal row: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating meals: %w", err)
	}

	return meals, nil
}

// GetMealForUser fetches a meal only if userID owns it. Both "no such meal"
// and "someone else's meal" come back as apperror.ErrNotFound.
func (db *DB) GetMealForUser(ctx context.Context, id, userID string) (*model.Meal, error) {
	row, err := db.queryRow(ctx, sq.Select(mealColumns...).
		From("meals").
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", id, err)
	}

	meal, err := scanMeal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Meal")
		}
		return nil, fmt.Errorf("sqlite: getting meal %s: %w", id, err)
	}

	return meal, nil
}

// UpdateMealForUser replaces the mutable fields of a meal. The WHERE clause
// carries the owner, so zero affected rows means "not found" for this user.
func (db *DB) UpdateMealForUser(ctx context.Context, meal *model.Meal) error {
	meal.UpdatedAt = time.Now().UTC()

	result, err := db.exec(ctx, sq.Update("meals").
		Set("name", meal.Name).
		Set("description", meal.Description).
		Set("is_on_diet", meal.IsOnDiet).
		Set("occurred_at", meal.OccurredAt.UnixMilli()).
		Set("updated_at", meal.UpdatedAt).
		Where(sq.Eq{"id": meal.ID, "user_id": meal.UserID}))
	if err != nil {
		return fmt.Errorf("sqlite: updating meal %s: %w", meal.ID, err)
	}

	return expectOneRow(result, "Meal")
}

func (db *DB) DeleteMealForUser(ctx context.Context, id, userID string) error {
	result, err := db.exec(ctx, sq.Delete("meals").
		Where(sq.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return fmt.Errorf("sqlite: deleting meal %s: %w", id, err)
	}

	return expectOneRow(result, "Meal")
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(s rowScanner) (*model.Meal, error) {
	var (
		m          model.Meal
		occurredAt int64
	)
	if err := s.Scan(
		&m.Seq,
		&m.ID,
		&m.UserID,
		&m.Name,
		&m.Description,
		&m.IsOnDiet,
		&occurredAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	m.OccurredAt = time.UnixMilli(occurredAt).UTC()
	return &m, nil
}

func expectOneRow(result sql.Result, resource string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource)
	}
	return nil
}

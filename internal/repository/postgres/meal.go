package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/xid"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
)

var mealColumns = []string{
	"seq", "id", "user_id", "name", "description", "is_on_diet",
	"occurred_at", "created_at", "updated_at",
}

// CreateMeal inserts a meal and reads the identity-assigned seq back with
// RETURNING.
func (db *DB) CreateMeal(ctx context.Context, meal *model.Meal) error {
	meal.ID = xid.New().String()

	now := time.Now().UTC()
	meal.CreatedAt = now
	meal.UpdatedAt = now

	row, err := db.queryRow(ctx, psql.Insert("meals").
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
		).
		Suffix("RETURNING seq"))
	if err != nil {
		return fmt.Errorf("postgres: creating meal: %w", err)
	}

	if err := row.Scan(&meal.Seq); err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("meal", "id "+meal.ID)
		}
		return fmt.Errorf("postgres: creating meal: %w", err)
	}

	return nil
}

func (db *DB) ListMealsByUser(ctx context.Context, userID string) ([]model.Meal, error) {
	query, args, err := psql.Select(mealColumns...).
		From("meals").
		Where("user_id = ?", userID).
		OrderBy("occurred_at DESC", "seq DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("postgres: building meal list query: %w", err)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: listing meals for user %s: %w", userID, err)
	}
	defer rows.Close()

	meals := make([]model.Meal, 0)
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scanning meal row: %w", err)
		}
		meals = append(meals, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterating meals: %w", err)
	}

	return meals, nil
}

// GetMealForUser returns apperror.ErrNotFound both for a missing meal and for
// a meal owned by someone else.
func (db *DB) GetMealForUser(ctx context.Context, id, userID string) (*model.Meal, error) {
	row, err := db.queryRow(ctx, psql.Select(mealColumns...).
		From("meals").
		Where("id = ? AND user_id = ?", id, userID))
	if err != nil {
		return nil, fmt.Errorf("postgres: getting meal %s: %w", id, err)
	}

	meal, err := scanMeal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("Meal")
		}
		return nil, fmt.Errorf("postgres: getting meal %s: %w", id, err)
	}

	return meal, nil
}

func (db *DB) UpdateMealForUser(ctx context.Context, meal *model.Meal) error {
	meal.UpdatedAt = time.Now().UTC()

	tag, err := db.exec(ctx, psql.Update("meals").
		Set("name", meal.Name).
		Set("description", meal.Description).
		Set("is_on_diet", meal.IsOnDiet).
		Set("occurred_at", meal.OccurredAt.UnixMilli()).
		Set("updated_at", meal.UpdatedAt).
		Where("id = ? AND user_id = ?", meal.ID, meal.UserID))
	if err != nil {
		return fmt.Errorf("postgres: updating meal %s: %w", meal.ID, err)
	}

	return expectOneRow(tag, "Meal")
}

func (db *DB) DeleteMealForUser(ctx context.Context, id, userID string) error {
	tag, err := db.exec(ctx, psql.Delete("meals").
		Where("id = ? AND user_id = ?", id, userID))
	if err != nil {
		return fmt.Errorf("postgres: deleting meal %s: %w", id, err)
	}

	return expectOneRow(tag, "Meal")
}

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
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

func expectOneRow(tag pgconn.CommandTag, resource string) error {
	if tag.RowsAffected() == 0 {
		return apperror.NotFound(resource)
	}
	return nil
}

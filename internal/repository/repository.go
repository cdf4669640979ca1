// Package repository declares the storage contracts the services depend on.
//
// Implementations live in sub-packages (sqlite, postgres). Services only ever
// see these interfaces, so every backend must honour the same rules:
//
//   - Meal lookups, updates and deletes are always scoped by the owning user.
//     A meal that exists but belongs to someone else is reported as
//     apperror.ErrNotFound, exactly like a meal that does not exist.
//   - ListMealsByUser makes no ordering promise. History order is applied by
//     the caller (see metrics.SortHistory).
package repository

import (
	"context"
	"time"

	"github.com/sakif/daily-diet/internal/model"
)

type MealRepository interface {
	// CreateMeal assigns ID, Seq and the bookkeeping timestamps.
	CreateMeal(ctx context.Context, meal *model.Meal) error
	ListMealsByUser(ctx context.Context, userID string) ([]model.Meal, error)
	GetMealForUser(ctx context.Context, id, userID string) (*model.Meal, error)
	// UpdateMealForUser replaces name, description, on-diet flag and
	// occurrence time of the meal identified by meal.ID and meal.UserID.
	UpdateMealForUser(ctx context.Context, meal *model.Meal) error
	DeleteMealForUser(ctx context.Context, id, userID string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// DeleteUser removes a user that owns nothing yet. It exists so a
	// registration that failed halfway can be rolled back.
	DeleteUser(ctx context.Context, id string) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	// DeleteSession is idempotent: deleting an unknown session is not an error.
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is a complete storage backend.
type Store interface {
	MealRepository
	UserRepository
	SessionRepository

	Ping(ctx context.Context) error
	Close() error
}

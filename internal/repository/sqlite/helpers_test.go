package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/daily-diet/internal/model"
)

// newTestDB opens a fresh in-memory database with all migrations applied.
// Each test gets its own database; t.Cleanup closes it.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{Name: "John Doe", Email: email}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestMeal(t *testing.T, db *DB, userID, name string, onDiet bool, at time.Time) *model.Meal {
	t.Helper()
	meal := &model.Meal{
		UserID:      userID,
		Name:        name,
		Description: "It's a " + name,
		IsOnDiet:    onDiet,
		OccurredAt:  at,
	}
	if err := db.CreateMeal(context.Background(), meal); err != nil {
		t.Fatalf("failed to create test meal: %v", err)
	}
	return meal
}

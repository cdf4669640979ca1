package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/config"
	"github.com/sakif/daily-diet/internal/metrics"
	"github.com/sakif/daily-diet/internal/model"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// newTestDB starts one PostgreSQL container for the whole package run and
// returns a store connected to it. The tests share the database, so every
// test creates its own users.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL tests in -short mode")
	}

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	if initErr != nil {
		t.Skipf("PostgreSQL container unavailable: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := New(ctx, config.DatabaseConfig{DSN: sharedDSN, MaxConns: 4, MinConns: 0})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "diet",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/diet?sslmode=disable", host, port.Port()), nil
}

func createUser(t *testing.T, db *DB) *model.User {
	t.Helper()
	user := &model.User{Name: "John Doe", Email: uuid.NewString() + "@example.com"}
	require.NoError(t, db.CreateUser(context.Background(), user))
	return user
}

func createMeal(t *testing.T, db *DB, userID, name string, at time.Time) *model.Meal {
	t.Helper()
	meal := &model.Meal{UserID: userID, Name: name, IsOnDiet: true, OccurredAt: at}
	require.NoError(t, db.CreateMeal(context.Background(), meal))
	return meal
}

var day = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMigrate_Idempotent(t *testing.T) {
	newTestDB(t)
	assert.NoError(t, Migrate(context.Background(), sharedDSN))
}

func TestUsers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := createUser(t, db)
	assert.NotEmpty(t, user.ID)

	found, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, found.Email)

	err = db.CreateUser(ctx, &model.User{Name: "Again", Email: user.Email})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = db.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, db.DeleteUser(ctx, user.ID))
	assert.ErrorIs(t, db.DeleteUser(ctx, user.ID), apperror.ErrNotFound)
	require.NoError(t, db.CreateUser(ctx, &model.User{Name: "Again", Email: user.Email}))
}

func TestMeals_HistoryOrderAndRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createUser(t, db)

	at := time.Date(2021, 1, 1, 12, 0, 0, 456_000_000, time.UTC)
	createMeal(t, db, user.ID, "early", day)
	first := createMeal(t, db, user.ID, "tie-1", at)
	second := createMeal(t, db, user.ID, "tie-2", at)
	assert.Greater(t, second.Seq, first.Seq)

	meals, err := db.ListMealsByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, meals, 3)
	assert.True(t, metrics.IsHistoryOrdered(meals))
	assert.Equal(t, "tie-2", meals[0].Name)
	assert.Equal(t, "early", meals[2].Name)
	assert.True(t, meals[0].OccurredAt.Equal(at))
}

func TestMeals_ScopedByOwner(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db)
	other := createUser(t, db)
	meal := createMeal(t, db, owner.ID, "Breakfast", day)

	_, err := db.GetMealForUser(ctx, meal.ID, other.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	hijack := *meal
	hijack.UserID = other.ID
	assert.ErrorIs(t, db.UpdateMealForUser(ctx, &hijack), apperror.ErrNotFound)
	assert.ErrorIs(t, db.DeleteMealForUser(ctx, meal.ID, other.ID), apperror.ErrNotFound)

	others, err := db.ListMealsByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, others)

	meal.Name = "Dinner"
	meal.IsOnDiet = false
	require.NoError(t, db.UpdateMealForUser(ctx, meal))

	found, err := db.GetMealForUser(ctx, meal.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dinner", found.Name)
	assert.False(t, found.IsOnDiet)

	require.NoError(t, db.DeleteMealForUser(ctx, meal.ID, owner.ID))
	_, err = db.GetMealForUser(ctx, meal.ID, owner.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createUser(t, db)
	now := time.Now().UTC().Truncate(time.Millisecond)

	live := &model.Session{ID: uuid.NewString(), UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	expired := &model.Session{ID: uuid.NewString(), UserID: user.ID, CreatedAt: now, ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, db.CreateSession(ctx, live))
	require.NoError(t, db.CreateSession(ctx, expired))

	found, err := db.GetSession(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.UserID)
	assert.True(t, found.ExpiresAt.Equal(live.ExpiresAt))

	n, err := db.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	_, err = db.GetSession(ctx, expired.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.NoError(t, db.DeleteSession(ctx, live.ID))
	require.NoError(t, db.DeleteSession(ctx, live.ID))
	_, err = db.GetSession(ctx, live.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/model"
)

// =========================================================================
// MOCK REPOSITORIES
// =========================================================================
//
// In-memory implementations of the repository interfaces. They follow the
// same contract as the SQL stores: meal access is scoped by owner and a
// foreign meal is reported as not found. err, when set, is returned by every
// call to simulate a store outage.

type mockMealRepo struct {
	meals   map[string]*model.Meal
	nextSeq int64
	err     error
	calls   int
}

func newMockMealRepo() *mockMealRepo {
	return &mockMealRepo{meals: make(map[string]*model.Meal)}
}

func (m *mockMealRepo) CreateMeal(_ context.Context, meal *model.Meal) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.nextSeq++
	meal.ID = xid.New().String()
	meal.Seq = m.nextSeq
	stored := *meal
	m.meals[meal.ID] = &stored
	return nil
}

// ListMealsByUser returns rows in insertion order, not history order, so the
// tests catch a service that forgets to sort.
func (m *mockMealRepo) ListMealsByUser(_ context.Context, userID string) ([]model.Meal, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	result := make([]model.Meal, 0)
	for seq := int64(1); seq <= m.nextSeq; seq++ {
		for _, meal := range m.meals {
			if meal.Seq == seq && meal.UserID == userID {
				result = append(result, *meal)
			}
		}
	}
	return result, nil
}

func (m *mockMealRepo) GetMealForUser(_ context.Context, id, userID string) (*model.Meal, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return nil, apperror.NotFound("Meal")
	}
	result := *meal
	return &result, nil
}

func (m *mockMealRepo) UpdateMealForUser(_ context.Context, meal *model.Meal) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	stored, ok := m.meals[meal.ID]
	if !ok || stored.UserID != meal.UserID {
		return apperror.NotFound("Meal")
	}
	stored.Name = meal.Name
	stored.Description = meal.Description
	stored.IsOnDiet = meal.IsOnDiet
	stored.OccurredAt = meal.OccurredAt
	return nil
}

func (m *mockMealRepo) DeleteMealForUser(_ context.Context, id, userID string) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	meal, ok := m.meals[id]
	if !ok || meal.UserID != userID {
		return apperror.NotFound("Meal")
	}
	delete(m.meals, id)
	return nil
}

type mockUserRepo struct {
	users map[string]*model.User
	err   error
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if m.err != nil {
		return m.err
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email "+user.Email)
		}
	}
	user.ID = xid.New().String()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("User")
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) DeleteUser(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("User")
	}
	delete(m.users, id)
	return nil
}

type mockSessionRepo struct {
	sessions map[string]*model.Session
	err      error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) CreateSession(_ context.Context, s *model.Session) error {
	if m.err != nil {
		return m.err
	}
	stored := *s
	m.sessions[s.ID] = &stored
	return nil
}

func (m *mockSessionRepo) GetSession(_ context.Context, id string) (*model.Session, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperror.NotFound("Session")
	}
	result := *s
	return &result, nil
}

func (m *mockSessionRepo) DeleteSession(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockSessionRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

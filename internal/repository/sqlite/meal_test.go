package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/metrics"
	"github.com/sakif/daily-diet/internal/model"
)

var day = time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCreateMeal(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")

	meal := &model.Meal{
		UserID:      user.ID,
		Name:        "Breakfast",
		Description: "It's a breakfast",
		IsOnDiet:    true,
		OccurredAt:  day.Add(8 * time.Hour),
	}
	if err := db.CreateMeal(context.Background(), meal); err != nil {
		t.Fatalf("CreateMeal() error = %v", err)
	}

	if meal.ID == "" {
		t.Error("CreateMeal() did not set meal.ID")
	}
	if meal.Seq == 0 {
		t.Error("CreateMeal() did not set meal.Seq")
	}
	if meal.CreatedAt.IsZero() {
		t.Error("CreateMeal() did not set meal.CreatedAt")
	}
}

func TestCreateMeal_SeqGrows(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")

	first := createTestMeal(t, db, user.ID, "first", true, day)
	second := createTestMeal(t, db, user.ID, "second", true, day)

	if second.Seq <= first.Seq {
		t.Errorf("Seq did not grow: first=%d second=%d", first.Seq, second.Seq)
	}
}

func TestCreateMeal_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.CreateMeal(context.Background(), &model.Meal{
		UserID:     "nobody",
		Name:       "Breakfast",
		OccurredAt: day,
	})
	if err == nil {
		t.Fatal("CreateMeal() should fail for an unknown user (foreign key)")
	}
}

func TestGetMealForUser_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	at := time.Date(2021, 1, 1, 8, 30, 15, 123_000_000, time.UTC)
	created := createTestMeal(t, db, user.ID, "Breakfast", false, at)

	found, err := db.GetMealForUser(context.Background(), created.ID, user.ID)
	if err != nil {
		t.Fatalf("GetMealForUser() error = %v", err)
	}

	if found.Name != "Breakfast" || found.Description != "It's a Breakfast" {
		t.Errorf("got name=%q description=%q", found.Name, found.Description)
	}
	if found.IsOnDiet {
		t.Error("IsOnDiet = true, want false")
	}
	if !found.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt = %v, want %v", found.OccurredAt, at)
	}
	if found.Seq != created.Seq {
		t.Errorf("Seq = %d, want %d", found.Seq, created.Seq)
	}
	if found.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", found.UserID, user.ID)
	}
}

func TestGetMealForUser_OtherUserIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	meal := createTestMeal(t, db, owner.ID, "Breakfast", true, day)

	_, err := db.GetMealForUser(context.Background(), meal.ID, other.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	_, errMissing := db.GetMealForUser(context.Background(), "does-not-exist", other.ID)
	if err.Error() != errMissing.Error() {
		t.Errorf("foreign meal error %q differs from missing meal error %q", err, errMissing)
	}
}

func TestListMealsByUser_OnlyOwnMeals(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	createTestMeal(t, db, alice.ID, "a1", true, day)
	createTestMeal(t, db, alice.ID, "a2", false, day.Add(time.Hour))
	createTestMeal(t, db, bob.ID, "b1", true, day)

	meals, err := db.ListMealsByUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListMealsByUser() error = %v", err)
	}
	if len(meals) != 2 {
		t.Fatalf("len = %d, want 2", len(meals))
	}
	for _, m := range meals {
		if m.UserID != alice.ID {
			t.Errorf("meal %s belongs to %s, want %s", m.ID, m.UserID, alice.ID)
		}
	}
}

func TestListMealsByUser_Empty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")

	meals, err := db.ListMealsByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListMealsByUser() error = %v", err)
	}
	if meals == nil || len(meals) != 0 {
		t.Errorf("meals = %#v, want empty non-nil slice", meals)
	}
}

func TestListMealsByUser_HistoryOrder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")

	createTestMeal(t, db, user.ID, "early", true, day.Add(8*time.Hour))
	createTestMeal(t, db, user.ID, "late", true, day.Add(20*time.Hour))
	createTestMeal(t, db, user.ID, "tie-1", true, day.Add(12*time.Hour))
	createTestMeal(t, db, user.ID, "tie-2", false, day.Add(12*time.Hour))

	meals, err := db.ListMealsByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListMealsByUser() error = %v", err)
	}

	if !metrics.IsHistoryOrdered(meals) {
		t.Error("rows are not in history order")
	}
	want := []string{"late", "tie-2", "tie-1", "early"}
	for i, m := range meals {
		if m.Name != want[i] {
			t.Errorf("meals[%d] = %q, want %q", i, m.Name, want[i])
		}
	}
}

func TestUpdateMealForUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	meal := createTestMeal(t, db, user.ID, "Breakfast", true, day)
	seq := meal.Seq

	meal.Name = "Dinner"
	meal.Description = "It's a dinner"
	meal.IsOnDiet = false
	meal.OccurredAt = day.Add(20 * time.Hour)
	if err := db.UpdateMealForUser(context.Background(), meal); err != nil {
		t.Fatalf("UpdateMealForUser() error = %v", err)
	}

	found, err := db.GetMealForUser(context.Background(), meal.ID, user.ID)
	if err != nil {
		t.Fatalf("GetMealForUser() error = %v", err)
	}
	if found.Name != "Dinner" || found.IsOnDiet || !found.OccurredAt.Equal(day.Add(20*time.Hour)) {
		t.Errorf("update not persisted: %+v", found)
	}
	if found.Seq != seq {
		t.Errorf("Seq changed on update: %d -> %d", seq, found.Seq)
	}
}

func TestUpdateMealForUser_OtherUserIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	meal := createTestMeal(t, db, owner.ID, "Breakfast", true, day)

	hijack := *meal
	hijack.UserID = other.ID
	hijack.Name = "Hijacked"
	err := db.UpdateMealForUser(context.Background(), &hijack)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	found, err := db.GetMealForUser(context.Background(), meal.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetMealForUser() error = %v", err)
	}
	if found.Name != "Breakfast" {
		t.Errorf("Name = %q, the other user's update leaked through", found.Name)
	}
}

func TestDeleteMealForUser(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@example.com")
	meal := createTestMeal(t, db, user.ID, "Breakfast", true, day)

	if err := db.DeleteMealForUser(context.Background(), meal.ID, user.ID); err != nil {
		t.Fatalf("DeleteMealForUser() error = %v", err)
	}

	_, err := db.GetMealForUser(context.Background(), meal.ID, user.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}

	// Second delete: already gone.
	err = db.DeleteMealForUser(context.Background(), meal.ID, user.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestDeleteMealForUser_OtherUserIsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	other := createTestUser(t, db, "other@example.com")
	meal := createTestMeal(t, db, owner.ID, "Breakfast", true, day)

	err := db.DeleteMealForUser(context.Background(), meal.ID, other.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}

	if _, err := db.GetMealForUser(context.Background(), meal.ID, owner.ID); err != nil {
		t.Errorf("meal should survive a foreign delete: %v", err)
	}
}

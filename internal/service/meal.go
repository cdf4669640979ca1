// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, scopes by owner, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, never a concrete store, and return
// apperror values that the handler package maps to HTTP status codes.
// Every meal operation takes the caller's user id: a service method never
// touches a meal without the owner in the query.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/metrics"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/repository"
)

// Validation limits, in characters.
const (
	MaxMealNameLength    = 100
	MaxDescriptionLength = 1000
)

// MealInput carries the caller-editable fields of a meal. Create and Update
// take the same input: an update replaces all four fields.
type MealInput struct {
	Name        string
	Description string
	IsOnDiet    bool
	OccurredAt  time.Time
}

// MealService handles business logic for meals.
type MealService struct {
	repo   repository.MealRepository
	logger *slog.Logger
}

func NewMealService(repo repository.MealRepository, logger *slog.Logger) *MealService {
	return &MealService{
		repo:   repo,
		logger: logger,
	}
}

// Create validates in and records a meal owned by userID.
func (s *MealService) Create(ctx context.Context, userID string, in MealInput) (*model.Meal, error) {
	in, err := normalizeMealInput(in)
	if err != nil {
		return nil, err
	}

	meal := &model.Meal{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		IsOnDiet:    in.IsOnDiet,
		OccurredAt:  in.OccurredAt,
	}
	if err := s.repo.CreateMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("creating meal: %w", err)
	}

	s.logger.InfoContext(ctx, "meal created",
		slog.String("mealID", meal.ID),
		slog.String("userID", userID),
		slog.Bool("onDiet", meal.IsOnDiet),
	)

	return meal, nil
}

// List returns the caller's meals in history order: most recent occurrence
// first, ties broken by most recently recorded first.
func (s *MealService) List(ctx context.Context, userID string) ([]model.Meal, error) {
	return s.history(ctx, userID)
}

// Get returns one of the caller's meals. A meal owned by someone else is
// reported as not found.
func (s *MealService) Get(ctx context.Context, userID, id string) (*model.Meal, error) {
	if err := validateMealID(id); err != nil {
		return nil, err
	}

	meal, err := s.repo.GetMealForUser(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("getting meal: %w", err)
	}
	return meal, nil
}

// Update replaces name, description, on-diet flag and occurrence time of one
// of the caller's meals.
func (s *MealService) Update(ctx context.Context, userID, id string, in MealInput) error {
	if err := validateMealID(id); err != nil {
		return err
	}
	in, err := normalizeMealInput(in)
	if err != nil {
		return err
	}

	meal := &model.Meal{
		ID:          id,
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		IsOnDiet:    in.IsOnDiet,
		OccurredAt:  in.OccurredAt,
	}
	if err := s.repo.UpdateMealForUser(ctx, meal); err != nil {
		return fmt.Errorf("updating meal: %w", err)
	}

	s.logger.InfoContext(ctx, "meal updated", slog.String("mealID", id), slog.String("userID", userID))
	return nil
}

func (s *MealService) Delete(ctx context.Context, userID, id string) error {
	if err := validateMealID(id); err != nil {
		return err
	}

	if err := s.repo.DeleteMealForUser(ctx, id, userID); err != nil {
		return fmt.Errorf("deleting meal: %w", err)
	}

	s.logger.InfoContext(ctx, "meal deleted", slog.String("mealID", id), slog.String("userID", userID))
	return nil
}

// Metrics summarises the caller's whole history. The history is read once
// and aggregated in memory, so the totals and the streak always describe the
// same snapshot.
func (s *MealService) Metrics(ctx context.Context, userID string) (metrics.Summary, error) {
	meals, err := s.history(ctx, userID)
	if err != nil {
		return metrics.Summary{}, err
	}
	return metrics.Compute(meals), nil
}

func (s *MealService) history(ctx context.Context, userID string) ([]model.Meal, error) {
	meals, err := s.repo.ListMealsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing meals: %w", err)
	}
	metrics.SortHistory(meals)
	return meals, nil
}

// normalizeMealInput trims text fields, checks limits and brings OccurredAt
// to UTC at millisecond precision, the resolution it is stored at.
func normalizeMealInput(in MealInput) (MealInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	if in.Name == "" {
		return in, apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(in.Name) > MaxMealNameLength {
		return in, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxMealNameLength))
	}
	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return in, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	if in.OccurredAt.IsZero() {
		return in, apperror.ValidationFailed("date", "date is required")
	}

	in.OccurredAt = time.UnixMilli(in.OccurredAt.UnixMilli()).UTC()
	return in, nil
}

// validateMealID rejects ids that could never have been issued, before any
// store access.
func validateMealID(id string) error {
	if _, err := xid.FromString(id); err != nil {
		return apperror.ValidationFailed("id", "invalid meal id")
	}
	return nil
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/metrics"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/service"
)

// MealService is the business logic the meal routes need.
type MealService interface {
	Create(ctx context.Context, userID string, in service.MealInput) (*model.Meal, error)
	List(ctx context.Context, userID string) ([]model.Meal, error)
	Get(ctx context.Context, userID, id string) (*model.Meal, error)
	Update(ctx context.Context, userID, id string, in service.MealInput) error
	Delete(ctx context.Context, userID, id string) error
	Metrics(ctx context.Context, userID string) (metrics.Summary, error)
}

// MealHandler serves /transactions. Every route sits behind
// auth.RequireSession, so the caller's identity is always in the context.
type MealHandler struct {
	meals  MealService
	logger *slog.Logger
}

func NewMealHandler(meals MealService, logger *slog.Logger) *MealHandler {
	return &MealHandler{meals: meals, logger: logger}
}

// mealRequest is the body of create and update. Pointer fields tell a
// missing field apart from a zero value.
type mealRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	IsOnDiet    *bool     `json:"isOnDiet"`
	Date        *mealDate `json:"date"`
}

func (req *mealRequest) input() (service.MealInput, error) {
	switch {
	case req.Name == nil:
		return service.MealInput{}, apperror.ValidationFailed("name", "name is required")
	case req.Description == nil:
		return service.MealInput{}, apperror.ValidationFailed("description", "description is required")
	case req.IsOnDiet == nil:
		return service.MealInput{}, apperror.ValidationFailed("isOnDiet", "isOnDiet is required")
	case req.Date == nil:
		return service.MealInput{}, apperror.ValidationFailed("date", "date is required")
	}

	return service.MealInput{
		Name:        *req.Name,
		Description: *req.Description,
		IsOnDiet:    *req.IsOnDiet,
		OccurredAt:  time.Time(*req.Date),
	}, nil
}

// mealResponse is the JSON shape of a meal. Date is epoch milliseconds.
type mealResponse struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsOnDiet    bool      `json:"isOnDiet"`
	Date        int64     `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newMealResponse(m *model.Meal) mealResponse {
	return mealResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Description: m.Description,
		IsOnDiet:    m.IsOnDiet,
		Date:        m.OccurredAt.UnixMilli(),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// HandleCreate records a meal for the caller.
//
// HTTP: POST /transactions
// REQUEST BODY: {"name":"Breakfast","description":"...","isOnDiet":true,"date":1609488000000}
// RESPONSE: 201 with an empty body
func (h *MealHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	in, err := decodeMeal(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.meals.Create(r.Context(), id.UserID, in); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
}

// HandleList returns the caller's meals, most recent first.
//
// HTTP: GET /transactions
// RESPONSE: {"transactions":[{...}, ...]}
func (h *MealHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	meals, err := h.meals.List(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]mealResponse, 0, len(meals))
	for i := range meals {
		out = append(out, newMealResponse(&meals[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

// HandleGet returns one meal.
//
// HTTP: GET /transactions/{id}
// RESPONSE: {"meal":{...}} or 404 {"error":"Meal not found","code":"not_found"}
func (h *MealHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	meal, err := h.meals.Get(r.Context(), id.UserID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"meal": newMealResponse(meal)})
}

// HandleUpdate replaces a meal's fields.
//
// HTTP: PUT /transactions/{id}
// REQUEST BODY: same as HandleCreate
// RESPONSE: 204 No Content
func (h *MealHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	in, err := decodeMeal(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.meals.Update(r.Context(), id.UserID, r.PathValue("id"), in); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete removes a meal.
//
// HTTP: DELETE /transactions/{id}
func (h *MealHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.meals.Delete(r.Context(), id.UserID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMetrics summarises the caller's history.
//
// HTTP: GET /transactions/metrics
// RESPONSE: {"total":5,"totalOnDiet":4,"totalOffDiet":1,"bestOnDietSequence":3}
func (h *MealHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	summary, err := h.meals.Metrics(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func decodeMeal(w http.ResponseWriter, r *http.Request) (service.MealInput, error) {
	var req mealRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return service.MealInput{}, err
	}
	return req.input()
}

// identity reads the caller stored by auth.RequireSession. A route mounted
// without the middleware answers 401 rather than running anonymously.
func identity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
	}
	return id, ok
}

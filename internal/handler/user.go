package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/service"
)

// UserService is the business logic the user routes need.
type UserService interface {
	Register(ctx context.Context, name, email string) (*service.AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)
	Logout(ctx context.Context, sessionID string) error
}

// UserHandler manages registration and the session lifecycle.
//
//   - HandleRegister → create the user, open a session, set the cookie
//   - HandleMe       → return the logged-in user's profile
//   - HandleLogout   → delete the session and clear the cookie
type UserHandler struct {
	users  UserService
	cookie auth.CookieConfig
	logger *slog.Logger
}

func NewUserHandler(users UserService, cookie auth.CookieConfig, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, cookie: cookie, logger: logger}
}

type registerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleRegister creates a user and starts a session for it.
//
// HTTP: POST /users
// REQUEST BODY: {"name":"John Doe","email":"johndoe@gmail.com"}
// RESPONSE: 201 {"user":{...}} plus Set-Cookie: sessionId=<uuid>
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.users.Register(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	auth.SetSessionCookie(w, h.cookie, result.Session.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"user": result.User})
}

// HandleMe returns the currently logged-in user's profile.
//
// HTTP: GET /users/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	user, err := h.users.Me(r.Context(), id.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// HandleLogout ends the caller's session.
//
// HTTP: POST /users/logout
//
// The session row is deleted server-side, so the id stops working even if
// the client keeps the cookie.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}

	if err := h.users.Logout(r.Context(), id.SessionID); err != nil {
		writeError(w, err)
		return
	}

	auth.ClearSessionCookie(w, h.cookie)
	w.WriteHeader(http.StatusNoContent)
}

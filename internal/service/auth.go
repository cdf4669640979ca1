package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/daily-diet/internal/apperror"
	"github.com/sakif/daily-diet/internal/auth"
	"github.com/sakif/daily-diet/internal/model"
	"github.com/sakif/daily-diet/internal/repository"
)

const (
	MaxUserNameLength = 100
	MaxEmailLength    = 254
)

var _ auth.Authenticator = (*AuthService)(nil)

// AuthResult is what a successful registration hands back to the handler:
// the new user and the session to put in the cookie.
type AuthResult struct {
	User    *model.User
	Session *model.Session
}

// AuthService registers users and resolves their sessions.
//
//	UserHandler (HTTP) → AuthService → UserRepository / SessionRepository
//	RequireSession     ↗
type AuthService struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	ttl      time.Duration
	logger   *slog.Logger

	// now is replaced in tests.
	now func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Register creates a user and opens a session for it.
//
// Emails are compared case-insensitively, so they are stored lower-cased. A
// second registration with the same email is a conflict.
func (s *AuthService) Register(ctx context.Context, name, email string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if utf8.RuneCountInString(name) > MaxUserNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user := &model.User{Name: name, Email: email}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	session, err := s.openSession(ctx, user.ID)
	if err != nil {
		// Without a session the new account is unreachable and its email
		// taken, so undo it.
		if delErr := s.users.DeleteUser(ctx, user.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "orphaned user after failed registration",
				slog.String("userID", user.ID),
				slog.String("email", user.Email),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("userID", user.ID))

	return &AuthResult{User: user, Session: session}, nil
}

// Authenticate resolves a session id to its user id. Unknown and expired
// sessions both yield apperror.ErrUnauthenticated; an expired session is
// removed on the way out.
func (s *AuthService) Authenticate(ctx context.Context, sessionID string) (string, error) {
	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthenticated()
		}
		return "", fmt.Errorf("looking up session: %w", err)
	}

	if session.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete expired session", slog.String("error", err.Error()))
		}
		return "", apperror.Unauthenticated()
	}

	return session.UserID, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("getting current user: %w", err)
	}
	return user, nil
}

// Logout ends a session. Ending an already-ended session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions removes every session past its expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("purging expired sessions: %w", err)
	}
	return n, nil
}

func (s *AuthService) openSession(ctx context.Context, userID string) (*model.Session, error) {
	now := s.now().UTC().Truncate(time.Millisecond)
	session := &model.Session{
		ID:        auth.NewSessionID(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

// validateEmail accepts a bare address ("a@b.c"), not a display-name form.
func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength {
		return apperror.ValidationFailed("email",
			fmt.Sprintf("email must be %d characters or less", MaxEmailLength))
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.ValidationFailed("email", "email is invalid")
	}
	return nil
}

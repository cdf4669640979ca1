package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CookieConfig describes the session cookie.
//
// COOKIE FLOW:
//  1. Set-Cookie: sessionId=<uuid>; Path=/; HttpOnly; SameSite=Lax (on registration)
//  2. The browser sends Cookie: sessionId=<uuid> on every later request
//  3. RequireSession reads r.Cookie(Name) and resolves it to a user
type CookieConfig struct {
	Name   string
	TTL    time.Duration
	Secure bool
}

// NewSessionID returns a fresh random session identifier. It is a version 4
// UUID: 122 random bits, so ids cannot be guessed from one another.
func NewSessionID() string {
	return uuid.NewString()
}

// SetSessionCookie sends the session id to the client.
func SetSessionCookie(w http.ResponseWriter, cfg CookieConfig, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie tells the client to drop the session cookie.
func ClearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

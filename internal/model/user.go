// Package model defines the data structures shared by every layer.
package model

import "time"

// User is a registered account. Users are created once at registration and
// never updated afterwards.
//
// Email is stored lower-cased; the users table carries a UNIQUE constraint on
// it, so two registrations with the same address conflict.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

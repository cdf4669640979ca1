package model

import "time"

// Meal is a single recorded food intake, tagged on-diet or off-diet.
// The HTTP API calls these "transactions".
//
// OccurredAt is supplied by the caller and persisted as epoch milliseconds,
// so it always carries millisecond precision in UTC once it has been through
// the service layer.
//
// Seq is assigned by the store on insert and grows strictly with every
// insert. It never changes on update and is only used to order meals that
// share the same OccurredAt; it is not part of the JSON representation.
type Meal struct {
	ID          string
	UserID      string
	Name        string
	Description string
	IsOnDiet    bool
	OccurredAt  time.Time
	Seq         int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

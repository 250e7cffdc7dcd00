package models

import "time"

// BaseMemberTitle is assigned when a position is created without an explicit title.
const BaseMemberTitle = "member"

// Position is a user's membership record at one level. A user holds at most one position
// per level.
type Position struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UnitID    string    `db:"unit_id" json:"unit_id"`
	Level     UnitLevel `db:"-" json:"level"`
	Title     string    `db:"title" json:"title"`
	IsTrusted bool      `db:"is_trusted" json:"is_trusted"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Application is a pending request by a user to join a unit.
type Application struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UnitID    string    `db:"unit_id" json:"unit_id"`
	Level     UnitLevel `db:"-" json:"level"`
	Message   *string   `db:"message" json:"message,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

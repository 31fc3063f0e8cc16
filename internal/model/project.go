package model

import "time"

// Project is a grouping container for related tasks with its own
// schedule and derived completion rate.
type Project struct {
	// ID is the unique identifier for this project.
	ID string `json:"id" db:"id"`

	// Name is the project's display name.
	Name string `json:"name" db:"name"`

	// Description is the full body text.
	Description string `json:"description" db:"description"`

	// Status is one of the Status* constants.
	Status string `json:"status" db:"status"`

	// StartDate is when the project is scheduled to begin.
	StartDate time.Time `json:"start_date" db:"start_date"`

	// EndDate is when the project is due. A time-of-day of exactly
	// 23:59:59 marks a whole-day date.
	EndDate time.Time `json:"end_date" db:"end_date"`

	// CompletionRate is the 0-100 percentage of completed child tasks.
	// It is recomputed from the tasks table, never set directly.
	CompletionRate int `json:"completion_rate" db:"completion_rate"`

	// OwnerID is the user who owns the project.
	OwnerID string `json:"owner_id" db:"owner_id"`

	// AssigneeID is the user responsible for the project, if any.
	AssigneeID *string `json:"assignee_id,omitempty" db:"assignee_id"`

	// TeamID scopes the project to a team; nil for personal projects.
	TeamID *string `json:"team_id,omitempty" db:"team_id"`

	// DateCheckedAt is the last time date conditions were evaluated for
	// this project and a notification possibly emitted.
	DateCheckedAt *time.Time `json:"date_checked_at,omitempty" db:"date_checked_at"`

	// Deleted marks the project as soft-deleted.
	Deleted bool `json:"deleted" db:"deleted"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

package model

import "time"

// Entity status constants shared by tasks and projects.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Task is a tracked work item with a scheduled start and end.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id" db:"id"`

	// Title is the human-readable summary of the task.
	Title string `json:"title" db:"title"`

	// Description is the full body text.
	Description string `json:"description" db:"description"`

	// Status is one of the Status* constants.
	Status string `json:"status" db:"status"`

	// StartDate is when work is scheduled to begin. A time-of-day of
	// exactly midnight marks a whole-day date rather than an exact
	// deadline.
	StartDate time.Time `json:"start_date" db:"start_date"`

	// EndDate is when work is due. A time-of-day of exactly 23:59:59
	// marks a whole-day date.
	EndDate time.Time `json:"end_date" db:"end_date"`

	// AssigneeID is the user responsible for the task, if any.
	AssigneeID *string `json:"assignee_id,omitempty" db:"assignee_id"`

	// CreatorID is the user who created the task.
	CreatorID string `json:"creator_id" db:"creator_id"`

	// TeamID scopes the task to a team; nil for personal tasks.
	TeamID *string `json:"team_id,omitempty" db:"team_id"`

	// ProjectID links the task to its parent project, if any.
	ProjectID *string `json:"project_id,omitempty" db:"project_id"`

	// DateCheckedAt is the last time date conditions were evaluated for
	// this task and a notification possibly emitted. It suppresses
	// repeat notifications within the same calendar day.
	DateCheckedAt *time.Time `json:"date_checked_at,omitempty" db:"date_checked_at"`

	// Deleted marks the task as soft-deleted.
	Deleted bool `json:"deleted" db:"deleted"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Reminders is populated by queries that join with reminders.
	Reminders []Reminder `json:"reminders,omitempty" db:"-"`
}

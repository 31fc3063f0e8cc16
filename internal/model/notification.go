package model

import "time"

// Notification categories. Each maps to a user preference flag.
const (
	CategoryTask      = "task"
	CategoryProject   = "project"
	CategoryReminder  = "reminder"
	CategoryTeam      = "team"
	CategoryDateCheck = "date_check"
)

// Check types disambiguating which date condition produced a
// date-check notification.
const (
	CheckStartDate  = "start_date"
	CheckEndDate    = "end_date"
	CheckCompletion = "completion"
)

// Notification is a persisted alert surfaced to a single user.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// UserID is the recipient.
	UserID string `json:"user_id" db:"user_id"`

	// Type is the notification category (use Category* constants).
	Type string `json:"type" db:"type"`

	// CheckType identifies the date condition for date-check
	// notifications (use Check* constants); empty otherwise.
	CheckType string `json:"check_type,omitempty" db:"check_type"`

	// TaskID links the notification to a task, if any.
	TaskID *string `json:"task_id,omitempty" db:"task_id"`

	// ProjectID links the notification to a project, if any.
	ProjectID *string `json:"project_id,omitempty" db:"project_id"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	// Deleted marks the notification as soft-deleted.
	Deleted bool `json:"deleted" db:"deleted"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CategoryForCheck maps a check type to its preference category.
// Date-condition checks share the CategoryDateCheck flag.
func CategoryForCheck(checkType string) string {
	switch checkType {
	case CheckStartDate, CheckEndDate, CheckCompletion:
		return CategoryDateCheck
	default:
		return checkType
	}
}

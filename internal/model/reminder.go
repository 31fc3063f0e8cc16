package model

import "time"

// Reminder offset types for reminders scheduled relative to a task date.
const (
	ReminderBeforeStart = "before_start"
	ReminderBeforeEnd   = "before_end"
)

// Reminder offset units.
const (
	UnitMinute = "minute"
	UnitHour   = "hour"
	UnitDay    = "day"
)

// Reminder is a single scheduled alert attached to a task. Exactly one
// of ScheduledAt (absolute) or OffsetType+Amount+Unit (relative to the
// task's start or end date) is populated.
type Reminder struct {
	// ID is the unique identifier for this reminder.
	ID string `json:"id" db:"id"`

	// TaskID links this reminder to its task.
	TaskID string `json:"task_id" db:"task_id"`

	// ScheduledAt is the absolute trigger instant, if set.
	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`

	// OffsetType is ReminderBeforeStart or ReminderBeforeEnd for
	// relative reminders, empty for absolute ones.
	OffsetType string `json:"offset_type,omitempty" db:"offset_type"`

	// Amount is the number of Units before the reference date.
	Amount int `json:"amount,omitempty" db:"amount"`

	// Unit is one of the Unit* constants.
	Unit string `json:"unit,omitempty" db:"unit"`

	// Sent records that this reminder has fired. Once true the
	// reminder never fires again.
	Sent bool `json:"sent" db:"sent"`

	// SentAt is when the reminder fired.
	SentAt *time.Time `json:"sent_at,omitempty" db:"sent_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TriggerAt computes the instant this reminder should fire, given the
// owning task's start and end dates. The second return value is false
// when the reminder is malformed (neither absolute nor a recognizable
// relative offset).
func (r Reminder) TriggerAt(start, end time.Time) (time.Time, bool) {
	if r.ScheduledAt != nil {
		return *r.ScheduledAt, true
	}

	var ref time.Time
	switch r.OffsetType {
	case ReminderBeforeStart:
		ref = start
	case ReminderBeforeEnd:
		ref = end
	default:
		return time.Time{}, false
	}

	var d time.Duration
	switch r.Unit {
	case UnitMinute:
		d = time.Duration(r.Amount) * time.Minute
	case UnitHour:
		d = time.Duration(r.Amount) * time.Hour
	case UnitDay:
		d = time.Duration(r.Amount) * 24 * time.Hour
	default:
		return time.Time{}, false
	}

	return ref.Add(-d), true
}

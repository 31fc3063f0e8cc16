package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/taskwatch/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	Status     *string
	AssigneeID *string
	CreatorID  *string
	TeamID     *string
	ProjectID  *string
	Query      *string // search title + description
	SortBy     string  // "start_date", "end_date", "created_at", "updated_at", "title"
	SortDesc   bool
	Limit      int
	Offset     int
}

// Store defines the persistence interface for tasks, projects,
// reminders, notifications, preference bags, and team membership.
type Store interface {
	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)

	// ListCandidateTasks returns the non-deleted, non-completed tasks a
	// date-check scan for userID must evaluate: tasks assigned to the
	// user, plus unassigned team tasks the user created.
	ListCandidateTasks(ctx context.Context, userID string) ([]model.Task, error)

	SetTaskStatus(ctx context.Context, id, status string) error
	SetTaskEndDate(ctx context.Context, id string, end time.Time) error
	SetTaskDateChecked(ctx context.Context, id string, at time.Time) error
	DeleteTask(ctx context.Context, id string) error

	// === Projects ===

	CreateProject(ctx context.Context, project model.Project) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)

	// ListProjectsForUser returns the non-deleted projects visible to
	// userID: owned, assigned, or belonging to one of teamIDs.
	ListProjectsForUser(ctx context.Context, userID string, teamIDs []string) ([]model.Project, error)

	SetProjectStatus(ctx context.Context, id, status string) error
	SetProjectEndDate(ctx context.Context, id string, end time.Time) error
	SetProjectDateChecked(ctx context.Context, id string, at time.Time) error

	// CountIncompleteTasks returns how many non-deleted child tasks of
	// the project are not yet completed.
	CountIncompleteTasks(ctx context.Context, projectID string) (int, error)

	// RecomputeProjectCompletion rederives the project's completion
	// rate from its child tasks, persists it, and returns the new rate.
	// A project with no child tasks has rate 0.
	RecomputeProjectCompletion(ctx context.Context, projectID string) (int, error)

	// === Reminders ===

	AddReminder(ctx context.Context, r model.Reminder) error
	GetRemindersForTask(ctx context.Context, taskID string) ([]model.Reminder, error)

	// ListTasksWithUnsentReminders returns non-deleted, non-completed
	// tasks that have at least one unsent reminder, with only those
	// unsent reminders populated.
	ListTasksWithUnsentReminders(ctx context.Context) ([]model.Task, error)

	MarkReminderSent(ctx context.Context, id string, at time.Time) error

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) (string, error)
	GetUnreadNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// === Preferences ===

	GetPreferences(ctx context.Context, userID string) (model.Preferences, error)
	SavePreferences(ctx context.Context, p model.Preferences) error

	// === Teams ===

	AddTeamMember(ctx context.Context, teamID, userID string) error
	GetTeamMemberIDs(ctx context.Context, teamID string) ([]string, error)
}

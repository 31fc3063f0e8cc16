package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/taskwatch/internal/check"
	"github.com/nhle/taskwatch/internal/model"
	"github.com/nhle/taskwatch/internal/store"
)

// Ledger creates the persisted notification records behind detected
// conditions. De-duplication is driven by the entity's date_checked_at
// watermark, not by querying existing notifications: once a condition
// has produced a notification and the watermark has been advanced,
// further scans the same calendar day create nothing for that entity.
type Ledger struct {
	store  store.Store
	filter *Filter
	log    zerolog.Logger
}

// NewLedger creates a Ledger backed by the given store and filter.
func NewLedger(s store.Store, f *Filter, log zerolog.Logger) *Ledger {
	return &Ledger{store: s, filter: f, log: log}
}

// RecordTaskCondition creates a notification for a task condition if
// the watermark and the recipient's preferences permit it. It returns
// the new notification's ID, or "" when creation was skipped.
func (l *Ledger) RecordTaskCondition(
	ctx context.Context,
	t model.Task,
	checkType string,
	actingUserID string,
	now time.Time,
) (string, error) {
	if t.DateCheckedAt != nil && check.SameDay(*t.DateCheckedAt, now) {
		l.log.Debug().Str("task_id", t.ID).Str("check_type", checkType).
			Msg("task already checked today, skipping")
		return "", nil
	}

	recipient := taskRecipient(t, actingUserID)

	allowed, err := l.filter.Allows(ctx, recipient, model.CategoryForCheck(checkType), checkType)
	if err != nil {
		return "", fmt.Errorf("filtering task notification: %w", err)
	}
	if !allowed {
		l.log.Debug().Str("task_id", t.ID).Str("user_id", recipient).
			Str("check_type", checkType).Msg("notification disabled by preferences")
		return "", nil
	}

	id, err := l.store.CreateNotification(ctx, model.Notification{
		UserID:    recipient,
		Type:      model.CategoryDateCheck,
		CheckType: checkType,
		TaskID:    &t.ID,
		Message:   taskMessage(t, checkType),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("recording task condition: %w", err)
	}

	return id, nil
}

// RecordProjectCondition creates a notification for a project condition
// if the watermark and the recipient's preferences permit it. It
// returns the new notification's ID, or "" when creation was skipped.
func (l *Ledger) RecordProjectCondition(
	ctx context.Context,
	p model.Project,
	checkType string,
	actingUserID string,
	now time.Time,
) (string, error) {
	if p.DateCheckedAt != nil && check.SameDay(*p.DateCheckedAt, now) {
		l.log.Debug().Str("project_id", p.ID).Str("check_type", checkType).
			Msg("project already checked today, skipping")
		return "", nil
	}

	recipient := projectRecipient(p, actingUserID)

	allowed, err := l.filter.Allows(ctx, recipient, model.CategoryForCheck(checkType), checkType)
	if err != nil {
		return "", fmt.Errorf("filtering project notification: %w", err)
	}
	if !allowed {
		l.log.Debug().Str("project_id", p.ID).Str("user_id", recipient).
			Str("check_type", checkType).Msg("notification disabled by preferences")
		return "", nil
	}

	id, err := l.store.CreateNotification(ctx, model.Notification{
		UserID:    recipient,
		Type:      model.CategoryDateCheck,
		CheckType: checkType,
		ProjectID: &p.ID,
		Message:   projectMessage(p, checkType),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("recording project condition: %w", err)
	}

	return id, nil
}

// NotifyReminder creates a notification for a firing reminder,
// addressed to the task's assignee (falling back to the creator) and
// subject to the reminder preference flag. It returns the new
// notification's ID, or "" when skipped.
func (l *Ledger) NotifyReminder(
	ctx context.Context,
	t model.Task,
	r model.Reminder,
	now time.Time,
) (string, error) {
	recipient := t.CreatorID
	if t.AssigneeID != nil {
		recipient = *t.AssigneeID
	}

	allowed, err := l.filter.Allows(ctx, recipient, model.CategoryReminder, "")
	if err != nil {
		return "", fmt.Errorf("filtering reminder notification: %w", err)
	}
	if !allowed {
		l.log.Debug().Str("task_id", t.ID).Str("user_id", recipient).
			Msg("reminder disabled by preferences")
		return "", nil
	}

	id, err := l.store.CreateNotification(ctx, model.Notification{
		UserID:    recipient,
		Type:      model.CategoryReminder,
		TaskID:    &t.ID,
		Message:   reminderMessage(t, r),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("recording reminder: %w", err)
	}

	return id, nil
}

// NotifyTeam creates a team notification for every member of teamID
// except exceptUserID, subject to each member's team preference flag.
// It returns how many notifications were created. Per-member failures
// are logged and skipped so one member never blocks the rest.
func (l *Ledger) NotifyTeam(
	ctx context.Context,
	teamID, exceptUserID string,
	projectID *string,
	message string,
	now time.Time,
) (int, error) {
	members, err := l.store.GetTeamMemberIDs(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("notifying team %s: %w", teamID, err)
	}

	created := 0
	for _, member := range members {
		if member == exceptUserID {
			continue
		}

		allowed, err := l.filter.Allows(ctx, member, model.CategoryTeam, "")
		if err != nil {
			l.log.Error().Err(err).Str("user_id", member).Msg("filtering team notification")
			continue
		}
		if !allowed {
			continue
		}

		_, err = l.store.CreateNotification(ctx, model.Notification{
			UserID:    member,
			Type:      model.CategoryTeam,
			ProjectID: projectID,
			Message:   message,
			CreatedAt: now,
		})
		if err != nil {
			l.log.Error().Err(err).Str("user_id", member).Msg("creating team notification")
			continue
		}
		created++
	}

	return created, nil
}

// AdvanceTaskWatermark records that date conditions for a task were
// surfaced, suppressing further notifications for it this calendar day.
func (l *Ledger) AdvanceTaskWatermark(ctx context.Context, taskID string, now time.Time) error {
	if err := l.store.SetTaskDateChecked(ctx, taskID, now); err != nil {
		return fmt.Errorf("advancing task watermark: %w", err)
	}
	return nil
}

// AdvanceProjectWatermark records that date conditions for a project
// were surfaced.
func (l *Ledger) AdvanceProjectWatermark(ctx context.Context, projectID string, now time.Time) error {
	if err := l.store.SetProjectDateChecked(ctx, projectID, now); err != nil {
		return fmt.Errorf("advancing project watermark: %w", err)
	}
	return nil
}

// taskRecipient resolves who a task notification should go to: the
// assignee when set, the creator for unassigned team tasks, and the
// acting user for unassigned personal tasks.
func taskRecipient(t model.Task, actingUserID string) string {
	if t.AssigneeID != nil {
		return *t.AssigneeID
	}
	if t.TeamID != nil {
		return t.CreatorID
	}
	return actingUserID
}

// projectRecipient resolves who a project notification should go to,
// mirroring taskRecipient with the owner in place of the creator.
func projectRecipient(p model.Project, actingUserID string) string {
	if p.AssigneeID != nil {
		return *p.AssigneeID
	}
	if p.TeamID != nil {
		return p.OwnerID
	}
	return actingUserID
}

// reminderMessage renders the user-facing text for a firing reminder,
// anchored to the date the reminder was set against.
func reminderMessage(t model.Task, r model.Reminder) string {
	switch {
	case r.ScheduledAt != nil:
		return fmt.Sprintf("Reminder: %q (set for %s).",
			t.Title, r.ScheduledAt.Format("2006-01-02 15:04"))
	case r.OffsetType == model.ReminderBeforeStart:
		return fmt.Sprintf("Reminder: %q starts %s.",
			t.Title, t.StartDate.Format("2006-01-02 15:04"))
	default:
		return fmt.Sprintf("Reminder: %q is due %s.",
			t.Title, t.EndDate.Format("2006-01-02 15:04"))
	}
}

// taskMessage renders the user-facing text for a task condition.
func taskMessage(t model.Task, checkType string) string {
	switch checkType {
	case model.CheckStartDate:
		return fmt.Sprintf("Task %q was scheduled to start on %s but has not been started.",
			t.Title, t.StartDate.Format("2006-01-02"))
	case model.CheckEndDate:
		return fmt.Sprintf("Task %q was due on %s but is not completed.",
			t.Title, t.EndDate.Format("2006-01-02"))
	default:
		return fmt.Sprintf("Task %q needs attention.", t.Title)
	}
}

// projectMessage renders the user-facing text for a project condition.
func projectMessage(p model.Project, checkType string) string {
	switch checkType {
	case model.CheckEndDate:
		return fmt.Sprintf("Project %q was due on %s but is not completed.",
			p.Name, p.EndDate.Format("2006-01-02"))
	case model.CheckCompletion:
		return fmt.Sprintf("All tasks in project %q are complete. Mark the project as completed?",
			p.Name)
	default:
		return fmt.Sprintf("Project %q needs attention.", p.Name)
	}
}

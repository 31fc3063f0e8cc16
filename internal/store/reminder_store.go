package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskwatch/internal/model"
)

// AddReminder inserts a new reminder for a task. Exactly one of
// ScheduledAt or OffsetType+Amount+Unit must be populated.
func (s *SQLiteStore) AddReminder(ctx context.Context, r model.Reminder) error {
	absolute := r.ScheduledAt != nil
	relative := r.OffsetType != ""
	if absolute == relative {
		return fmt.Errorf("reminder must be either absolute or relative, not both or neither")
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (
			id, task_id, scheduled_at, offset_type, amount, unit,
			sent, sent_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.TaskID, r.ScheduledAt, r.OffsetType, r.Amount, r.Unit,
		boolToInt(r.Sent), r.SentAt, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("adding reminder: %w", err)
	}
	return nil
}

// GetRemindersForTask returns all reminders for a task, oldest first.
func (s *SQLiteStore) GetRemindersForTask(
	ctx context.Context,
	taskID string,
) ([]model.Reminder, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM reminders WHERE task_id = ? ORDER BY created_at",
		taskID)
	if err != nil {
		return nil, fmt.Errorf("querying reminders: %w", err)
	}
	defer rows.Close()

	var reminders []model.Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// ListTasksWithUnsentReminders returns non-deleted, non-completed tasks
// that have at least one unsent reminder, with only those unsent
// reminders populated.
func (s *SQLiteStore) ListTasksWithUnsentReminders(
	ctx context.Context,
) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT DISTINCT tasks.* FROM tasks
		INNER JOIN reminders ON reminders.task_id = tasks.id
		WHERE tasks.deleted = 0 AND tasks.status != ? AND reminders.sent = 0
		ORDER BY tasks.end_date ASC`,
		model.StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks with unsent reminders: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		reminderRows, err := s.db.QueryxContext(ctx,
			"SELECT * FROM reminders WHERE task_id = ? AND sent = 0 ORDER BY created_at",
			tasks[i].ID)
		if err != nil {
			return nil, fmt.Errorf("querying unsent reminders for task %s: %w", tasks[i].ID, err)
		}
		for reminderRows.Next() {
			r, err := scanReminder(reminderRows)
			if err != nil {
				reminderRows.Close()
				return nil, err
			}
			tasks[i].Reminders = append(tasks[i].Reminders, r)
		}
		if err := reminderRows.Err(); err != nil {
			reminderRows.Close()
			return nil, err
		}
		reminderRows.Close()
	}

	return tasks, nil
}

// MarkReminderSent records that a reminder fired. Sent is terminal:
// a reminder already marked sent is never updated again.
func (s *SQLiteStore) MarkReminderSent(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE reminders SET sent = 1, sent_at = ? WHERE id = ? AND sent = 0",
		at, id,
	)
	if err != nil {
		return fmt.Errorf("marking reminder %s sent: %w", id, err)
	}
	return requireRow(result, "reminder", id)
}

// scanReminder scans a reminder row from sqlx.Rows.
func scanReminder(row interface{ Scan(dest ...interface{}) error }) (model.Reminder, error) {
	var (
		r           model.Reminder
		scheduledAt *time.Time
		sentInt     int
		sentAt      *time.Time
	)

	err := row.Scan(
		&r.ID, &r.TaskID, &scheduledAt, &r.OffsetType, &r.Amount, &r.Unit,
		&sentInt, &sentAt, &r.CreatedAt,
	)
	if err != nil {
		return model.Reminder{}, fmt.Errorf("scanning reminder row: %w", err)
	}

	r.ScheduledAt = scheduledAt
	r.Sent = sentInt != 0
	r.SentAt = sentAt

	return r, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskwatch/internal/model"
)

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.StatusNotStarted
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, title, description, status,
			start_date, end_date,
			assignee_id, creator_id, team_id, project_id,
			date_checked_at, deleted, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Description, task.Status,
		task.StartDate, task.EndDate,
		task.AssigneeID, task.CreatorID, task.TeamID, task.ProjectID,
		task.DateCheckedAt, boolToInt(task.Deleted), task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID, including its reminders.
func (s *SQLiteStore) GetTaskByID(
	ctx context.Context,
	id string,
) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	reminders, err := s.GetRemindersForTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading reminders for task %s: %w", id, err)
	}
	task.Reminders = reminders

	return &task, nil
}

// GetTasks retrieves non-deleted tasks matching the filter.
func (s *SQLiteStore) GetTasks(
	ctx context.Context,
	filter TaskFilter,
) ([]model.Task, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "deleted = 0")

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, "assignee_id = ?")
		args = append(args, *filter.AssigneeID)
	}
	if filter.CreatorID != nil {
		conditions = append(conditions, "creator_id = ?")
		args = append(args, *filter.CreatorID)
	}
	if filter.TeamID != nil {
		conditions = append(conditions, "team_id = ?")
		args = append(args, *filter.TeamID)
	}
	if filter.ProjectID != nil {
		conditions = append(conditions, "project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM tasks WHERE " + strings.Join(conditions, " AND ")

	// Determine sort column.
	sortBy := "end_date"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"title":      true,
			"start_date": true,
			"end_date":   true,
			"created_at": true,
			"updated_at": true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
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

	return tasks, rows.Err()
}

// ListCandidateTasks returns the tasks a date-check scan for userID
// must evaluate: non-deleted, non-completed tasks either assigned to
// the user or unassigned team tasks the user created.
func (s *SQLiteStore) ListCandidateTasks(
	ctx context.Context,
	userID string,
) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM tasks
		WHERE deleted = 0
		  AND status != ?
		  AND (
			assignee_id = ?
			OR (team_id IS NOT NULL AND assignee_id IS NULL AND creator_id = ?)
		  )
		ORDER BY end_date ASC`,
		model.StatusCompleted, userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying candidate tasks: %w", err)
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

	return tasks, rows.Err()
}

// SetTaskStatus updates the status of a task.
func (s *SQLiteStore) SetTaskStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting status for task %s: %w", id, err)
	}
	return requireRow(result, "task", id)
}

// SetTaskEndDate updates the end date of a task.
func (s *SQLiteStore) SetTaskEndDate(
	ctx context.Context,
	id string,
	end time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET end_date = ?, updated_at = ? WHERE id = ?",
		end, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting end date for task %s: %w", id, err)
	}
	return requireRow(result, "task", id)
}

// SetTaskDateChecked advances the date-check watermark for a task.
func (s *SQLiteStore) SetTaskDateChecked(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET date_checked_at = ? WHERE id = ?",
		at, id,
	)
	if err != nil {
		return fmt.Errorf("setting date_checked_at for task %s: %w", id, err)
	}
	return requireRow(result, "task", id)
}

// DeleteTask soft-deletes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET deleted = 1, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return requireRow(result, "task", id)
}

// requireRow converts a zero-rows-affected result into ErrNotFound.
func requireRow(result sql.Result, kind, id string) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}

// scanTask scans a task row from sqlx.Rows or sqlx.Row.
func scanTask(row interface{ Scan(dest ...interface{}) error }) (model.Task, error) {
	var (
		task          model.Task
		assigneeID    *string
		teamID        *string
		projectID     *string
		dateCheckedAt *time.Time
		deletedInt    int
	)

	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Status,
		&task.StartDate, &task.EndDate,
		&assigneeID, &task.CreatorID, &teamID, &projectID,
		&dateCheckedAt, &deletedInt, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, err
		}
		return model.Task{}, fmt.Errorf("scanning task row: %w", err)
	}

	task.AssigneeID = assigneeID
	task.TeamID = teamID
	task.ProjectID = projectID
	task.DateCheckedAt = dateCheckedAt
	task.Deleted = deletedInt != 0

	return task, nil
}

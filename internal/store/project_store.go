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

// CreateProject inserts a new project. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Name) == "" {
		return fmt.Errorf("project name must not be empty")
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now
	if project.Status == "" {
		project.Status = model.StatusNotStarted
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (
			id, name, description, status,
			start_date, end_date, completion_rate,
			owner_id, assignee_id, team_id,
			date_checked_at, deleted, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Name, project.Description, project.Status,
		project.StartDate, project.EndDate, project.CompletionRate,
		project.OwnerID, project.AssigneeID, project.TeamID,
		project.DateCheckedAt, boolToInt(project.Deleted),
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating project: %w", err)
	}
	return nil
}

// GetProjectByID retrieves a single project by ID.
func (s *SQLiteStore) GetProjectByID(
	ctx context.Context,
	id string,
) (*model.Project, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM projects WHERE id = ?", id)

	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting project %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}

	return &project, nil
}

// ListProjectsForUser returns the non-deleted projects visible to
// userID: owned, assigned, or belonging to one of teamIDs.
func (s *SQLiteStore) ListProjectsForUser(
	ctx context.Context,
	userID string,
	teamIDs []string,
) ([]model.Project, error) {
	conditions := []string{"owner_id = ?", "assignee_id = ?"}
	args := []interface{}{userID, userID}

	if len(teamIDs) > 0 {
		placeholders := make([]string, len(teamIDs))
		for i, id := range teamIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions,
			"team_id IN ("+strings.Join(placeholders, ", ")+")")
	}

	query := `
		SELECT * FROM projects
		WHERE deleted = 0 AND (` + strings.Join(conditions, " OR ") + `)
		ORDER BY end_date ASC`

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects for user %s: %w", userID, err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	return projects, rows.Err()
}

// SetProjectStatus updates the status of a project.
func (s *SQLiteStore) SetProjectStatus(ctx context.Context, id, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting status for project %s: %w", id, err)
	}
	return requireRow(result, "project", id)
}

// SetProjectEndDate updates the end date of a project.
func (s *SQLiteStore) SetProjectEndDate(
	ctx context.Context,
	id string,
	end time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET end_date = ?, updated_at = ? WHERE id = ?",
		end, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting end date for project %s: %w", id, err)
	}
	return requireRow(result, "project", id)
}

// SetProjectDateChecked advances the date-check watermark for a project.
func (s *SQLiteStore) SetProjectDateChecked(
	ctx context.Context,
	id string,
	at time.Time,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET date_checked_at = ? WHERE id = ?",
		at, id,
	)
	if err != nil {
		return fmt.Errorf("setting date_checked_at for project %s: %w", id, err)
	}
	return requireRow(result, "project", id)
}

// CountIncompleteTasks returns how many non-deleted child tasks of the
// project are not yet completed.
func (s *SQLiteStore) CountIncompleteTasks(
	ctx context.Context,
	projectID string,
) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM tasks
		WHERE project_id = ? AND deleted = 0 AND status != ?`,
		projectID, model.StatusCompleted,
	)
	if err != nil {
		return 0, fmt.Errorf("counting incomplete tasks for project %s: %w", projectID, err)
	}
	return count, nil
}

// RecomputeProjectCompletion rederives the project's completion rate
// from its child tasks, persists it, and returns the new rate.
func (s *SQLiteStore) RecomputeProjectCompletion(
	ctx context.Context,
	projectID string,
) (int, error) {
	var total, done int
	err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM tasks WHERE project_id = ? AND deleted = 0",
		projectID,
	)
	if err != nil {
		return 0, fmt.Errorf("counting tasks for project %s: %w", projectID, err)
	}

	rate := 0
	if total > 0 {
		err = s.db.GetContext(ctx, &done, `
			SELECT COUNT(*) FROM tasks
			WHERE project_id = ? AND deleted = 0 AND status = ?`,
			projectID, model.StatusCompleted,
		)
		if err != nil {
			return 0, fmt.Errorf("counting completed tasks for project %s: %w", projectID, err)
		}
		rate = done * 100 / total
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET completion_rate = ?, updated_at = ? WHERE id = ?",
		rate, time.Now().UTC(), projectID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating completion rate for project %s: %w", projectID, err)
	}
	if err := requireRow(result, "project", projectID); err != nil {
		return 0, err
	}

	return rate, nil
}

// scanProject scans a project row from sqlx.Rows or sqlx.Row.
func scanProject(row interface{ Scan(dest ...interface{}) error }) (model.Project, error) {
	var (
		project       model.Project
		assigneeID    *string
		teamID        *string
		dateCheckedAt *time.Time
		deletedInt    int
	)

	err := row.Scan(
		&project.ID, &project.Name, &project.Description, &project.Status,
		&project.StartDate, &project.EndDate, &project.CompletionRate,
		&project.OwnerID, &assigneeID, &teamID,
		&dateCheckedAt, &deletedInt, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Project{}, err
		}
		return model.Project{}, fmt.Errorf("scanning project row: %w", err)
	}

	project.AssigneeID = assigneeID
	project.TeamID = teamID
	project.DateCheckedAt = dateCheckedAt
	project.Deleted = deletedInt != 0

	return project, nil
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskwatch/internal/model"
)

// CreateNotification inserts a new notification record and returns its ID.
func (s *SQLiteStore) CreateNotification(
	ctx context.Context,
	n model.Notification,
) (string, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (
			id, user_id, type, check_type, task_id, project_id,
			message, read, deleted, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.UserID, n.Type, n.CheckType, n.TaskID, n.ProjectID,
		n.Message, boolToInt(n.Read), boolToInt(n.Deleted), n.CreatedAt.UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("creating notification: %w", err)
	}

	return n.ID, nil
}

// GetUnreadNotifications retrieves a user's unread, non-deleted
// notifications, newest first.
func (s *SQLiteStore) GetUnreadNotifications(
	ctx context.Context,
	userID string,
) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM notifications
		WHERE user_id = ? AND read = 0 AND deleted = 0
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(
	ctx context.Context,
	id string,
) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return requireRow(result, "notification", id)
}

// GetPreferences loads a user's notification preference bag. A missing
// row yields an empty bag, in which every flag defaults to enabled.
func (s *SQLiteStore) GetPreferences(
	ctx context.Context,
	userID string,
) (model.Preferences, error) {
	prefs := model.Preferences{UserID: userID}

	var raw string
	err := s.db.GetContext(ctx, &raw,
		"SELECT prefs FROM user_prefs WHERE user_id = ?", userID)
	if err != nil {
		if isNoRows(err) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("loading preferences for user %s: %w", userID, err)
	}

	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
			return prefs, fmt.Errorf("unmarshaling preferences for user %s: %w", userID, err)
		}
	}
	prefs.UserID = userID

	return prefs, nil
}

// SavePreferences persists a user's notification preference bag.
func (s *SQLiteStore) SavePreferences(
	ctx context.Context,
	p model.Preferences,
) error {
	if p.UserID == "" {
		return fmt.Errorf("preferences user id must not be empty")
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_prefs (user_id, prefs, updated_at)
		VALUES (?, ?, ?)`,
		p.UserID, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving preferences for user %s: %w", p.UserID, err)
	}

	return nil
}

// scanNotification scans a notification row from sqlx.Rows.
func scanNotification(row interface{ Scan(dest ...interface{}) error }) (model.Notification, error) {
	var (
		n          model.Notification
		taskID     *string
		projectID  *string
		readInt    int
		deletedInt int
	)

	err := row.Scan(
		&n.ID, &n.UserID, &n.Type, &n.CheckType, &taskID, &projectID,
		&n.Message, &readInt, &deletedInt, &n.CreatedAt,
	)
	if err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.TaskID = taskID
	n.ProjectID = projectID
	n.Read = readInt != 0
	n.Deleted = deletedInt != 0

	return n, nil
}

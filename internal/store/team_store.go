package store

import (
	"context"
	"fmt"
)

// AddTeamMember records that userID belongs to teamID. Adding an
// existing membership is a no-op.
func (s *SQLiteStore) AddTeamMember(ctx context.Context, teamID, userID string) error {
	if teamID == "" || userID == "" {
		return fmt.Errorf("team id and user id must not be empty")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO team_members (team_id, user_id) VALUES (?, ?)",
		teamID, userID,
	)
	if err != nil {
		return fmt.Errorf("adding member %s to team %s: %w", userID, teamID, err)
	}
	return nil
}

// GetTeamMemberIDs returns the user IDs belonging to a team.
func (s *SQLiteStore) GetTeamMemberIDs(
	ctx context.Context,
	teamID string,
) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		"SELECT user_id FROM team_members WHERE team_id = ? ORDER BY user_id",
		teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying members of team %s: %w", teamID, err)
	}
	return ids, nil
}

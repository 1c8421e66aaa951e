package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// InsertActivity appends an entry to the group's activity feed.
func (q *queries) InsertActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	_, err := q.exec(ctx,
		`INSERT INTO activities (id, group_id, created_at, activity_type, participant_id, expense_id, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.GroupID, a.Time, string(a.Type), nullString(a.ParticipantID), nullString(a.ExpenseID), a.Data,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns a group's activity feed, newest first.
func (q *queries) ListActivities(ctx context.Context, groupID string, opts storage.ListOptions) ([]*models.Activity, error) {
	limit, limitArgs := q.limitClause(opts)
	rows, err := q.query(ctx,
		`SELECT id, group_id, created_at, activity_type, participant_id, expense_id, data
		FROM activities WHERE group_id = ? ORDER BY created_at DESC, id DESC`+limit,
		append([]any{groupID}, limitArgs...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var (
			a             models.Activity
			participantID sql.NullString
			expenseID     sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.GroupID, &a.Time, &a.Type, &participantID, &expenseID, &a.Data); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.ParticipantID = stringPtr(participantID)
		a.ExpenseID = stringPtr(expenseID)
		activities = append(activities, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}

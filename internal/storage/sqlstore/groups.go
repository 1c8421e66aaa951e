package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/dbx"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// CreateGroup persists a new group with its participants.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate IDs if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	for i := range group.Participants {
		if group.Participants[i].ID == "" {
			group.Participants[i].ID = uuid.New().String()
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, dbtx dbx.DBTX) error {
		q := queries{db: dbtx, dialect: s.dialect}

		_, err := q.exec(ctx,
			"INSERT INTO groups (id, name, currency, created_at) VALUES (?, ?, ?, ?)",
			group.ID, group.Name, group.Currency, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}
		return q.upsertParticipants(ctx, group)
	})
}

func (q *queries) upsertParticipants(ctx context.Context, group *models.Group) error {
	for i, p := range group.Participants {
		_, err := q.exec(ctx,
			`INSERT INTO participants (id, group_id, name, position) VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET name = excluded.name, position = excluded.position`,
			p.ID, group.ID, p.Name, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// GetGroup retrieves a group by ID, including its participants in order.
func (q *queries) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := q.queryRow(ctx,
		"SELECT id, name, currency, created_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if group.Participants, err = q.participants(ctx, groupID); err != nil {
		return nil, err
	}
	return group, nil
}

func (q *queries) participants(ctx context.Context, groupID string) ([]models.Participant, error) {
	rows, err := q.query(ctx,
		"SELECT id, name FROM participants WHERE group_id = ? ORDER BY position",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// ListGroups returns every group, newest first.
func (q *queries) ListGroups(ctx context.Context) ([]*models.Group, error) {
	rows, err := q.query(ctx,
		"SELECT id, name, currency, created_at FROM groups ORDER BY created_at DESC, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.Currency, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	for _, g := range groups {
		if g.Participants, err = q.participants(ctx, g.ID); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// UpdateGroup replaces the group's name, currency and participants.
func (q *queries) UpdateGroup(ctx context.Context, group *models.Group) error {
	res, err := q.exec(ctx,
		"UPDATE groups SET name = ?, currency = ? WHERE id = ?",
		group.Name, group.Currency, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrNotFound)
	}

	existing, err := q.participants(ctx, group.ID)
	if err != nil {
		return err
	}
	for i := range group.Participants {
		if group.Participants[i].ID == "" {
			group.Participants[i].ID = uuid.New().String()
		}
	}
	for _, p := range existing {
		kept := slices.ContainsFunc(group.Participants, func(np models.Participant) bool { return np.ID == p.ID })
		if kept {
			continue
		}
		if _, err := q.exec(ctx, "DELETE FROM participants WHERE id = ?", p.ID); err != nil {
			return fmt.Errorf("failed to delete participant: %w", err)
		}
	}
	return q.upsertParticipants(ctx, group)
}

// ExpenseParticipants returns every participant referenced by the group's expense rows.
func (q *queries) ExpenseParticipants(ctx context.Context, groupID string) ([]string, error) {
	rows, err := q.query(ctx, `
		SELECT paid_by FROM expenses WHERE group_id = ?
		UNION
		SELECT created_by FROM expenses WHERE group_id = ? AND created_by IS NOT NULL
		UNION
		SELECT pf.participant_id FROM expense_paid_for pf
			JOIN expenses e ON e.id = pf.expense_id
			WHERE e.group_id = ?
		ORDER BY 1`,
		groupID, groupID, groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expense participants: %w", err)
	}
	ids, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expense participants: %w", err)
	}
	return ids, nil
}

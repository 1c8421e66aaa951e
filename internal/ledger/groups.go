package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// UpdateGroup replaces the name, currency and participants of group.ID.
//
// Participants without an ID are added. Existing participants keep their ID
// and may be renamed. A participant can only be removed while no expense row
// of the group, live or historical, references it.
func (l *Ledger) UpdateGroup(ctx context.Context, group *models.Group, updatedBy string) (*models.Group, error) {
	updated := cloneGroup(group)
	var activity *models.Activity

	err := l.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		old, err := tx.GetGroup(ctx, updated.ID)
		if err != nil {
			return err
		}
		if updatedBy != "" && !old.HasParticipant(updatedBy) {
			return fmt.Errorf("%w: author %q is not a member of group %s", ErrInvalidParticipant, updatedBy, old.ID)
		}

		for i, p := range updated.Participants {
			if p.ID == "" {
				updated.Participants[i].ID = l.newID()
				continue
			}
			if !old.HasParticipant(p.ID) {
				return fmt.Errorf("%w: %q is not a member of group %s", ErrInvalidParticipant, p.ID, old.ID)
			}
		}

		var removed []string
		for _, p := range old.Participants {
			if !updated.HasParticipant(p.ID) {
				removed = append(removed, p.ID)
			}
		}
		if len(removed) > 0 {
			used, err := tx.ExpenseParticipants(ctx, old.ID)
			if err != nil {
				return err
			}
			for _, id := range removed {
				if slices.Contains(used, id) {
					return fmt.Errorf("%w: %s", ErrParticipantInUse, old.ParticipantName(id))
				}
			}
		}

		updated.CreatedAt = old.CreatedAt
		if err := tx.UpdateGroup(ctx, updated); err != nil {
			return err
		}
		activity = &models.Activity{
			ID:            l.newID(),
			GroupID:       updated.ID,
			Time:          l.now().UnixMilli(),
			Type:          models.ActivityUpdateGroup,
			ParticipantID: models.StringPtr(updatedBy),
			Data:          updated.Name,
		}
		return tx.InsertActivity(ctx, activity)
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("group update failed, retry: %w", err)
		}
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	l.publish(ctx, activity)
	return updated, nil
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.Participants = slices.Clone(g.Participants)
	return &c
}

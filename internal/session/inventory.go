package session

import (
	"context"
	"errors"

	"vaccine-escape/internal/game"
	"vaccine-escape/internal/store"
)

// AddItem puts a collectible into the shared inventory. Adding an id
// that is already present is a no-op: no write, no chat message.
func (c *Coordinator) AddItem(ctx context.Context, code string, item game.Item) (bool, error) {
	if item.ID == "" {
		return false, ErrInvalidItem
	}
	added := false
	_, _, err := c.mutateSession(ctx, code, func(st *game.SessionState) (bool, error) {
		if st.Ended() {
			return false, ErrSessionEnded
		}
		added = game.ApplyAddItem(st, item)
		return added, nil
	})
	if err != nil {
		return false, err
	}
	if added {
		c.systemMessage(ctx, code, "Item found: "+item.Name)
	}
	return added, nil
}

// RemoveItem filters the item out of the inventory. Removing an absent
// id is a no-op.
func (c *Coordinator) RemoveItem(ctx context.Context, code, itemID string) (bool, error) {
	removed := false
	_, _, err := c.mutateSession(ctx, code, func(st *game.SessionState) (bool, error) {
		if st.Ended() {
			return false, ErrSessionEnded
		}
		removed = game.ApplyRemoveItem(st, itemID)
		return removed, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// HasItem is a read-only lookup against the current row.
func (c *Coordinator) HasItem(ctx context.Context, code, itemID string) (bool, error) {
	row, err := c.store.GetSession(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, ErrSessionNotFound
		}
		return false, err
	}
	return row.State.HasItem(itemID), nil
}

package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/store"
)

// Connect marks a player live. Called on mount and on rejoin.
func (c *Coordinator) Connect(ctx context.Context, playerID string) error {
	now := time.Now()
	if err := c.store.SetPlayerConnected(ctx, playerID, true, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	p, err := c.store.GetPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	c.feed.Publish(changefeed.KindPlayerUpdated, p.SessionCode, 0, playerPayload(*p))
	return nil
}

// Heartbeat stamps last_seen only. A page-hide sends one of these, not
// a disconnect.
func (c *Coordinator) Heartbeat(ctx context.Context, playerID string) error {
	if err := c.store.TouchPlayer(ctx, playerID, time.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPlayerNotFound
		}
		return err
	}
	return nil
}

// Disconnect marks the player gone and, when it was the last connected
// one, tears the session down. Teardown is idempotent, so overlapping
// disconnect paths (unload + unmount, or a racing reaper) are
// tolerated.
func (c *Coordinator) Disconnect(ctx context.Context, playerID string) error {
	p, err := c.store.GetPlayer(ctx, playerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Session may already be gone; nothing left to do.
			return nil
		}
		return err
	}
	if err := c.store.SetPlayerConnected(ctx, playerID, false, time.Now()); err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	p.IsConnected = false
	c.feed.Publish(changefeed.KindPlayerDisconnected, p.SessionCode, 0, playerPayload(*p))

	remaining, err := c.store.CountConnectedPlayers(ctx, p.SessionCode)
	if err != nil {
		log.Warn().Err(err).Str("session", p.SessionCode).Msg("connected count failed after disconnect")
		return nil
	}
	if remaining == 0 {
		if err := c.teardown(ctx, p.SessionCode); err != nil {
			log.Warn().Err(err).Str("session", p.SessionCode).Msg("last-player teardown failed")
		}
	}
	return nil
}

// StartReaper sweeps for players whose tab died without an unload
// event: anyone still flagged connected whose last heartbeat is older
// than the staleness threshold gets disconnected, and sessions with no
// survivors are torn down.
func (c *Coordinator) StartReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.reapStale(ctx)
			}
		}
	}()
}

func (c *Coordinator) reapStale(ctx context.Context) {
	cutoff := time.Now().Add(-c.cfg.StaleAfter())
	stale, err := c.store.ListStaleConnected(ctx, cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("stale player sweep failed")
		return
	}
	for _, p := range stale {
		log.Info().Str("session", p.SessionCode).Str("player", p.ID).
			Time("last_seen", p.LastSeen).Msg("reaping stale player")
		if err := c.Disconnect(ctx, p.ID); err != nil {
			log.Warn().Err(err).Str("player", p.ID).Msg("stale disconnect failed")
		}
	}
}

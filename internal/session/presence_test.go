package session

import (
	"context"
	"testing"
	"time"

	"vaccine-escape/internal/game"
)

func TestHeartbeatTouchesLastSeenOnly(t *testing.T) {
	c, ms, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")
	_ = res

	ms.SetPlayerLastSeen("host-1", time.Now().Add(-time.Hour))

	if err := c.Heartbeat(ctx, "host-1"); err != nil {
		t.Fatalf("heartbeat: %v", err)
	}
	got, _ := c.store.GetPlayer(ctx, "host-1")
	if time.Since(got.LastSeen) > time.Minute {
		t.Fatalf("last_seen not refreshed: %v", got.LastSeen)
	}
	if !got.IsConnected {
		t.Fatal("heartbeat touched the connected flag")
	}

	if err := c.Heartbeat(ctx, "ghost"); err != ErrPlayerNotFound {
		t.Fatalf("unknown player heartbeat error = %v", err)
	}
}

func TestLastDisconnectTearsDown(t *testing.T) {
	c, ms, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")
	c.JoinSession(ctx, res.Code, "bob", "player-bob")
	c.JoinSession(ctx, res.Code, "eve", "player-eve")

	for _, id := range []string{"player-eve", "host-1"} {
		if err := c.Disconnect(ctx, id); err != nil {
			t.Fatalf("disconnect %s: %v", id, err)
		}
	}
	if calls := ms.CleanupCalls(res.Code); calls != 0 {
		t.Fatal("teardown fired while a player was still connected")
	}

	if err := c.Disconnect(ctx, "player-bob"); err != nil {
		t.Fatalf("last disconnect: %v", err)
	}
	if calls := ms.CleanupCalls(res.Code); calls != 1 {
		t.Fatalf("cleanup calls = %d, want 1", calls)
	}

	// Overlapping unload + unmount after teardown stays harmless.
	if err := c.Disconnect(ctx, "player-bob"); err != nil {
		t.Fatalf("post-teardown disconnect: %v", err)
	}
}

func TestReaperCollectsCrashedTabs(t *testing.T) {
	c, ms, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")
	c.JoinSession(ctx, res.Code, "bob", "player-bob")

	stale := time.Now().Add(-10 * c.cfg.StaleAfter())
	for _, id := range []string{"host-1", "player-bob"} {
		ms.SetPlayerLastSeen(id, stale)
	}

	c.reapStale(ctx)

	if calls := ms.CleanupCalls(res.Code); calls == 0 {
		t.Fatal("reaper never tore the session down")
	}
	if ms.HasSession(res.Code) {
		t.Fatal("stale session still present after sweep")
	}
}

func TestReaperSparesFreshPlayers(t *testing.T) {
	c, ms, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")

	c.reapStale(ctx)

	if !ms.HasSession(res.Code) {
		t.Fatal("reaper collected a live session")
	}
	snap, err := c.Snapshot(ctx, res.Code)
	if err != nil || snap.State.Status != game.StatusWaiting {
		t.Fatalf("session damaged by sweep: %v", err)
	}
}

package store_test

import (
	"context"
	"testing"
	"time"

	"vaccine-escape/internal/game"
	"vaccine-escape/internal/store"
	"vaccine-escape/internal/testutil"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	code := store.NewSessionCode()
	state := game.NewSessionState("host-1", 3600, game.DefaultContent())
	if err := st.CreateSession(ctx, code, state); err != nil {
		t.Fatalf("create session: %v", err)
	}

	row, err := st.GetSession(ctx, code)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if row.Revision != 0 {
		t.Fatalf("fresh revision = %d, want 0", row.Revision)
	}
	if row.State.Status != game.StatusWaiting || row.State.CurrentZone != game.Zone1 {
		t.Fatalf("unexpected state: %+v", row.State)
	}
	if row.State.DoorCodes[game.Zone2.Key()] == "" {
		t.Fatal("door codes did not round-trip")
	}

	next := row.State.Clone()
	game.ApplySolve(&next, game.PuzzleCaesar, game.DefaultContent())
	rev, err := st.UpdateSessionState(ctx, code, next, row.Revision)
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if rev != 1 {
		t.Fatalf("revision after update = %d, want 1", rev)
	}

	row, err = st.GetSession(ctx, code)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if !row.State.SolvedPuzzles[game.PuzzleCaesar] {
		t.Fatal("solve did not persist")
	}
}

func TestUpdateSessionStateRevisionConflict(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	code := store.NewSessionCode()
	state := game.NewSessionState("host-1", 3600, game.DefaultContent())
	if err := st.CreateSession(ctx, code, state); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := st.UpdateSessionState(ctx, code, state, 0); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if _, err := st.UpdateSessionState(ctx, code, state, 0); err != store.ErrRevisionConflict {
		t.Fatalf("stale update error = %v, want ErrRevisionConflict", err)
	}
}

func TestCleanupSessionIdempotent(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	code := store.NewSessionCode()
	state := game.NewSessionState("host-1", 3600, game.DefaultContent())
	if err := st.CreateSession(ctx, code, state); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := st.InsertPlayer(ctx, store.PlayerRow{
		ID: store.NewID(), SessionCode: code, Pseudo: "ana", IsHost: true,
		IsConnected: true, LastSeen: time.Now(),
	}); err != nil {
		t.Fatalf("insert player: %v", err)
	}
	if _, err := st.InsertChatMessage(ctx, store.ChatMessageRow{
		SessionCode: code, Type: store.ChatSystem, Body: "session created",
	}); err != nil {
		t.Fatalf("insert chat: %v", err)
	}

	if err := st.CleanupSession(ctx, code); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if err := st.CleanupSession(ctx, code); err != nil {
		t.Fatalf("second cleanup should be a no-op, got %v", err)
	}
	if _, err := st.GetSession(ctx, code); err != store.ErrNotFound {
		t.Fatalf("session still present after cleanup: %v", err)
	}
}

func TestPlayerPresenceQueries(t *testing.T) {
	st, cleanup := testutil.OpenTestStore(t)
	defer cleanup()
	ctx := context.Background()

	code := store.NewSessionCode()
	if err := st.CreateSession(ctx, code, game.NewSessionState("h", 3600, game.DefaultContent())); err != nil {
		t.Fatalf("create session: %v", err)
	}

	now := time.Now()
	stale := store.PlayerRow{ID: store.NewID(), SessionCode: code, Pseudo: "old", IsConnected: true, LastSeen: now.Add(-5 * time.Minute)}
	fresh := store.PlayerRow{ID: store.NewID(), SessionCode: code, Pseudo: "new", IsConnected: true, LastSeen: now}
	for _, p := range []store.PlayerRow{stale, fresh} {
		if err := st.InsertPlayer(ctx, p); err != nil {
			t.Fatalf("insert player: %v", err)
		}
	}

	got, err := st.ListStaleConnected(ctx, now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(got) != 1 || got[0].ID != stale.ID {
		t.Fatalf("stale list = %+v, want only %s", got, stale.ID)
	}

	if err := st.SetPlayerConnected(ctx, stale.ID, false, now); err != nil {
		t.Fatalf("set disconnected: %v", err)
	}
	n, err := st.CountConnectedPlayers(ctx, code)
	if err != nil {
		t.Fatalf("count connected: %v", err)
	}
	if n != 1 {
		t.Fatalf("connected count = %d, want 1", n)
	}
}

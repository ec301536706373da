package session

import (
	"context"
	"testing"

	"vaccine-escape/internal/game"
	"vaccine-escape/internal/store"
)

func TestToggleTimerHostOnly(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")
	c.JoinSession(ctx, res.Code, "bob", "player-bob")

	if _, err := c.ToggleTimer(ctx, res.Code, "player-bob"); err != ErrNotHost {
		t.Fatalf("non-host toggle error = %v", err)
	}

	running, err := c.ToggleTimer(ctx, res.Code, "host-1")
	if err != nil || !running {
		t.Fatalf("host toggle: running=%v err=%v", running, err)
	}
	defer c.stopTimerRun(res.Code)

	snap, _ := c.Snapshot(ctx, res.Code)
	if !snap.State.TimerRunning {
		t.Fatal("timer_running not checkpointed")
	}

	running, err = c.ToggleTimer(ctx, res.Code, "host-1")
	if err != nil || running {
		t.Fatalf("second toggle: running=%v err=%v", running, err)
	}
}

func TestTimerCheckpointCadence(t *testing.T) {
	c, ms, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")
	ms.SetState(res.Code, func(st *game.SessionState) {
		st.Status = game.StatusActive
		st.TimerRunning = true
		st.TimerRemaining = 100
	})

	run := &timerRun{code: res.Code, remaining: 100, stop: make(chan struct{})}

	writesBefore := ms.UpdateCalls()

	for i := 0; i < 5; i++ {
		if done := c.stepTimer(ctx, run); done {
			t.Fatalf("timer finished early at tick %d", i)
		}
	}

	writes := ms.UpdateCalls() - writesBefore
	if writes != 1 {
		t.Fatalf("checkpoint writes after 5 ticks = %d, want 1", writes)
	}
	snap, _ := c.Snapshot(ctx, res.Code)
	if snap.State.TimerRemaining != 95 {
		t.Fatalf("checkpointed remaining = %d, want 95", snap.State.TimerRemaining)
	}
}

func TestTimerExpiryFiresOnce(t *testing.T) {
	c, ms, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")
	ms.SetState(res.Code, func(st *game.SessionState) {
		st.Status = game.StatusActive
		st.TimerRunning = true
		st.TimerRemaining = 100
	})

	expired := 0
	c.SetOnExpire(func(code string) {
		if code == res.Code {
			expired++
		}
	})

	run := &timerRun{code: res.Code, remaining: 100, stop: make(chan struct{})}
	ticks := 0
	for !c.stepTimer(ctx, run) {
		ticks++
		if ticks > 200 {
			t.Fatal("timer never expired")
		}
	}
	if ticks != 99 {
		// 100 decrements total: the 100th step reports done.
		t.Fatalf("ticks before expiry = %d, want 99", ticks)
	}

	// Further steps stay terminal and never re-fire.
	if !c.stepTimer(ctx, run) {
		t.Fatal("expired run reported as still ticking")
	}
	if expired != 1 {
		t.Fatalf("expiry callback fired %d times, want 1", expired)
	}

	snap, _ := c.Snapshot(ctx, res.Code)
	if snap.State.Status != game.StatusFailed {
		t.Fatalf("status = %s, want failed", snap.State.Status)
	}
	if snap.State.TimerRemaining != 0 || snap.State.TimerRunning {
		t.Fatalf("terminal timer state: %+v", snap.State)
	}
	if n := ms.ChatCount(res.Code, store.ChatSystem); n != 1 {
		t.Fatalf("expiry system messages = %d, want 1", n)
	}
}

func TestStartSessionBeginsCountdown(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()
	res, _ := c.CreateSession(ctx, "ana", "host-1")

	if err := c.StartSession(ctx, res.Code, "player-x"); err != ErrNotHost {
		t.Fatalf("non-host start error = %v", err)
	}
	if err := c.StartSession(ctx, res.Code, "host-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer c.stopTimerRun(res.Code)

	snap, _ := c.Snapshot(ctx, res.Code)
	if snap.State.Status != game.StatusActive || !snap.State.TimerRunning {
		t.Fatalf("state after start: %+v", snap.State)
	}

	// Starting again is a no-op, not an error.
	if err := c.StartSession(ctx, res.Code, "host-1"); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

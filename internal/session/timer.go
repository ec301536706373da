package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"vaccine-escape/internal/game"
)

// timerRun is the authoritative countdown of one session. There is at
// most one per session and only the host can start or stop it; every
// other client passively mirrors the checkpointed value and may drift
// ahead by up to the checkpoint interval.
type timerRun struct {
	code string

	mu        sync.Mutex
	remaining int
	expired   bool

	stop     chan struct{}
	stopOnce sync.Once
}

func (r *timerRun) halt() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// ToggleTimer flips the countdown between running and stopped and
// checkpoints the current value either way. Host only.
func (c *Coordinator) ToggleTimer(ctx context.Context, code, playerID string) (bool, error) {
	running := false
	remaining := 0
	_, _, err := c.mutateSession(ctx, code, func(st *game.SessionState) (bool, error) {
		if playerID != st.HostID {
			return false, ErrNotHost
		}
		if st.Ended() {
			return false, ErrSessionEnded
		}
		// Stopping folds the live local counter back into the row so
		// no ticked-down seconds are lost.
		if st.TimerRunning {
			if rem, ok := c.timerRemaining(code); ok {
				st.TimerRemaining = rem
			}
		}
		st.TimerRunning = !st.TimerRunning
		running = st.TimerRunning
		remaining = st.TimerRemaining
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if running {
		c.startTimerRun(code, remaining)
	} else {
		c.stopTimerRun(code)
	}
	return running, nil
}

func (c *Coordinator) timerRemaining(code string) (int, bool) {
	c.mu.Lock()
	run := c.timers[code]
	c.mu.Unlock()
	if run == nil {
		return 0, false
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.remaining, true
}

func (c *Coordinator) startTimerRun(code string, remaining int) {
	c.mu.Lock()
	if _, exists := c.timers[code]; exists {
		c.mu.Unlock()
		return
	}
	run := &timerRun{code: code, remaining: remaining, stop: make(chan struct{})}
	c.timers[code] = run
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-run.stop:
				return
			case <-ticker.C:
				if c.stepTimer(context.Background(), run) {
					return
				}
			}
		}
	}()
}

func (c *Coordinator) stopTimerRun(code string) {
	c.mu.Lock()
	run := c.timers[code]
	delete(c.timers, code)
	c.mu.Unlock()
	if run != nil {
		run.halt()
	}
}

// stepTimer is one second of countdown: decrement locally, checkpoint
// every TimerCheckpointSec seconds, expire at zero. Returns true when
// the run is finished. A failed checkpoint is logged and ignored; the
// local counter stays authoritative while the run lives.
func (c *Coordinator) stepTimer(ctx context.Context, run *timerRun) bool {
	run.mu.Lock()
	if run.expired {
		run.mu.Unlock()
		return true
	}
	if run.remaining > 0 {
		run.remaining--
	}
	rem := run.remaining
	run.mu.Unlock()

	if rem <= 0 {
		c.expireTimer(ctx, run)
		return true
	}

	interval := c.cfg.TimerCheckpointSec
	if interval < 1 {
		interval = 1
	}
	if rem%interval == 0 {
		_, _, err := c.mutateSession(ctx, run.code, func(st *game.SessionState) (bool, error) {
			if st.Ended() || !st.TimerRunning {
				return false, nil
			}
			st.TimerRemaining = rem
			return true, nil
		})
		if err != nil {
			log.Warn().Err(err).Str("session", run.code).Int("remaining", rem).
				Msg("timer checkpoint failed")
		}
	}
	return false
}

// expireTimer fires the end-of-game transition exactly once.
func (c *Coordinator) expireTimer(ctx context.Context, run *timerRun) {
	run.mu.Lock()
	if run.expired {
		run.mu.Unlock()
		return
	}
	run.expired = true
	run.mu.Unlock()

	_, _, err := c.mutateSession(ctx, run.code, func(st *game.SessionState) (bool, error) {
		if st.Ended() {
			return false, nil
		}
		st.TimerRemaining = 0
		st.TimerRunning = false
		st.Status = game.StatusFailed
		return true, nil
	})
	if err != nil {
		log.Error().Err(err).Str("session", run.code).Msg("timer expiry write failed")
	}
	c.systemMessage(ctx, run.code, "Time is up. The lab stays sealed.")

	c.mu.Lock()
	onExpire := c.onExpire
	delete(c.timers, run.code)
	c.mu.Unlock()
	run.halt()
	if onExpire != nil {
		onExpire(run.code)
	}
}

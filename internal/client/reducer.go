package client

import (
	"context"
	"encoding/json"
	"sync"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/game"
	"vaccine-escape/internal/session"
)

// Callbacks are the UI notification hooks of one game screen. They
// live behind a mutable holder inside the reducer: swapping them never
// touches the underlying subscription, so render-driven identity churn
// cannot cause subscribe/unsubscribe storms.
type Callbacks struct {
	OnSession    func(session.SessionPayload)
	OnPlayer     func(session.PlayerPayload)
	OnChat       func(session.ChatPayload)
	OnGameEnd    func(status game.Status)
	OnDisconnect func(session.PlayerPayload)
}

// Snapshot is the reducer's local view of the shared session.
type Snapshot struct {
	Code          string
	Revision      int64
	State         game.SessionState
	Players       map[string]session.PlayerPayload
	Chat          []session.ChatPayload
	TimeRemaining int
	TimerRunning  bool
}

// Reducer folds change-feed events into local UI state. One instance
// per connected client; the displayed countdown is a passive mirror
// that only moves on an incoming session update (syncTime), so between
// checkpoints it can run up to the checkpoint interval ahead of the
// persisted value.
type Reducer struct {
	mu        sync.Mutex
	snap      Snapshot
	callbacks Callbacks
	ended     bool
}

func NewReducer(code string) *Reducer {
	return &Reducer{
		snap: Snapshot{
			Code:    code,
			Players: map[string]session.PlayerPayload{},
		},
	}
}

// SetCallbacks swaps the notification hooks without resubscribing.
func (r *Reducer) SetCallbacks(cb Callbacks) {
	r.mu.Lock()
	r.callbacks = cb
	r.mu.Unlock()
}

// Seed installs the initial load before events start flowing.
func (r *Reducer) Seed(snap *session.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.Revision = snap.Revision
	r.snap.State = snap.State
	r.snap.TimeRemaining = snap.State.TimerRemaining
	r.snap.TimerRunning = snap.State.TimerRunning
	for _, p := range snap.Players {
		r.snap.Players[p.ID] = session.PlayerPayload{
			ID: p.ID, Pseudo: p.Pseudo, IsHost: p.IsHost,
			IsConnected: p.IsConnected, LastSeen: p.LastSeen,
		}
	}
	r.snap.Chat = r.snap.Chat[:0]
	for _, m := range snap.Chat {
		r.snap.Chat = append(r.snap.Chat, session.ChatPayload{
			ID: m.ID, PlayerID: m.PlayerID, Pseudo: m.Pseudo,
			Type: string(m.Type), Body: m.Body, CreatedAt: m.CreatedAt,
		})
	}
}

// Snapshot returns a copy of the current local view.
func (r *Reducer) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.snap
	out.Players = make(map[string]session.PlayerPayload, len(r.snap.Players))
	for k, v := range r.snap.Players {
		out.Players[k] = v
	}
	out.Chat = append([]session.ChatPayload(nil), r.snap.Chat...)
	return out
}

// Handle folds one feed event. Session events older than the revision
// already applied are dropped, which also de-duplicates SSE replay
// overlap.
func (r *Reducer) Handle(ev changefeed.Event) {
	switch ev.Kind {
	case changefeed.KindSessionUpdated:
		var payload session.SessionPayload
		if !decodePayload(ev.Data, &payload) {
			return
		}
		r.applySession(payload)
	case changefeed.KindPlayerJoined, changefeed.KindPlayerUpdated, changefeed.KindPlayerDisconnected:
		var payload session.PlayerPayload
		if !decodePayload(ev.Data, &payload) {
			return
		}
		r.applyPlayer(ev.Kind, payload)
	case changefeed.KindChatMessage:
		var payload session.ChatPayload
		if !decodePayload(ev.Data, &payload) {
			return
		}
		r.applyChat(payload)
	}
}

// Run pumps a subscription until the context ends or the feed closes.
func (r *Reducer) Run(ctx context.Context, sub *changefeed.Subscription) {
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events:
			if !ok {
				return
			}
			r.Handle(ev)
		}
	}
}

func (r *Reducer) applySession(payload session.SessionPayload) {
	r.mu.Lock()
	if payload.Revision <= r.snap.Revision && payload.Revision != 0 {
		r.mu.Unlock()
		return
	}
	r.snap.Revision = payload.Revision
	r.snap.State = payload.State
	// syncTime: the only path that moves the mirrored countdown.
	r.snap.TimeRemaining = payload.State.TimerRemaining
	r.snap.TimerRunning = payload.State.TimerRunning
	cb := r.callbacks
	endedNow := payload.State.Ended() && !r.ended
	if endedNow {
		r.ended = true
	}
	r.mu.Unlock()

	if cb.OnSession != nil {
		cb.OnSession(payload)
	}
	if endedNow && cb.OnGameEnd != nil {
		cb.OnGameEnd(payload.State.Status)
	}
}

func (r *Reducer) applyPlayer(kind changefeed.Kind, payload session.PlayerPayload) {
	r.mu.Lock()
	r.snap.Players[payload.ID] = payload
	cb := r.callbacks
	r.mu.Unlock()

	if kind == changefeed.KindPlayerDisconnected {
		if cb.OnDisconnect != nil {
			cb.OnDisconnect(payload)
		}
		return
	}
	if cb.OnPlayer != nil {
		cb.OnPlayer(payload)
	}
}

func (r *Reducer) applyChat(payload session.ChatPayload) {
	r.mu.Lock()
	r.snap.Chat = append(r.snap.Chat, payload)
	cb := r.callbacks
	r.mu.Unlock()
	if cb.OnChat != nil {
		cb.OnChat(payload)
	}
}

// decodePayload accepts either the in-process typed payload or the
// JSON form a wire transport delivers.
func decodePayload[T any](data any, out *T) bool {
	if v, ok := data.(T); ok {
		*out = v
		return true
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

package testutil

import (
	"context"
	"sync"
	"time"

	"vaccine-escape/internal/game"
	"vaccine-escape/internal/store"
)

// MemStore is an in-memory stand-in for the pg store, used by
// coordinator and transport tests that don't need a database. It can
// inject revision conflicts to exercise retry loops.
type MemStore struct {
	mu           sync.Mutex
	sessions     map[string]*store.SessionRow
	players      map[string]store.PlayerRow
	chat         map[string][]store.ChatMessageRow
	updateCalls  int
	cleanupCalls map[string]int
	conflictNext int
	getErrNext   error
}

func NewMemStore() *MemStore {
	return &MemStore{
		sessions:     map[string]*store.SessionRow{},
		players:      map[string]store.PlayerRow{},
		chat:         map[string][]store.ChatMessageRow{},
		cleanupCalls: map[string]int{},
	}
}

func (m *MemStore) CreateSession(_ context.Context, code string, st game.SessionState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.sessions[code] = &store.SessionRow{Code: code, State: st.Clone(), CreatedAt: now, UpdatedAt: now}
	return nil
}

func (m *MemStore) GetSession(_ context.Context, code string) (*store.SessionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErrNext != nil {
		err := m.getErrNext
		m.getErrNext = nil
		return nil, err
	}
	row, ok := m.sessions[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *row
	cp.State = row.State.Clone()
	return &cp, nil
}

func (m *MemStore) UpdateSessionState(_ context.Context, code string, st game.SessionState, expectedRevision int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.conflictNext > 0 {
		m.conflictNext--
		return 0, store.ErrRevisionConflict
	}
	row, ok := m.sessions[code]
	if !ok {
		return 0, store.ErrNotFound
	}
	if row.Revision != expectedRevision {
		return 0, store.ErrRevisionConflict
	}
	row.State = st.Clone()
	row.Revision++
	row.UpdatedAt = time.Now()
	return row.Revision, nil
}

func (m *MemStore) CleanupSession(_ context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupCalls[code]++
	delete(m.sessions, code)
	for id, p := range m.players {
		if p.SessionCode == code {
			delete(m.players, id)
		}
	}
	delete(m.chat, code)
	return nil
}

func (m *MemStore) InsertPlayer(_ context.Context, p store.PlayerRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.JoinedAt = time.Now()
	m.players[p.ID] = p
	return nil
}

func (m *MemStore) GetPlayer(_ context.Context, id string) (*store.PlayerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *MemStore) ListPlayers(_ context.Context, code string) ([]store.PlayerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.PlayerRow
	for _, p := range m.players {
		if p.SessionCode == code {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemStore) SetPlayerConnected(_ context.Context, id string, connected bool, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.IsConnected = connected
	p.LastSeen = at
	m.players[id] = p
	return nil
}

func (m *MemStore) TouchPlayer(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return store.ErrNotFound
	}
	p.LastSeen = at
	m.players[id] = p
	return nil
}

func (m *MemStore) CountConnectedPlayers(_ context.Context, code string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.players {
		if p.SessionCode == code && p.IsConnected {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) ListStaleConnected(_ context.Context, cutoff time.Time) ([]store.PlayerRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.PlayerRow
	for _, p := range m.players {
		if p.IsConnected && p.LastSeen.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MemStore) InsertChatMessage(_ context.Context, msg store.ChatMessageRow) (store.ChatMessageRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == "" {
		msg.ID = store.NewID()
	}
	msg.CreatedAt = time.Now()
	m.chat[msg.SessionCode] = append(m.chat[msg.SessionCode], msg)
	return msg, nil
}

func (m *MemStore) ListChatMessages(_ context.Context, code string, limit int) ([]store.ChatMessageRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.chat[code]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]store.ChatMessageRow(nil), msgs...), nil
}

// Test inspection helpers.

func (m *MemStore) ChatCount(code string, typ store.ChatMessageType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.chat[code] {
		if msg.Type == typ {
			n++
		}
	}
	return n
}

func (m *MemStore) UpdateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCalls
}

func (m *MemStore) CleanupCalls(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupCalls[code]
}

// FailNextUpdates makes the next n conditional updates report a
// revision conflict.
func (m *MemStore) FailNextUpdates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conflictNext = n
}

// FailNextGet makes the next GetSession return err, simulating a
// transient store failure.
func (m *MemStore) FailNextGet(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErrNext = err
}

// SetState mutates a session's stored state in place, bypassing the
// revision guard. Test setup only.
func (m *MemStore) SetState(code string, mutate func(st *game.SessionState)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.sessions[code]; ok {
		mutate(&row.State)
	}
}

// SetPlayerLastSeen backdates a player's heartbeat. Test setup only.
func (m *MemStore) SetPlayerLastSeen(id string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.players[id]; ok {
		p.LastSeen = at
		m.players[id] = p
	}
}

// HasSession reports whether the session row still exists.
func (m *MemStore) HasSession(code string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[code]
	return ok
}

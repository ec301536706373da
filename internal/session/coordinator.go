package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/config"
	"vaccine-escape/internal/game"
	"vaccine-escape/internal/store"
)

// Store is the slice of the backing store the coordinators need. The
// pgx-backed store satisfies it; tests plug in an in-memory fake.
type Store interface {
	CreateSession(ctx context.Context, code string, st game.SessionState) error
	GetSession(ctx context.Context, code string) (*store.SessionRow, error)
	UpdateSessionState(ctx context.Context, code string, st game.SessionState, expectedRevision int64) (int64, error)
	CleanupSession(ctx context.Context, code string) error

	InsertPlayer(ctx context.Context, p store.PlayerRow) error
	GetPlayer(ctx context.Context, id string) (*store.PlayerRow, error)
	ListPlayers(ctx context.Context, sessionCode string) ([]store.PlayerRow, error)
	SetPlayerConnected(ctx context.Context, id string, connected bool, at time.Time) error
	TouchPlayer(ctx context.Context, id string, at time.Time) error
	CountConnectedPlayers(ctx context.Context, sessionCode string) (int, error)
	ListStaleConnected(ctx context.Context, cutoff time.Time) ([]store.PlayerRow, error)

	InsertChatMessage(ctx context.Context, m store.ChatMessageRow) (store.ChatMessageRow, error)
	ListChatMessages(ctx context.Context, sessionCode string, limit int) ([]store.ChatMessageRow, error)
}

// Coordinator is the progression engine: every mutation of shared
// session state goes through it, as a read-modify-write guarded by the
// session row's revision.
type Coordinator struct {
	store   Store
	feed    *changefeed.Broker
	cfg     config.GameConfig
	content game.Content

	mu       sync.Mutex
	timers   map[string]*timerRun
	onExpire func(code string)
}

func NewCoordinator(st Store, feed *changefeed.Broker, cfg config.GameConfig, content game.Content) *Coordinator {
	return &Coordinator{
		store:   st,
		feed:    feed,
		cfg:     cfg,
		content: content,
		timers:  map[string]*timerRun{},
	}
}

// SetOnExpire registers the end-of-game callback the timer fires once
// when the countdown reaches zero.
func (c *Coordinator) SetOnExpire(fn func(code string)) {
	c.mu.Lock()
	c.onExpire = fn
	c.mu.Unlock()
}

// mutateSession is the conditional-update retry loop every coordinator
// write rides on: read the row, fold the mutation into a clone, write
// back keyed on the revision that was read, retry from the top on a
// conflict. The fold returning changed=false short-circuits with no
// write at all.
func (c *Coordinator) mutateSession(ctx context.Context, code string, fold func(st *game.SessionState) (bool, error)) (game.SessionState, int64, error) {
	retries := c.cfg.WriteRetries
	if retries < 1 {
		retries = 1
	}
	for attempt := 0; attempt < retries; attempt++ {
		row, err := c.store.GetSession(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return game.SessionState{}, 0, ErrSessionNotFound
			}
			return game.SessionState{}, 0, err
		}
		st := row.State.Clone()
		changed, err := fold(&st)
		if err != nil {
			return row.State, row.Revision, err
		}
		if !changed {
			return st, row.Revision, nil
		}
		rev, err := c.store.UpdateSessionState(ctx, code, st, row.Revision)
		if errors.Is(err, store.ErrRevisionConflict) {
			continue
		}
		if err != nil {
			return game.SessionState{}, 0, err
		}
		c.feed.Publish(changefeed.KindSessionUpdated, code, rev, sessionPayload(code, st, rev))
		return st, rev, nil
	}
	return game.SessionState{}, 0, ErrWriteConflict
}

// systemMessage appends a system chat entry and fans it out. Failures
// are logged and swallowed: progress announcements never roll back the
// state write they annotate.
func (c *Coordinator) systemMessage(ctx context.Context, code, body string) {
	m, err := c.store.InsertChatMessage(ctx, store.ChatMessageRow{
		SessionCode: code,
		Type:        store.ChatSystem,
		Body:        body,
	})
	if err != nil {
		log.Warn().Err(err).Str("session", code).Msg("system chat message failed")
		return
	}
	c.feed.Publish(changefeed.KindChatMessage, code, 0, chatPayload(m))
}

// SessionPayload is the session_updated feed body: the full new state
// image plus the revision that produced it.
type SessionPayload struct {
	Code     string            `json:"code"`
	Revision int64             `json:"revision"`
	State    game.SessionState `json:"state"`
}

func sessionPayload(code string, st game.SessionState, rev int64) SessionPayload {
	return SessionPayload{Code: code, Revision: rev, State: st}
}

// PlayerPayload is the row image carried by player feed events.
type PlayerPayload struct {
	ID          string    `json:"id"`
	Pseudo      string    `json:"pseudo"`
	IsHost      bool      `json:"is_host"`
	IsConnected bool      `json:"is_connected"`
	LastSeen    time.Time `json:"last_seen"`
}

func playerPayload(p store.PlayerRow) PlayerPayload {
	return PlayerPayload{
		ID:          p.ID,
		Pseudo:      p.Pseudo,
		IsHost:      p.IsHost,
		IsConnected: p.IsConnected,
		LastSeen:    p.LastSeen,
	}
}

// ChatPayload is the chat_message feed body.
type ChatPayload struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id,omitempty"`
	Pseudo    string    `json:"pseudo,omitempty"`
	Type      string    `json:"type"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func chatPayload(m store.ChatMessageRow) ChatPayload {
	return ChatPayload{
		ID:        m.ID,
		PlayerID:  m.PlayerID,
		Pseudo:    m.Pseudo,
		Type:      string(m.Type),
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}

// NewPlayerPayload and NewChatPayload expose the feed wire shapes to
// the HTTP layer so snapshot responses and live events stay identical.
func NewPlayerPayload(p store.PlayerRow) PlayerPayload { return playerPayload(p) }

func NewChatPayload(m store.ChatMessageRow) ChatPayload { return chatPayload(m) }

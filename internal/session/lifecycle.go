package session

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/game"
	"vaccine-escape/internal/store"
)

var pseudoPolicy = bluemonday.StrictPolicy()

const maxPseudoLen = 24

func sanitizePseudo(raw string) string {
	cleaned := strings.TrimSpace(pseudoPolicy.Sanitize(raw))
	if utf8.RuneCountInString(cleaned) > maxPseudoLen {
		cleaned = string([]rune(cleaned)[:maxPseudoLen])
	}
	return cleaned
}

// CreateResult reports a freshly created room.
type CreateResult struct {
	Code   string
	Player store.PlayerRow
	State  game.SessionState
}

// CreateSession makes a room in the waiting state with the caller as
// host. Player ids are client-asserted so a reloaded tab can resume
// its identity; a blank one gets generated.
func (c *Coordinator) CreateSession(ctx context.Context, hostPseudo, playerID string) (*CreateResult, error) {
	pseudo := sanitizePseudo(hostPseudo)
	if pseudo == "" {
		return nil, ErrInvalidPseudo
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}

	st := game.NewSessionState(playerID, c.cfg.InitialTimerSec, c.content)

	var code string
	var err error
	for attempt := 0; attempt < 5; attempt++ {
		code = store.NewSessionCode()
		if err = c.store.CreateSession(ctx, code, st); err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	host := store.PlayerRow{
		ID:          playerID,
		SessionCode: code,
		Pseudo:      pseudo,
		IsHost:      true,
		IsConnected: true,
		LastSeen:    time.Now(),
	}
	if err := c.store.InsertPlayer(ctx, host); err != nil {
		_ = c.store.CleanupSession(ctx, code)
		return nil, err
	}
	c.feed.Publish(changefeed.KindPlayerJoined, code, 0, playerPayload(host))
	log.Info().Str("session", code).Str("host", playerID).Msg("session created")
	return &CreateResult{Code: code, Player: host, State: st}, nil
}

// JoinSession attaches a player to an existing room. A remembered
// playerID reattaches to its old row instead of duplicating; pseudo
// uniqueness is enforced here, not at the data layer.
func (c *Coordinator) JoinSession(ctx context.Context, code, rawPseudo, playerID string) (*store.PlayerRow, error) {
	pseudo := sanitizePseudo(rawPseudo)
	if pseudo == "" {
		return nil, ErrInvalidPseudo
	}

	row, err := c.store.GetSession(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if row.State.Ended() {
		return nil, ErrSessionEnded
	}

	players, err := c.store.ListPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	for i := range players {
		p := &players[i]
		if playerID != "" && p.ID == playerID {
			// Rejoin after a reload.
			if err := c.store.SetPlayerConnected(ctx, p.ID, true, time.Now()); err != nil {
				return nil, err
			}
			p.IsConnected = true
			c.feed.Publish(changefeed.KindPlayerUpdated, code, 0, playerPayload(*p))
			return p, nil
		}
		if strings.EqualFold(p.Pseudo, pseudo) {
			return nil, ErrPseudoTaken
		}
	}

	if playerID == "" {
		playerID = uuid.NewString()
	}
	player := store.PlayerRow{
		ID:          playerID,
		SessionCode: code,
		Pseudo:      pseudo,
		IsConnected: true,
		LastSeen:    time.Now(),
	}
	if err := c.store.InsertPlayer(ctx, player); err != nil {
		return nil, err
	}
	c.feed.Publish(changefeed.KindPlayerJoined, code, 0, playerPayload(player))
	return &player, nil
}

// StartSession moves a waiting room to active and starts the
// countdown. Host only; starting an already active room is a no-op.
func (c *Coordinator) StartSession(ctx context.Context, code, playerID string) error {
	st, _, err := c.mutateSession(ctx, code, func(st *game.SessionState) (bool, error) {
		if playerID != st.HostID {
			return false, ErrNotHost
		}
		if st.Ended() {
			return false, ErrSessionEnded
		}
		if st.Status == game.StatusActive {
			return false, nil
		}
		st.Status = game.StatusActive
		st.TimerRunning = true
		return true, nil
	})
	if err != nil {
		return err
	}
	if st.TimerRunning {
		c.startTimerRun(code, st.TimerRemaining)
	}
	return nil
}

// EnterDoorCode tries the digits against a zone door. A correct code
// unlocks it for good and advances the zone; the final door completes
// the game.
func (c *Coordinator) EnterDoorCode(ctx context.Context, code string, zone game.Zone, digits string) (game.DoorResult, error) {
	var result game.DoorResult
	_, _, err := c.mutateSession(ctx, code, func(st *game.SessionState) (bool, error) {
		if st.Ended() {
			return false, ErrSessionEnded
		}
		key := zone.Key()
		if !zone.Valid() || !st.DoorVisible[key] || st.DoorStatus[key] != game.DoorLocked {
			return false, ErrDoorUnavailable
		}
		res, ok := game.ApplyDoorCode(st, zone, digits)
		if !ok {
			return false, ErrWrongDoorCode
		}
		result = res
		return true, nil
	})
	if err != nil {
		return game.DoorResult{}, err
	}
	if result.Completed {
		c.stopTimerRun(code)
		c.systemMessage(ctx, code, "The synthesizer hums to life. Vaccine synthesized — you are out.")
	} else if result.Unlocked {
		c.systemMessage(ctx, code, zone.Key()+" door unlocked")
	}
	return result, nil
}

// UseHint burns one of the session's shared hint allowance.
func (c *Coordinator) UseHint(ctx context.Context, code string) (int, error) {
	st, _, err := c.mutateSession(ctx, code, func(st *game.SessionState) (bool, error) {
		if st.Ended() {
			return false, ErrSessionEnded
		}
		if !game.ApplyHintUse(st, c.cfg.MaxHints) {
			return false, ErrHintLimit
		}
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return st.HintsUsed, nil
}

// CloseSession is the host's explicit teardown.
func (c *Coordinator) CloseSession(ctx context.Context, code, playerID string) error {
	row, err := c.store.GetSession(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if playerID != row.State.HostID {
		return ErrNotHost
	}
	return c.teardown(ctx, code)
}

func (c *Coordinator) teardown(ctx context.Context, code string) error {
	c.stopTimerRun(code)
	if err := c.store.CleanupSession(ctx, code); err != nil {
		return err
	}
	c.feed.Drop(code)
	log.Info().Str("session", code).Msg("session torn down")
	return nil
}

// Snapshot is the initial load of a game screen: state, roster and the
// recent chat log in one read.
type Snapshot struct {
	Code     string
	Revision int64
	State    game.SessionState
	Players  []store.PlayerRow
	Chat     []store.ChatMessageRow
}

func (c *Coordinator) Snapshot(ctx context.Context, code string) (*Snapshot, error) {
	row, err := c.store.GetSession(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	players, err := c.store.ListPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	chat, err := c.store.ListChatMessages(ctx, code, 100)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Code:     code,
		Revision: row.Revision,
		State:    row.State,
		Players:  players,
		Chat:     chat,
	}, nil
}

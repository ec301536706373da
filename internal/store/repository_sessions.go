package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"vaccine-escape/internal/game"
)

func (s *Store) CreateSession(ctx context.Context, code string, st game.SessionState) error {
	inventory, solved, hints, visible, status, codes, err := marshalState(st)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO sessions (code, host_id, status, current_zone, timer_remaining, timer_running,
			inventory, solved_puzzles, revealed_hints, door_visible, door_status, door_codes, hints_used)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		code, st.HostID, string(st.Status), int(st.CurrentZone), st.TimerRemaining, st.TimerRunning,
		inventory, solved, hints, visible, status, codes, st.HintsUsed)
	return err
}

func (s *Store) GetSession(ctx context.Context, code string) (*SessionRow, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT code, host_id, status, current_zone, timer_remaining, timer_running,
			inventory, solved_puzzles, revealed_hints, door_visible, door_status, door_codes,
			hints_used, revision, created_at, updated_at
		FROM sessions WHERE code = $1`, code)

	var (
		out                                             SessionRow
		statusStr                                       string
		zone                                            int
		inventory, solved, hints, visible, dstat, codes []byte
	)
	err := row.Scan(&out.Code, &out.State.HostID, &statusStr, &zone,
		&out.State.TimerRemaining, &out.State.TimerRunning,
		&inventory, &solved, &hints, &visible, &dstat, &codes,
		&out.State.HintsUsed, &out.Revision, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	out.State.Status = game.Status(statusStr)
	out.State.CurrentZone = game.Zone(zone)
	if err := unmarshalState(&out.State, inventory, solved, hints, visible, dstat, codes); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateSessionState writes the whole state image back, conditioned on
// the revision the caller read. Zero rows matched means another writer
// got there first; the caller re-reads and retries.
func (s *Store) UpdateSessionState(ctx context.Context, code string, st game.SessionState, expectedRevision int64) (int64, error) {
	inventory, solved, hints, visible, status, codes, err := marshalState(st)
	if err != nil {
		return 0, err
	}
	tag, err := s.Pool.Exec(ctx, `
		UPDATE sessions SET
			status = $3, current_zone = $4, timer_remaining = $5, timer_running = $6,
			inventory = $7, solved_puzzles = $8, revealed_hints = $9,
			door_visible = $10, door_status = $11, door_codes = $12, hints_used = $13,
			revision = revision + 1, updated_at = now()
		WHERE code = $1 AND revision = $2`,
		code, expectedRevision,
		string(st.Status), int(st.CurrentZone), st.TimerRemaining, st.TimerRunning,
		inventory, solved, hints, visible, status, codes, st.HintsUsed)
	if err != nil {
		return 0, err
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrRevisionConflict
	}
	return expectedRevision + 1, nil
}

// CleanupSession is the cleanup_session RPC: one transaction removing
// the session and everything hanging off it. Deleting an absent
// session is a no-op, which keeps racing teardown paths harmless.
func (s *Store) CleanupSession(ctx context.Context, code string) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM chat_messages WHERE session_code = $1`, code); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM players WHERE session_code = $1`, code); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE code = $1`, code); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func marshalState(st game.SessionState) (inventory, solved, hints, visible, status, codes []byte, err error) {
	if inventory, err = json.Marshal(st.Inventory); err != nil {
		return
	}
	if solved, err = json.Marshal(st.SolvedPuzzles); err != nil {
		return
	}
	if hints, err = json.Marshal(st.RevealedHints); err != nil {
		return
	}
	if visible, err = json.Marshal(st.DoorVisible); err != nil {
		return
	}
	if status, err = json.Marshal(st.DoorStatus); err != nil {
		return
	}
	codes, err = json.Marshal(st.DoorCodes)
	return
}

func unmarshalState(st *game.SessionState, inventory, solved, hints, visible, status, codes []byte) error {
	if err := json.Unmarshal(inventory, &st.Inventory); err != nil {
		return err
	}
	if err := json.Unmarshal(solved, &st.SolvedPuzzles); err != nil {
		return err
	}
	if err := json.Unmarshal(hints, &st.RevealedHints); err != nil {
		return err
	}
	if err := json.Unmarshal(visible, &st.DoorVisible); err != nil {
		return err
	}
	if err := json.Unmarshal(status, &st.DoorStatus); err != nil {
		return err
	}
	return json.Unmarshal(codes, &st.DoorCodes)
}

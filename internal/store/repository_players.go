package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

func (s *Store) InsertPlayer(ctx context.Context, p PlayerRow) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO players (id, session_code, pseudo, is_host, is_connected, last_seen)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.SessionCode, p.Pseudo, p.IsHost, p.IsConnected, p.LastSeen)
	return err
}

func (s *Store) GetPlayer(ctx context.Context, id string) (*PlayerRow, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, session_code, pseudo, is_host, is_connected, last_seen, joined_at
		FROM players WHERE id = $1`, id)
	var p PlayerRow
	if err := row.Scan(&p.ID, &p.SessionCode, &p.Pseudo, &p.IsHost, &p.IsConnected, &p.LastSeen, &p.JoinedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListPlayers(ctx context.Context, sessionCode string) ([]PlayerRow, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, session_code, pseudo, is_host, is_connected, last_seen, joined_at
		FROM players WHERE session_code = $1 ORDER BY joined_at`, sessionCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(&p.ID, &p.SessionCode, &p.Pseudo, &p.IsHost, &p.IsConnected, &p.LastSeen, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SetPlayerConnected flips the liveness flag and stamps last_seen.
func (s *Store) SetPlayerConnected(ctx context.Context, id string, connected bool, at time.Time) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE players SET is_connected = $2, last_seen = $3 WHERE id = $1`,
		id, connected, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchPlayer is the heartbeat write: last_seen only, never the
// connected flag.
func (s *Store) TouchPlayer(ctx context.Context, id string, at time.Time) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE players SET last_seen = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountConnectedPlayers(ctx context.Context, sessionCode string) (int, error) {
	var n int
	err := s.Pool.QueryRow(ctx, `
		SELECT count(*) FROM players WHERE session_code = $1 AND is_connected`, sessionCode).Scan(&n)
	return n, err
}

// ListStaleConnected returns players still flagged connected whose
// last heartbeat predates the cutoff. The reaper uses it to collect
// tabs that crashed without an unload event.
func (s *Store) ListStaleConnected(ctx context.Context, cutoff time.Time) ([]PlayerRow, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, session_code, pseudo, is_host, is_connected, last_seen, joined_at
		FROM players WHERE is_connected AND last_seen < $1`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlayerRow
	for rows.Next() {
		var p PlayerRow
		if err := rows.Scan(&p.ID, &p.SessionCode, &p.Pseudo, &p.IsHost, &p.IsConnected, &p.LastSeen, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

package store

import "context"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		code            TEXT PRIMARY KEY,
		host_id         TEXT NOT NULL,
		status          TEXT NOT NULL,
		current_zone    INTEGER NOT NULL,
		timer_remaining INTEGER NOT NULL,
		timer_running   BOOLEAN NOT NULL DEFAULT FALSE,
		inventory       JSONB NOT NULL DEFAULT '[]',
		solved_puzzles  JSONB NOT NULL DEFAULT '{}',
		revealed_hints  JSONB NOT NULL DEFAULT '{}',
		door_visible    JSONB NOT NULL DEFAULT '{}',
		door_status     JSONB NOT NULL DEFAULT '{}',
		door_codes      JSONB NOT NULL DEFAULT '{}',
		hints_used      INTEGER NOT NULL DEFAULT 0,
		revision        BIGINT NOT NULL DEFAULT 0,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS players (
		id           TEXT PRIMARY KEY,
		session_code TEXT NOT NULL REFERENCES sessions(code) ON DELETE CASCADE,
		pseudo       TEXT NOT NULL,
		is_host      BOOLEAN NOT NULL DEFAULT FALSE,
		is_connected BOOLEAN NOT NULL DEFAULT TRUE,
		last_seen    TIMESTAMPTZ NOT NULL DEFAULT now(),
		joined_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_players_session ON players(session_code)`,
	`CREATE INDEX IF NOT EXISTS idx_players_last_seen ON players(last_seen) WHERE is_connected`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id           TEXT PRIMARY KEY,
		session_code TEXT NOT NULL REFERENCES sessions(code) ON DELETE CASCADE,
		player_id    TEXT NOT NULL DEFAULT '',
		pseudo       TEXT NOT NULL DEFAULT '',
		type         TEXT NOT NULL,
		body         TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_session ON chat_messages(session_code, created_at)`,
}

// Migrate applies the schema. Statements are idempotent so boot can
// always run them.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

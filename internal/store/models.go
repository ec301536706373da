package store

import (
	"time"

	"vaccine-escape/internal/game"
)

// SessionRow is the sessions table image: the shared game state plus
// the revision that guards conditional updates.
type SessionRow struct {
	Code      string
	State     game.SessionState
	Revision  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PlayerRow struct {
	ID          string
	SessionCode string
	Pseudo      string
	IsHost      bool
	IsConnected bool
	LastSeen    time.Time
	JoinedAt    time.Time
}

// ChatMessageType distinguishes player chat from system progress
// announcements.
type ChatMessageType string

const (
	ChatUser   ChatMessageType = "user"
	ChatSystem ChatMessageType = "system"
)

type ChatMessageRow struct {
	ID          string
	SessionCode string
	PlayerID    string
	Pseudo      string
	Type        ChatMessageType
	Body        string
	CreatedAt   time.Time
}

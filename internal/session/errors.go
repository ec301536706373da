package session

import "errors"

var (
	ErrSessionNotFound = errors.New("session_not_found")
	ErrPlayerNotFound  = errors.New("player_not_found")
	ErrPseudoTaken     = errors.New("pseudo_taken")
	ErrInvalidPseudo   = errors.New("invalid_pseudo")
	ErrNotHost         = errors.New("not_host")
	ErrUnknownPuzzle   = errors.New("unknown_puzzle")
	ErrInvalidItem     = errors.New("invalid_item")
	ErrDoorUnavailable = errors.New("door_unavailable")
	ErrWrongDoorCode   = errors.New("wrong_door_code")
	ErrHintLimit       = errors.New("hint_limit_reached")
	ErrSessionEnded    = errors.New("session_ended")
	ErrWriteConflict   = errors.New("write_conflict")
	ErrEmptyMessage    = errors.New("empty_message")
)

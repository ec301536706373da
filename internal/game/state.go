package game

// Status is the session lifecycle. Progression is monotonic:
// waiting → active → completed|failed.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type DoorStatus string

const (
	DoorLocked   DoorStatus = "locked"
	DoorUnlocked DoorStatus = "unlocked"
)

// Item is one collectible in the shared inventory.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// SessionState is the shared mutable game state of one room, the exact
// image of the sessions row minus its key and revision. Maps are keyed
// by Zone.Key() or PuzzleID so the struct round-trips through JSONB
// unchanged.
type SessionState struct {
	HostID         string                `json:"host_id"`
	Status         Status                `json:"status"`
	CurrentZone    Zone                  `json:"current_zone"`
	TimerRemaining int                   `json:"timer_remaining"`
	TimerRunning   bool                  `json:"timer_running"`
	Inventory      []Item                `json:"inventory"`
	SolvedPuzzles  map[PuzzleID]bool     `json:"solved_puzzles"`
	RevealedHints  map[string][]string   `json:"revealed_hints"`
	DoorVisible    map[string]bool       `json:"door_visible"`
	DoorStatus     map[string]DoorStatus `json:"door_status"`
	DoorCodes      map[string]string     `json:"door_codes"`
	HintsUsed      int                   `json:"hints_used"`
}

// NewSessionState builds the initial state of a freshly created room.
func NewSessionState(hostID string, timerSec int, content Content) SessionState {
	st := SessionState{
		HostID:         hostID,
		Status:         StatusWaiting,
		CurrentZone:    Zone1,
		TimerRemaining: timerSec,
		Inventory:      []Item{},
		SolvedPuzzles:  map[PuzzleID]bool{},
		RevealedHints:  map[string][]string{},
		DoorVisible:    map[string]bool{},
		DoorStatus:     map[string]DoorStatus{},
		DoorCodes:      map[string]string{},
	}
	for z := Zone1; z <= Zone3; z++ {
		st.DoorVisible[z.Key()] = false
		st.DoorStatus[z.Key()] = DoorLocked
		st.DoorCodes[z.Key()] = content.DoorCodes[z]
	}
	return st
}

// Clone deep-copies state so a retry loop never mutates the snapshot
// it read.
func (s SessionState) Clone() SessionState {
	out := s
	out.Inventory = append([]Item(nil), s.Inventory...)
	out.SolvedPuzzles = make(map[PuzzleID]bool, len(s.SolvedPuzzles))
	for k, v := range s.SolvedPuzzles {
		out.SolvedPuzzles[k] = v
	}
	out.RevealedHints = make(map[string][]string, len(s.RevealedHints))
	for k, v := range s.RevealedHints {
		out.RevealedHints[k] = append([]string(nil), v...)
	}
	out.DoorVisible = make(map[string]bool, len(s.DoorVisible))
	for k, v := range s.DoorVisible {
		out.DoorVisible[k] = v
	}
	out.DoorStatus = make(map[string]DoorStatus, len(s.DoorStatus))
	for k, v := range s.DoorStatus {
		out.DoorStatus[k] = v
	}
	out.DoorCodes = make(map[string]string, len(s.DoorCodes))
	for k, v := range s.DoorCodes {
		out.DoorCodes[k] = v
	}
	return out
}

// ZoneComplete reports whether every puzzle gating the zone is solved.
func (s SessionState) ZoneComplete(z Zone) bool {
	puzzles := ZonePuzzles(z)
	if len(puzzles) == 0 {
		return false
	}
	for _, p := range puzzles {
		if !s.SolvedPuzzles[p] {
			return false
		}
	}
	return true
}

func (s SessionState) HasItem(itemID string) bool {
	for _, it := range s.Inventory {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

func (s SessionState) Ended() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

package game

import "fmt"

// Zone is one of the three sequential areas of the lab. ZoneEnd marks
// the state after the final door.
type Zone int

const (
	Zone1   Zone = 1
	Zone2   Zone = 2
	Zone3   Zone = 3
	ZoneEnd Zone = 4
)

func (z Zone) Valid() bool {
	return z >= Zone1 && z <= Zone3
}

// Key is the stable string form used in persisted maps and feed
// payloads ("zone1".."zone3").
func (z Zone) Key() string {
	return fmt.Sprintf("zone%d", int(z))
}

func ZoneFromKey(key string) (Zone, bool) {
	switch key {
	case "zone1":
		return Zone1, true
	case "zone2":
		return Zone2, true
	case "zone3":
		return Zone3, true
	default:
		return 0, false
	}
}

// PuzzleID identifies one puzzle. The set is closed; anything outside
// it is rejected at the coordinator boundary.
type PuzzleID string

const (
	PuzzleCaesar     PuzzleID = "zone1_caesar"
	PuzzleLocker     PuzzleID = "zone1_locker"
	PuzzleAudio      PuzzleID = "zone1_audio"
	PuzzleDNA        PuzzleID = "zone2_dna"
	PuzzleMicroscope PuzzleID = "zone2_microscope"
	PuzzleSlider     PuzzleID = "zone2_slider"
	PuzzleEnigma     PuzzleID = "zone3_enigma"
	PuzzleSynthesis  PuzzleID = "zone3_synthesis"
	PuzzleUV         PuzzleID = "zone3_uv"
)

// puzzleZones is the exhaustive puzzle→zone table.
var puzzleZones = map[PuzzleID]Zone{
	PuzzleCaesar:     Zone1,
	PuzzleLocker:     Zone1,
	PuzzleAudio:      Zone1,
	PuzzleDNA:        Zone2,
	PuzzleMicroscope: Zone2,
	PuzzleSlider:     Zone2,
	PuzzleEnigma:     Zone3,
	PuzzleSynthesis:  Zone3,
	PuzzleUV:         Zone3,
}

var zonePuzzles = map[Zone][]PuzzleID{
	Zone1: {PuzzleCaesar, PuzzleLocker, PuzzleAudio},
	Zone2: {PuzzleDNA, PuzzleMicroscope, PuzzleSlider},
	Zone3: {PuzzleEnigma, PuzzleSynthesis, PuzzleUV},
}

func ParsePuzzleID(raw string) (PuzzleID, bool) {
	id := PuzzleID(raw)
	_, ok := puzzleZones[id]
	return id, ok
}

func (p PuzzleID) Zone() Zone {
	return puzzleZones[p]
}

// ZonePuzzles returns the puzzle ids gating the given zone's door.
func ZonePuzzles(z Zone) []PuzzleID {
	return zonePuzzles[z]
}

// HintSlot ties a puzzle to the hint it reveals when solved. Not every
// puzzle reveals one.
type HintSlot struct {
	Zone Zone
	Slot int
}

var hintSlots = map[PuzzleID]HintSlot{
	PuzzleCaesar:    {Zone1, 0},
	PuzzleAudio:     {Zone1, 1},
	PuzzleDNA:       {Zone2, 0},
	PuzzleSlider:    {Zone2, 1},
	PuzzleEnigma:    {Zone3, 0},
	PuzzleSynthesis: {Zone3, 1},
}

// HintSlotFor looks up the (zone, slot) pair a solved puzzle unlocks.
func HintSlotFor(p PuzzleID) (HintSlot, bool) {
	hs, ok := hintSlots[p]
	return hs, ok
}

// HintID is the stable identifier stored in revealed_hints.
func (h HintSlot) HintID() string {
	return fmt.Sprintf("%s_hint%d", h.Zone.Key(), h.Slot+1)
}

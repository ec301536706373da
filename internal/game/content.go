package game

// Content is the read-only configuration document: hint texts per
// zone, reward items for the puzzles that grant one, and the numeric
// door codes. Loaded once at startup, never mutated.
type Content struct {
	Hints     map[Zone][]string
	Rewards   map[PuzzleID]Item
	DoorCodes map[Zone]string
}

// HintText resolves a hint slot to its display text.
func (c Content) HintText(h HintSlot) string {
	texts := c.Hints[h.Zone]
	if h.Slot < 0 || h.Slot >= len(texts) {
		return ""
	}
	return texts[h.Slot]
}

// DefaultContent is the compiled-in campaign: three zones of a sealed
// research lab, ending at the vaccine synthesizer.
func DefaultContent() Content {
	return Content{
		Hints: map[Zone][]string{
			Zone1: {
				"The keypad by the cold room glows when the lights are off.",
				"The intercom loop repeats the same four notes as the locker dial.",
			},
			Zone2: {
				"Pair each base with its complement before reading the strand.",
				"The centrifuge manual lists the calibration order on page 3.",
			},
			Zone3: {
				"The rotor wiring matches the poster behind the fume hood.",
				"Mix reagents in the order the wall clock hands point to.",
			},
		},
		Rewards: map[PuzzleID]Item{
			PuzzleLocker: {
				ID:          "uv_lamp",
				Name:        "UV lamp",
				Description: "Reveals markings invisible under white light.",
				Icon:        "lamp",
			},
			PuzzleMicroscope: {
				ID:          "petri_sample",
				Name:        "Petri sample",
				Description: "A cultured sample labelled B-117.",
				Icon:        "petri",
			},
			PuzzleUV: {
				ID:          "synth_key",
				Name:        "Synthesizer key",
				Description: "Arms the vaccine synthesizer console.",
				Icon:        "key",
			},
		},
		DoorCodes: map[Zone]string{
			Zone1: "4812",
			Zone2: "7305",
			Zone3: "2691",
		},
	}
}

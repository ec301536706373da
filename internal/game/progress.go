package game

// SolveOutcome describes what a single solve changed. Already means
// the puzzle was solved before the call and nothing was touched.
type SolveOutcome struct {
	Already      bool
	NewHintID    string
	NewHintText  string
	DoorRevealed bool
	DoorZone     Zone
	Reward       *Item
}

// ApplySolve folds one solved puzzle into state: records the solve,
// reveals the puzzle's hint slot if it has one and it is still unseen,
// and surfaces the zone door once every gating puzzle is solved.
// Re-solving is a no-op, which is what makes near-simultaneous
// submissions from two players safe.
func ApplySolve(st *SessionState, p PuzzleID, content Content) SolveOutcome {
	if st.SolvedPuzzles[p] {
		return SolveOutcome{Already: true}
	}
	st.SolvedPuzzles[p] = true

	var out SolveOutcome
	if slot, ok := HintSlotFor(p); ok {
		key := slot.Zone.Key()
		id := slot.HintID()
		if !containsStr(st.RevealedHints[key], id) {
			st.RevealedHints[key] = append(st.RevealedHints[key], id)
			out.NewHintID = id
			out.NewHintText = content.HintText(slot)
		}
	}

	// Door visibility tracks completeness alone, not the current zone:
	// a group may finish a later zone's puzzles before advancing, and
	// that door must already be there when they arrive.
	zone := p.Zone()
	if st.ZoneComplete(zone) && !st.DoorVisible[zone.Key()] {
		st.DoorVisible[zone.Key()] = true
		out.DoorRevealed = true
		out.DoorZone = zone
	}

	if reward, ok := content.Rewards[p]; ok {
		r := reward
		out.Reward = &r
	}
	return out
}

// ApplyAddItem appends the item unless its id is already present.
// Returns false on the duplicate no-op.
func ApplyAddItem(st *SessionState, item Item) bool {
	if st.HasItem(item.ID) {
		return false
	}
	st.Inventory = append(st.Inventory, item)
	return true
}

// ApplyRemoveItem filters the item out. Returns false when it was
// absent.
func ApplyRemoveItem(st *SessionState, itemID string) bool {
	kept := st.Inventory[:0]
	removed := false
	for _, it := range st.Inventory {
		if it.ID == itemID {
			removed = true
			continue
		}
		kept = append(kept, it)
	}
	st.Inventory = kept
	return removed
}

// DoorResult describes a door-code attempt.
type DoorResult struct {
	Unlocked  bool
	Completed bool
}

// ApplyDoorCode tries the digits against the zone's door. The door
// must be visible and still locked; a correct code unlocks it
// irreversibly and advances the current zone. Unlocking zone 3
// completes the game and stops the timer.
func ApplyDoorCode(st *SessionState, z Zone, digits string) (DoorResult, bool) {
	key := z.Key()
	if !z.Valid() || !st.DoorVisible[key] || st.DoorStatus[key] != DoorLocked {
		return DoorResult{}, false
	}
	if digits == "" || digits != st.DoorCodes[key] {
		return DoorResult{}, false
	}
	st.DoorStatus[key] = DoorUnlocked
	if z == st.CurrentZone {
		st.CurrentZone++
	}
	res := DoorResult{Unlocked: true}
	if z == Zone3 {
		st.Status = StatusCompleted
		st.TimerRunning = false
		res.Completed = true
	}
	return res, true
}

// ApplyHintUse bumps the hint counter up to the cap.
func ApplyHintUse(st *SessionState, maxHints int) bool {
	if st.HintsUsed >= maxHints {
		return false
	}
	st.HintsUsed++
	return true
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

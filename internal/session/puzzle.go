package session

import (
	"context"
	"time"

	"vaccine-escape/internal/game"
)

// SolvePuzzle records a widget-reported solve. The widget already
// validated the answer; this only folds the outcome into shared state.
// Re-solving an already solved puzzle is a no-op, so duplicate
// submissions from two players racing the same puzzle are harmless,
// and the revision guard keeps two different puzzles solved in the
// same instant from clobbering each other.
func (c *Coordinator) SolvePuzzle(ctx context.Context, code string, rawPuzzleID string) (game.SolveOutcome, error) {
	puzzleID, ok := game.ParsePuzzleID(rawPuzzleID)
	if !ok {
		return game.SolveOutcome{}, ErrUnknownPuzzle
	}

	var outcome game.SolveOutcome
	_, _, err := c.mutateSession(ctx, code, func(st *game.SessionState) (bool, error) {
		if st.Ended() {
			return false, ErrSessionEnded
		}
		outcome = game.ApplySolve(st, puzzleID, c.content)
		return !outcome.Already, nil
	})
	if err != nil {
		return game.SolveOutcome{}, err
	}

	if outcome.NewHintID != "" {
		// Fired on its own so a chat failure never undoes the solve.
		go func(hint string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			c.systemMessage(ctx, code, "New hint revealed: "+hint)
		}(outcome.NewHintText)
	}
	return outcome, nil
}

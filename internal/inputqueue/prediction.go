package inputqueue

import "github.com/andersfylling/duelback/internal/frameinfo"

// Strategy predicts the input for a player when the actual input for a
// frame hasn't arrived yet. It MUST be a deterministic pure function of
// its arguments — every peer must compute the exact same prediction given
// the same frame, last-confirmed input, and player index, or rollback
// resimulation will diverge between peers.
type Strategy[I any] func(frame frameinfo.Frame, lastConfirmed I, hasLastConfirmed bool, playerIndex int) I

// RepeatLastConfirmed predicts that a player keeps doing whatever they
// last confirmedly did. This is deterministic because last_confirmed_input
// is itself synchronized across peers by the protocol. It is the default
// strategy.
func RepeatLastConfirmed[I any]() Strategy[I] {
	return func(_ frameinfo.Frame, lastConfirmed I, hasLastConfirmed bool, _ int) I {
		if hasLastConfirmed {
			return lastConfirmed
		}
		var zero I
		return zero
	}
}

// BlankPrediction always predicts the zero value of I, regardless of
// history. Useful for games where repeating a stale input (e.g. "still
// holding block") is riskier than predicting "no input".
func BlankPrediction[I any]() Strategy[I] {
	return func(_ frameinfo.Frame, _ I, _ bool, _ int) I {
		var zero I
		return zero
	}
}

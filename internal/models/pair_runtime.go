package models

// PairState is the bot's coarse lifecycle state, validated against
// ValidTransitions before any transition is applied.
type PairState string

const (
	StatePaused   PairState = "PAUSED"
	StateReady    PairState = "READY"
	StateEntering PairState = "ENTERING"
	StateHolding  PairState = "HOLDING"
	StateExiting  PairState = "EXITING"
	StateError    PairState = "ERROR"
)

// ValidTransitions enumerates every legal PairState move. A transition not
// listed here is rejected by CanTransition.
var ValidTransitions = map[PairState][]PairState{
	StatePaused:   {StateReady},
	StateReady:    {StatePaused, StateEntering},
	StateEntering: {StateHolding, StateReady, StateError},
	StateHolding:  {StateExiting, StateError},
	StateExiting:  {StateReady, StatePaused, StateError},
	StateError:    {StatePaused},
}

// CanTransition reports whether moving from `from` to `to` is legal.
func CanTransition(from, to PairState) bool {
	for _, s := range ValidTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsActive reports whether the state represents an in-flight or open
// arbitrage (as opposed to idle/paused/errored).
func IsActive(s PairState) bool {
	switch s {
	case StateEntering, StateHolding, StateExiting:
		return true
	default:
		return false
	}
}

// HasOpenPosition reports whether the state implies a live position the
// exit monitor must track.
func HasOpenPosition(s PairState) bool {
	return s == StateHolding || s == StateExiting
}

// PairRuntime is the mutable runtime record for one bot's single pair: its
// lifecycle state plus the currently open position, if any. FilledParts
// counts the filled parts of a partial-entry sequence.
type PairRuntime struct {
	BotID         string
	State         PairState
	FilledParts   int
	CurrentSpread float64
	RealizedPnl   float64
	Position      PositionState
}

// TotalPnl returns realized plus the position's live unrealized legs, if
// any are open. The caller supplies the unrealized PNL.
func (pr *PairRuntime) TotalPnl(unrealized float64) float64 {
	return pr.RealizedPnl + unrealized
}

// IsOpen reports whether the runtime's state implies an open or
// in-progress position.
func (pr *PairRuntime) IsOpen() bool {
	return IsActive(pr.State)
}

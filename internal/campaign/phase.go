package campaign

import "fmt"

type Phase uint8

const (
	PhaseOpen Phase = iota
	PhaseSuccessful
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhaseSuccessful:
		return "successful"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

// Finalized reports whether the funding round outcome has been decided
func (p Phase) Finalized() bool {
	return p != PhaseOpen
}

// RefundEligible reports whether contributors may pull their pledges back
func (p Phase) RefundEligible() bool {
	return p == PhaseFailed || p == PhaseCancelled
}

// VoteEligible reports whether milestone governance is active
func (p Phase) VoteEligible() bool {
	return p == PhaseSuccessful
}

type PhaseEvent uint8

const (
	EventGoalMet PhaseEvent = iota
	EventGoalMissed
	EventCancel
)

func (e PhaseEvent) String() string {
	switch e {
	case EventGoalMet:
		return "goal met"
	case EventGoalMissed:
		return "goal missed"
	case EventCancel:
		return "cancel"
	}
	return fmt.Sprintf("unknown(%d)", uint8(e))
}

// Transition returns the phase that follows p on event e, or the error describing why e is not applicable.
//
//	Open --goal met--> Successful --cancel--> Cancelled
//	Open --goal missed--> Failed
func Transition(p Phase, e PhaseEvent) (Phase, error) {
	switch e {
	case EventGoalMet, EventGoalMissed:
		if p != PhaseOpen {
			return p, ErrAlreadyFinalized
		}
		if e == EventGoalMet {
			return PhaseSuccessful, nil
		}
		return PhaseFailed, nil
	case EventCancel:
		switch p {
		case PhaseSuccessful:
			return PhaseCancelled, nil
		case PhaseOpen:
			return p, ErrNotYetFinalized
		default:
			return p, ErrGoalNotReached
		}
	}
	return p, fmt.Errorf("unknown phase event %d", e)
}

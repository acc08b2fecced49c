package session

// Outcome is the result of handling one input in the current state.
type Outcome int

const (
	// OutcomeResolved means every location in the input was resolved.
	OutcomeResolved Outcome = iota + 1
	// OutcomeRejected means resolution failed; the step is retried.
	OutcomeRejected
	OutcomeYes
	OutcomeNo
	OutcomeDaysChosen
)

func (o Outcome) String() string {
	switch o {
	case OutcomeResolved:
		return "resolved"
	case OutcomeRejected:
		return "rejected"
	case OutcomeYes:
		return "yes"
	case OutcomeNo:
		return "no"
	case OutcomeDaysChosen:
		return "days_chosen"
	default:
		return "unknown"
	}
}

var transitions = map[State]map[Outcome]State{
	StateAwaitingStart: {
		OutcomeResolved: StateAwaitingEnd,
		OutcomeRejected: StateAwaitingStart,
	},
	StateAwaitingEnd: {
		OutcomeResolved: StateAwaitingStopsOrConfirm,
		OutcomeRejected: StateAwaitingEnd,
	},
	StateAwaitingStopsOrConfirm: {
		OutcomeYes: StateAwaitingStops,
		OutcomeNo:  StateAwaitingDays,
	},
	StateAwaitingStops: {
		OutcomeResolved: StateAwaitingStopsOrConfirm,
		OutcomeRejected: StateAwaitingStops,
	},
	StateAwaitingDays: {
		OutcomeDaysChosen: StateTerminal,
	},
}

// Transition returns the state that follows from outcome in state. ok is
// false when the outcome is not accepted in that state; the caller ignores
// the input and stays put.
func Transition(state State, outcome Outcome) (next State, ok bool) {
	next, ok = transitions[state][outcome]
	if !ok {
		return state, false
	}
	return next, true
}

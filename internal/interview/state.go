package interview

import (
	"fmt"
)

// Phase is the engine's coarse state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReady
	PhaseGreeting
	PhaseAsking
	PhaseListening
	PhaseProcessing
	PhaseSaving
	PhaseDone
)

var phaseNames = [...]string{"idle", "ready", "greeting", "asking", "listening", "processing", "saving", "done"}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// State is a phase plus the question it concerns. Question is -1 for phases
// that are not tied to a question.
type State struct {
	Phase    Phase `json:"phase"`
	Question int   `json:"question"`
}

func (s State) String() string {
	if s.bound() {
		return fmt.Sprintf("%s(%d)", s.Phase, s.Question)
	}
	return s.Phase.String()
}

func (s State) bound() bool {
	return s.Phase == PhaseAsking || s.Phase == PhaseListening || s.Phase == PhaseProcessing
}

func idle() State            { return State{Phase: PhaseIdle, Question: -1} }
func ready() State           { return State{Phase: PhaseReady, Question: -1} }
func greeting() State        { return State{Phase: PhaseGreeting, Question: -1} }
func asking(i int) State     { return State{Phase: PhaseAsking, Question: i} }
func listening(i int) State  { return State{Phase: PhaseListening, Question: i} }
func processing(i int) State { return State{Phase: PhaseProcessing, Question: i} }
func saving(last int) State  { return State{Phase: PhaseSaving, Question: last} }
func done(last int) State    { return State{Phase: PhaseDone, Question: last} }

// Terminal reports whether no run is in flight in this state.
func (s State) Terminal() bool {
	return s.Phase == PhaseIdle || s.Phase == PhaseReady || s.Phase == PhaseDone
}

// validTransition encodes the interview state machine. n is the number of questions.
// Cancellation (any state to idle) is handled separately.
func validTransition(from, to State, n int) bool {
	switch from.Phase {
	case PhaseReady:
		return to.Phase == PhaseGreeting
	case PhaseGreeting:
		return to == asking(0)
	case PhaseAsking:
		return to == listening(from.Question)
	case PhaseListening:
		return to == listening(from.Question) || to == processing(from.Question)
	case PhaseProcessing:
		if from.Question+1 < n {
			return to == asking(from.Question+1)
		}
		return to == saving(from.Question)
	case PhaseSaving:
		return to == done(from.Question)
	}
	return false
}

package wizard

// State is the single tagged state of a wizard session. Every transition
// is checked against it; an operation fired in the wrong state returns
// an invalid-state error instead of silently proceeding.
type State string

const (
	StateStep1Editing    State = "step1_editing"
	StateStep1Validating State = "step1_validating"
	StateStep2Editing    State = "step2_editing"
	StateStep2Submitting State = "step2_submitting"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

// editable reports whether the draft may be modified in this state.
func (s State) editable() bool {
	return s == StateStep1Editing || s == StateStep2Editing
}

// terminal reports whether the session has finished, successfully or not.
func (s State) terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

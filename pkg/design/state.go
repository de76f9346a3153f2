package design

// State is a stage of a design request.
type State string

// Request states in the order a successful request passes through them.
const (
	StateReceived          State = "received"
	StatePromptingModel    State = "prompting-model"
	StateAwaitingToolCall  State = "awaiting-tool-call"
	StateProcessingLayouts State = "processing-layouts"
	StateAssemblingRoot    State = "assembling-root"
	StateDone              State = "done"
	StateFailed            State = "failed"
)

var next = map[State]State{
	StateReceived:          StatePromptingModel,
	StatePromptingModel:    StateAwaitingToolCall,
	StateAwaitingToolCall:  StateProcessingLayouts,
	StateProcessingLayouts: StateAssemblingRoot,
	StateAssemblingRoot:    StateDone,
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// CanTransition reports whether a request may move from s to to. Every
// non-terminal state may fail.
func (s State) CanTransition(to State) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[s] == to
}

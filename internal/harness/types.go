package harness

import "github.com/roach88/callerid/internal/callstate"

// Trace entry kinds added by the harness next to the machine's own step
// kinds.
const (
	KindInput = "input"
)

// TraceEvent is one line of the scenario trace: either a scenario input or
// a step reported by the machine.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Call   string `json:"call,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Errors holds one message per failed assertion.
	Errors []string `json:"errors,omitempty"`

	// State is the machine's final state.
	State string `json:"state"`

	// Overlay is the caller name on the overlay left attached, if any.
	Overlay string `json:"overlay,omitempty"`

	Stats callstate.Stats `json:"stats"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addInput records a scenario input.
func (r *Result) addInput(detail string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Kind:   KindInput,
		Detail: detail,
	})
}

// addStep records a machine step.
func (r *Result) addStep(s callstate.Step) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Kind:   s.Kind,
		From:   s.From,
		To:     s.To,
		Call:   s.Call,
		Detail: s.Detail,
	})
}

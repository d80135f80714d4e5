// Package callstate turns telephony call-state events into overlay show and
// dismiss actions.
//
// The machine moves through four states:
//
//	Idle      --RINGING (permitted, popup on, number known)--> LookingUp
//	LookingUp --hit--> Showing        (overlay added after ShowDelay)
//	LookingUp --miss or timeout--> Idle
//	Showing   --user dismiss--> Dismissed
//	any       --OFFHOOK / IDLE--> Idle
//
// RINGING outside Idle is ignored, so one call never stacks overlays or
// repeats its lookup. Each call carries a token; a lookup result or a show
// timer that belongs to an older call does nothing.
package callstate

import "fmt"

// State is the machine's state.
type State int

const (
	Idle State = iota
	LookingUp
	Showing
	Dismissed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case LookingUp:
		return "LOOKING_UP"
	case Showing:
		return "SHOWING"
	case Dismissed:
		return "DISMISSED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText renders the state name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CallState is the telephony state carried by an event.
type CallState string

const (
	CallRinging CallState = "RINGING"
	CallOffhook CallState = "OFFHOOK"
	CallIdle    CallState = "IDLE"
)

// Event is one telephony state change. Number is empty when the platform
// did not report it.
type Event struct {
	State  CallState `json:"state" yaml:"state"`
	Number string    `json:"number,omitempty" yaml:"number,omitempty"`
}

// Stats counts what the machine has done since it was created.
type Stats struct {
	Lookups    int `json:"lookups"`
	Misses     int `json:"misses"`
	Timeouts   int `json:"timeouts"`
	Shows      int `json:"shows"`
	Dismissals int `json:"dismissals"`
	Ignored    int `json:"ignored"`
}

// Step kinds reported to an Observer.
const (
	StepTransition     = "transition"
	StepOverlayShown   = "overlay_shown"
	StepOverlayRemoved = "overlay_removed"
	StepIgnored        = "ignored"
	StepStale          = "stale"
)

// Step is one observable action of the machine.
type Step struct {
	Kind   string `json:"kind" yaml:"kind"`
	From   string `json:"from,omitempty" yaml:"from,omitempty"`
	To     string `json:"to,omitempty" yaml:"to,omitempty"`
	Call   string `json:"call,omitempty" yaml:"call,omitempty"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Observer receives every Step. It is called with the machine's lock held
// and must not call back into the machine.
type Observer func(Step)

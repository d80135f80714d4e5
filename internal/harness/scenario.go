package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/callerid/internal/caller"
	"github.com/roach88/callerid/internal/callstate"
)

// Scenario is one telephony script with its expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Records are stored before the first step.
	Records []caller.Record `yaml:"records,omitempty"`

	Settings SettingsSetup `yaml:"settings,omitempty"`
	Platform PlatformSetup `yaml:"platform,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions"`
}

// SettingsSetup seeds persisted settings. Nil leaves the default.
type SettingsSetup struct {
	ShowPopup *bool `yaml:"show_popup,omitempty"`
}

// PlatformSetup configures the stand-in OS. Nil permission means granted.
type PlatformSetup struct {
	OverlayPermission *bool  `yaml:"overlay_permission,omitempty"`
	LockScreen        bool   `yaml:"lock_screen,omitempty"`
	ShowDelay         string `yaml:"show_delay,omitempty"`
}

// Step is one scenario input. Exactly one field group is set.
type Step struct {
	// Event is RINGING, OFFHOOK or IDLE; Number goes with it.
	Event  string `yaml:"event,omitempty"`
	Number string `yaml:"number,omitempty"`

	// CallServiceNumber sets the number reported by call screening.
	CallServiceNumber string `yaml:"call_service_number,omitempty"`

	// Advance moves the fake clock, e.g. "1s".
	Advance string `yaml:"advance,omitempty"`

	// Dismiss presses the overlay's close control.
	Dismiss bool `yaml:"dismiss,omitempty"`
}

// Assertion validates the trace or the final machine state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Kind and Detail select trace entries (trace_contains, trace_count).
	Kind   string `yaml:"kind,omitempty"`
	Detail string `yaml:"detail,omitempty"`

	// Count is the expected number of entries (trace_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected order of first occurrences (trace_order).
	Kinds []string `yaml:"kinds,omitempty"`

	// State is the expected final state (final_state).
	State string `yaml:"state,omitempty"`

	// Caller is the expected overlay caller name, empty for none (overlay).
	Caller string `yaml:"caller,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertOverlay       = "overlay"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Platform.ShowDelay != "" {
		if _, err := time.ParseDuration(s.Platform.ShowDelay); err != nil {
			return fmt.Errorf("platform.show_delay: %w", err)
		}
	}

	for i, rec := range s.Records {
		if !rec.Valid() {
			return fmt.Errorf("records[%d]: name and fullPhoneNumber are required", i)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	set := 0
	if step.Event != "" {
		set++
		switch callstate.CallState(step.Event) {
		case callstate.CallRinging, callstate.CallOffhook, callstate.CallIdle:
		default:
			return fmt.Errorf("unknown event %q", step.Event)
		}
	} else if step.Number != "" {
		return fmt.Errorf("number is only valid with an event")
	}
	if step.CallServiceNumber != "" {
		set++
	}
	if step.Advance != "" {
		set++
		if d, err := time.ParseDuration(step.Advance); err != nil || d < 0 {
			return fmt.Errorf("advance %q is not a non-negative duration", step.Advance)
		}
	}
	if step.Dismiss {
		set++
	}

	if set != 1 {
		return fmt.Errorf("exactly one of event, call_service_number, advance, dismiss is required")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("trace_contains requires kind")
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("trace_count requires kind")
		}
		if a.Count < 0 {
			return fmt.Errorf("trace_count requires a non-negative count")
		}
	case AssertTraceOrder:
		if len(a.Kinds) < 2 {
			return fmt.Errorf("trace_order requires at least two kinds")
		}
	case AssertFinalState:
		if a.State == "" {
			return fmt.Errorf("final_state requires state")
		}
	case AssertOverlay:
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

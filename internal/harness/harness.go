package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/callerid/internal/callstate"
	"github.com/roach88/callerid/internal/platform"
	"github.com/roach88/callerid/internal/store"
	"github.com/roach88/callerid/internal/testutil"
	"github.com/roach88/callerid/internal/token"
)

// epoch is the fake clock's start. Only differences matter.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store   *store.Store
	repo    *store.Repository
	clock   *testutil.FakeClock
	static  *platform.Static
	windows *platform.LogWindowManager
	machine *callstate.Machine
	logger  *slog.Logger
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
	driver string
}

// WithLogger sends component logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// WithDriver selects the sqlite driver for the scratch store.
func WithDriver(name string) Option {
	return func(c *runConfig) { c.driver = name }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh database in a scratch directory, a
// fake clock and sequential call tokens (call-1, call-2, ...).
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	rc := runConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		driver: store.DriverMattn,
	}
	for _, opt := range opts {
		opt(&rc)
	}

	dir, err := os.MkdirTemp("", "callerid-harness-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	st, err := store.Open(filepath.Join(dir, "harness.db"), store.WithDriver(rc.driver))
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	h, err := newHarness(ctx, st, scenario, rc.logger)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	h.machine = callstate.New(
		machineConfig(scenario),
		callstate.Deps{
			Lookup:     h.repo,
			Permission: h.static,
			Popup:      h.repo,
			Windows:    h.windows,
		},
		callstate.WithScheduler(h.clock),
		callstate.WithTokenGenerator(token.NewSequenceGenerator("call")),
		callstate.WithLogger(h.logger),
		callstate.WithObserver(result.addStep),
	)

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	result.State = h.machine.State().String()
	result.Stats = h.machine.Stats()
	if v, ok := h.machine.CurrentView(); ok {
		result.Overlay = v.Content.CallerName
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(ctx context.Context, st *store.Store, scenario *Scenario, logger *slog.Logger) (*Harness, error) {
	h := &Harness{
		store:   st,
		repo:    store.NewRepository(st, logger),
		clock:   testutil.NewFakeClock(epoch),
		windows: platform.NewLogWindowManager(logger),
		logger:  logger,
	}

	granted := true
	if p := scenario.Platform.OverlayPermission; p != nil {
		granted = *p
	}
	h.static = platform.NewStatic(granted, false, "")

	if len(scenario.Records) > 0 {
		if err := st.PutMany(ctx, scenario.Records); err != nil {
			return nil, fmt.Errorf("failed to seed records: %w", err)
		}
	}
	if show := scenario.Settings.ShowPopup; show != nil {
		if err := st.Settings().SetShowPopup(ctx, *show); err != nil {
			return nil, fmt.Errorf("failed to seed settings: %w", err)
		}
	}
	return h, nil
}

func machineConfig(s *Scenario) callstate.Config {
	cfg := callstate.Config{
		AppName:     "Caller ID",
		ShowAppIcon: true,
		LockScreen:  s.Platform.LockScreen,
	}
	if s.Platform.ShowDelay != "" {
		// Validated at load time.
		cfg.ShowDelay, _ = time.ParseDuration(s.Platform.ShowDelay)
	}
	return cfg
}

// executeStep applies one scenario input to the machine.
func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) error {
	switch {
	case step.Event != "":
		detail := step.Event
		if step.Number != "" {
			detail += " " + step.Number
		}
		result.addInput(detail)
		h.machine.HandleEvent(ctx, callstate.Event{
			State:  callstate.CallState(step.Event),
			Number: step.Number,
		})
	case step.CallServiceNumber != "":
		result.addInput("call service number " + step.CallServiceNumber)
		h.machine.SetCallServiceNumber(step.CallServiceNumber)
	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		result.addInput("advance " + d.String())
		h.clock.Advance(d)
	case step.Dismiss:
		result.addInput("dismiss")
		h.machine.Dismiss()
	default:
		return fmt.Errorf("empty step")
	}
	return nil
}

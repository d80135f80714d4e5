package callstate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/callerid/internal/caller"
	"github.com/roach88/callerid/internal/platform"
	"github.com/roach88/callerid/internal/token"
)

const (
	// DefaultShowDelay gives a locked device time to wake before the
	// overlay is added.
	DefaultShowDelay = 1000 * time.Millisecond
	// DefaultLookupTimeout bounds the store read made while the phone rings.
	DefaultLookupTimeout = 2 * time.Second
)

// Lookuper finds the record for an incoming number, nil on a miss or any
// failure.
type Lookuper interface {
	Lookup(ctx context.Context, number string) *caller.Record
}

// PopupSetting reports the user's overlay switch.
type PopupSetting interface {
	ShowPopup(ctx context.Context) bool
}

// Timer is a scheduled callback that can be cancelled.
type Timer = interface{ Stop() bool }

// Scheduler runs a callback after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Config holds the machine's tunables.
type Config struct {
	AppName       string
	ShowAppIcon   bool
	ShowDelay     time.Duration
	LookupTimeout time.Duration
	// LockScreen requests the show-when-locked and dismiss-keyguard flags.
	LockScreen bool
}

// Deps are the machine's collaborators.
type Deps struct {
	Lookup     Lookuper
	Permission platform.OverlayPermission
	Popup      PopupSetting
	Windows    platform.WindowManager
}

// Machine is the call event state machine. HandleEvent may be called from
// any goroutine; Enqueue and Run offer a queued alternative.
type Machine struct {
	cfg      Config
	deps     Deps
	sched    Scheduler
	tokens   token.Generator
	logger   *slog.Logger
	observer Observer

	mu                sync.Mutex
	state             State
	call              string
	callServiceNumber string
	timer             Timer
	overlay           *Overlay
	stats             Stats

	queue   *eventQueue
	pending sync.WaitGroup
}

// Option configures a Machine.
type Option func(*Machine)

// WithScheduler overrides time.AfterFunc.
func WithScheduler(s Scheduler) Option {
	return func(m *Machine) { m.sched = s }
}

// WithTokenGenerator overrides the UUIDv7 call token generator.
func WithTokenGenerator(g token.Generator) Option {
	return func(m *Machine) { m.tokens = g }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithObserver registers fn to receive every Step.
func WithObserver(fn Observer) Option {
	return func(m *Machine) { m.observer = fn }
}

// New returns an Idle machine.
func New(cfg Config, deps Deps, opts ...Option) *Machine {
	if cfg.ShowDelay <= 0 {
		cfg.ShowDelay = DefaultShowDelay
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = DefaultLookupTimeout
	}

	m := &Machine{
		cfg:    cfg,
		deps:   deps,
		sched:  realScheduler{},
		tokens: token.UUIDv7Generator{},
		logger: slog.Default(),
		queue:  newEventQueue(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "callstate")
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Stats returns a copy of the counters.
func (m *Machine) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// CurrentView returns the overlay view while one is attached.
func (m *Machine) CurrentView() (platform.View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.overlay == nil || !m.overlay.Attached() {
		return platform.View{}, false
	}
	return m.overlay.View(), true
}

// SetCallServiceNumber records the number reported by the call screening
// path. It is used when a RINGING event arrives without a number and is
// cleared when the call ends.
func (m *Machine) SetCallServiceNumber(number string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callServiceNumber = number
}

// CallServiceNumber returns the cached call-service number.
func (m *Machine) CallServiceNumber() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callServiceNumber
}

// HandleEvent applies ev and returns once its lookup, if any, has finished.
func (m *Machine) HandleEvent(ctx context.Context, ev Event) {
	defer m.recoverEvent(ev)

	switch ev.State {
	case CallRinging:
		call, number, ok := m.beginRinging(ctx, ev)
		if ok {
			m.completeLookup(ctx, call, number)
		}
	case CallOffhook, CallIdle:
		m.endCall(string(ev.State))
	default:
		m.logger.Warn("unknown call state", "state", ev.State)
	}
}

// Dismiss is the overlay's close control. The view is removed and RINGING
// is ignored until the call ends.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != LookingUp && m.state != Showing {
		return
	}
	m.teardownLocked()
	m.call = ""
	m.setStateLocked(Dismissed, "user dismissed")
}

// beginRinging checks the gates and moves Idle to LookingUp. It returns the
// new call token and the number to look up.
func (m *Machine) beginRinging(ctx context.Context, ev Event) (string, string, bool) {
	if !m.deps.Permission.CanDrawOverlays() {
		m.logger.Debug("overlay permission not granted")
		return "", "", false
	}
	if !m.deps.Popup.ShowPopup(ctx) {
		m.logger.Debug("popup disabled")
		return "", "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != Idle {
		m.stats.Ignored++
		m.emitLocked(Step{Kind: StepIgnored, From: m.state.String(), Call: m.call, Detail: string(ev.State)})
		return "", "", false
	}

	number := ev.Number
	if number == "" {
		number = m.callServiceNumber
	}
	number = caller.StripPlus(number)
	if number == "" {
		m.logger.Debug("ringing without a number")
		return "", "", false
	}

	m.call = m.tokens.Generate()
	m.stats.Lookups++
	m.setStateLocked(LookingUp, "ringing "+number)
	return m.call, number, true
}

// completeLookup runs the bounded lookup for call and applies the result if
// call is still current.
func (m *Machine) completeLookup(ctx context.Context, call, number string) {
	rec, timedOut := m.lookup(ctx, number)

	// Decoding the photo can be slow; keep it outside the lock.
	var content platform.OverlayContent
	if rec != nil {
		content = BuildContent(*rec, m.cfg.AppName, m.cfg.ShowAppIcon)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.call != call || m.state != LookingUp {
		m.emitLocked(Step{Kind: StepStale, Call: call, Detail: "lookup"})
		return
	}

	if rec == nil {
		if timedOut {
			m.stats.Timeouts++
		}
		m.stats.Misses++
		m.call = ""
		m.setStateLocked(Idle, "no record")
		return
	}

	m.setStateLocked(Showing, "record found")
	m.timer = m.sched.AfterFunc(m.cfg.ShowDelay, func() {
		m.show(call, content)
	})
}

// lookup bounds the store read by LookupTimeout. A timeout is a miss.
func (m *Machine) lookup(ctx context.Context, number string) (*caller.Record, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.LookupTimeout)
	defer cancel()

	done := make(chan *caller.Record, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				m.logger.Error("lookup panicked", "panic", p)
				done <- nil
			}
		}()
		done <- m.deps.Lookup.Lookup(ctx, number)
	}()

	select {
	case rec := <-done:
		return rec, false
	case <-ctx.Done():
		m.logger.Warn("lookup timed out", "number", number, "timeout", m.cfg.LookupTimeout)
		return nil, true
	}
}

// show runs when the show delay elapses. The call token is checked again
// here: the call may have ended while the timer was pending.
func (m *Machine) show(call string, content platform.OverlayContent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.call != call || m.state != Showing {
		m.emitLocked(Step{Kind: StepStale, Call: call, Detail: "show"})
		return
	}
	m.timer = nil

	if m.overlay == nil {
		m.overlay = newOverlay(call, m.deps.Windows, m.logger)
	}
	if err := m.overlay.Show(content, platform.OverlayParams(m.cfg.LockScreen)); err != nil {
		m.logger.Error("add overlay view", "call", call, "error", err)
		return
	}
	m.stats.Shows++
	m.emitLocked(Step{Kind: StepOverlayShown, Call: call, Detail: content.CallerName})
}

// endCall handles OFFHOOK and IDLE.
func (m *Machine) endCall(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// A missed or gated call already went back to Idle; its fallback number
	// must not carry over to the next call.
	m.callServiceNumber = ""
	if m.state == Idle {
		return
	}
	m.teardownLocked()
	m.call = ""
	m.setStateLocked(Idle, "call "+reason)
}

// teardownLocked cancels a pending show and removes the overlay.
func (m *Machine) teardownLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.overlay != nil {
		if m.overlay.Dismiss() {
			m.stats.Dismissals++
			m.emitLocked(Step{Kind: StepOverlayRemoved, Call: m.call})
		}
		m.overlay = nil
	}
}

func (m *Machine) setStateLocked(to State, why string) {
	from := m.state
	m.state = to
	m.logger.Debug("state change", "from", from, "to", to, "call", m.call, "reason", why)
	m.emitLocked(Step{Kind: StepTransition, From: from.String(), To: to.String(), Call: m.call, Detail: why})
}

func (m *Machine) emitLocked(s Step) {
	if m.observer != nil {
		m.observer(s)
	}
}

func (m *Machine) recoverEvent(ev Event) {
	if p := recover(); p != nil {
		m.logger.Error("event handling panicked", "state", ev.State, "panic", p)
	}
}

// Enqueue queues ev for Run. Returns false once Run has stopped.
func (m *Machine) Enqueue(ev Event) bool {
	return m.queue.Enqueue(ev)
}

// Run processes queued events until ctx is done. A RINGING event's gating
// and state change happen in order with the rest of the queue; its lookup
// finishes on its own goroutine so a following IDLE is handled at once.
func (m *Machine) Run(ctx context.Context) error {
	defer m.pending.Wait()

	for {
		m.drain(ctx)

		select {
		case <-ctx.Done():
			m.queue.Close()
			m.Close()
			return ctx.Err()
		case _, ok := <-m.queue.Wait():
			if !ok {
				m.drain(ctx)
				return nil
			}
		}
	}
}

func (m *Machine) drain(ctx context.Context) {
	for {
		ev, ok := m.queue.TryDequeue()
		if !ok {
			return
		}
		m.dispatch(ctx, ev)
	}
}

func (m *Machine) dispatch(ctx context.Context, ev Event) {
	defer m.recoverEvent(ev)

	if ev.State != CallRinging {
		m.HandleEvent(ctx, ev)
		return
	}

	call, number, ok := m.beginRinging(ctx, ev)
	if !ok {
		return
	}
	m.pending.Add(1)
	go func() {
		defer m.pending.Done()
		defer m.recoverEvent(ev)
		m.completeLookup(context.WithoutCancel(ctx), call, number)
	}()
}

// Wait blocks until every lookup started by Run has finished.
func (m *Machine) Wait() {
	m.pending.Wait()
}

// Close stops the event queue and removes any overlay.
func (m *Machine) Close() {
	m.queue.Close()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	m.call = ""
	if m.state != Idle {
		m.setStateLocked(Idle, "shutdown")
	}
}

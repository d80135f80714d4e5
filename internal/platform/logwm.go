package platform

import (
	"log/slog"
	"sync"
)

// LogWindowManager is a WindowManager with no screen: it records the
// attached view and logs every change.
//
// Thread-safety: All methods are safe for concurrent use.
type LogWindowManager struct {
	logger *slog.Logger

	mu      sync.Mutex
	current *View
	added   int
	removed int
}

// NewLogWindowManager returns an empty window manager.
func NewLogWindowManager(logger *slog.Logger) *LogWindowManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogWindowManager{logger: logger.With("component", "window")}
}

// AddView attaches v. Only one view may be attached at a time.
func (w *LogWindowManager) AddView(v View) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current != nil {
		return ErrViewAttached
	}
	w.current = &v
	w.added++
	w.logger.Info("overlay shown",
		"view", v.ID,
		"caller", v.Content.CallerName,
		"appointment", v.Content.Appointment,
		"location", v.Content.Location,
		"photo", v.Content.Photo != nil,
	)
	return nil
}

// RemoveView detaches v if it is the attached view.
func (w *LogWindowManager) RemoveView(v View) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil || w.current.ID != v.ID {
		return ErrViewNotAttached
	}
	w.current = nil
	w.removed++
	w.logger.Info("overlay removed", "view", v.ID)
	return nil
}

// Current returns the attached view, if any.
func (w *LogWindowManager) Current() (View, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current == nil {
		return View{}, false
	}
	return *w.current, true
}

// Counts returns how many views have been added and removed.
func (w *LogWindowManager) Counts() (added, removed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.added, w.removed
}

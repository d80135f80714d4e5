package callstate

import (
	"bytes"
	"log/slog"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/roach88/callerid/internal/caller"
	"github.com/roach88/callerid/internal/photocache"
	"github.com/roach88/callerid/internal/platform"
)

// Overlay owns at most one view in the window manager. Dismiss is safe to
// call at any time, any number of times.
type Overlay struct {
	id     string
	wm     platform.WindowManager
	logger *slog.Logger

	mu       sync.Mutex
	view     platform.View
	attached bool
}

func newOverlay(id string, wm platform.WindowManager, logger *slog.Logger) *Overlay {
	return &Overlay{id: id, wm: wm, logger: logger}
}

// Show fills the view and attaches it if it is not attached yet. An attached
// view keeps its window and only has its content replaced.
func (o *Overlay) Show(content platform.OverlayContent, params platform.WindowParams) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.view = platform.View{ID: o.id, Content: content, Params: params}
	if o.attached {
		return nil
	}
	if err := o.wm.AddView(o.view); err != nil {
		return err
	}
	o.attached = true
	return nil
}

// Dismiss detaches the view. Reports whether a view was attached.
func (o *Overlay) Dismiss() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.attached {
		return false
	}
	if err := o.wm.RemoveView(o.view); err != nil {
		o.logger.Error("remove overlay view", "view", o.id, "error", err)
	}
	o.attached = false
	return true
}

// Attached reports whether the view is in the window manager.
func (o *Overlay) Attached() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attached
}

// View returns the last view shown.
func (o *Overlay) View() platform.View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view
}

// BuildContent lays out rec for the overlay. Empty appointment and location
// stay empty, which hides them. The photo is kept only if it decodes as an
// image.
func BuildContent(rec caller.Record, appName string, showAppIcon bool) platform.OverlayContent {
	content := platform.OverlayContent{
		AppName:     appName,
		ShowAppIcon: showAppIcon,
		CallerName:  rec.DisplayName(),
		Appointment: rec.Appointment,
		Location:    rec.Location,
	}
	if rec.Photo == "" {
		return content
	}

	mime, data, err := photocache.Decode(rec.Photo)
	if err != nil {
		return content
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return content
	}
	content.Photo = data
	content.PhotoMime = mime
	return content
}

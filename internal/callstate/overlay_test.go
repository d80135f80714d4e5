package callstate

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callerid/internal/platform"
)

// failingWindows refuses every AddView.
type failingWindows struct{}

func (failingWindows) AddView(platform.View) error    { return errors.New("window token invalid") }
func (failingWindows) RemoveView(platform.View) error { return nil }

func TestOverlay_ShowIsIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wm := platform.NewLogWindowManager(logger)
	o := newOverlay("call-1", wm, logger)

	require.NoError(t, o.Show(platform.OverlayContent{CallerName: "Asha"}, platform.OverlayParams(false)))
	require.NoError(t, o.Show(platform.OverlayContent{CallerName: "Asha Rao"}, platform.OverlayParams(false)))

	added, _ := wm.Counts()
	assert.Equal(t, 1, added)
	assert.True(t, o.Attached())
	assert.Equal(t, "Asha Rao", o.View().Content.CallerName)
}

func TestOverlay_DismissIsIdempotent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	wm := platform.NewLogWindowManager(logger)
	o := newOverlay("call-1", wm, logger)

	assert.False(t, o.Dismiss(), "nothing attached yet")

	require.NoError(t, o.Show(platform.OverlayContent{}, platform.OverlayParams(true)))
	assert.True(t, o.Dismiss())
	assert.False(t, o.Dismiss())

	_, removed := wm.Counts()
	assert.Equal(t, 1, removed)
}

func TestOverlay_AddFailureLeavesDetached(t *testing.T) {
	o := newOverlay("call-1", failingWindows{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, o.Show(platform.OverlayContent{}, platform.OverlayParams(false)))
	assert.False(t, o.Attached())
	assert.False(t, o.Dismiss())
}

package platform

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Permission(t *testing.T) {
	ctx := context.Background()

	denied := NewStatic(false, false, "in")
	assert.False(t, denied.CanDrawOverlays())
	assert.False(t, denied.RequestOverlayPermission(ctx))

	auto := NewStatic(false, true, "in")
	assert.True(t, auto.RequestOverlayPermission(ctx))
	assert.True(t, auto.CanDrawOverlays())

	auto.SetOverlayPermission(false)
	assert.False(t, auto.CanDrawOverlays())
}

func TestStatic_SimCountry(t *testing.T) {
	s := NewStatic(true, false, "in")
	assert.Equal(t, "in", s.SimCountryISO())
	s.SetSimCountry("")
	assert.Equal(t, "", s.SimCountryISO())
}

func TestOverlayParams(t *testing.T) {
	p := OverlayParams(true)
	assert.Equal(t, TypeApplicationOverlay, p.Type)
	assert.False(t, p.Focusable)
	assert.True(t, p.KeepScreenOn)
	assert.True(t, p.TurnScreenOn)
	assert.True(t, p.ShowWhenLocked)
	assert.True(t, p.DismissKeyguard)

	p = OverlayParams(false)
	assert.False(t, p.ShowWhenLocked)
	assert.False(t, p.DismissKeyguard)
}

func TestLogWindowManager(t *testing.T) {
	w := NewLogWindowManager(slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, ok := w.Current()
	assert.False(t, ok)

	v := View{ID: "call-1", Content: OverlayContent{CallerName: "Asha"}}
	require.NoError(t, w.AddView(v))
	assert.ErrorIs(t, w.AddView(View{ID: "call-2"}), ErrViewAttached)

	got, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, "Asha", got.Content.CallerName)

	assert.ErrorIs(t, w.RemoveView(View{ID: "call-2"}), ErrViewNotAttached)
	require.NoError(t, w.RemoveView(v))
	assert.ErrorIs(t, w.RemoveView(v), ErrViewNotAttached)

	added, removed := w.Counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}

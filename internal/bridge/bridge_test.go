package bridge

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callerid/internal/caller"
	"github.com/roach88/callerid/internal/platform"
	"github.com/roach88/callerid/internal/store"
)

func newTestBridge(t *testing.T, static *platform.Static, opts ...Option) (*Bridge, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "callerid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := store.NewRepository(s, logger)
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(repo, static, static, opts...), s
}

func TestBridge_Records(t *testing.T) {
	b, _ := newTestBridge(t, platform.NewStatic(true, false, "in"))
	ctx := context.Background()

	asha := caller.Record{FullPhoneNumber: "919876543210", PhoneNumber: "9876543210", CountryCode: "IN", Name: "Asha"}
	sam := caller.Record{FullPhoneNumber: "14155550100", PhoneNumber: "4155550100", CountryCode: "US", Name: "Sam"}

	require.True(t, b.Put(ctx, asha))
	require.True(t, b.PutMany(ctx, []caller.Record{sam}))

	got := b.Get(ctx, "9876543210")
	require.NotNil(t, got)
	assert.Equal(t, "Asha", got.Name)

	assert.Equal(t, []string{"919876543210", "14155550100"}, keysByName(b.ListAll(ctx)))
	assert.ElementsMatch(t, []string{"919876543210", "14155550100"}, b.ListAllKeys(ctx))

	require.True(t, b.Delete(ctx, "919876543210"))
	assert.Nil(t, b.Get(ctx, "919876543210"))

	require.True(t, b.DeleteMany(ctx, []string{"14155550100"}))
	assert.Empty(t, b.ListAll(ctx))

	require.True(t, b.Put(ctx, asha))
	require.True(t, b.Clear(ctx))
	assert.Empty(t, b.ListAllKeys(ctx))
}

func keysByName(recs []caller.Record) []string {
	keys := make([]string, 0, len(recs))
	for _, r := range recs {
		keys = append(keys, r.FullPhoneNumber)
	}
	return keys
}

func TestBridge_InvalidRecordIsFalse(t *testing.T) {
	b, _ := newTestBridge(t, platform.NewStatic(true, false, ""))
	ctx := context.Background()

	assert.False(t, b.Put(ctx, caller.Record{FullPhoneNumber: "1"}))
	assert.False(t, b.PutMany(ctx, []caller.Record{
		{FullPhoneNumber: "1", Name: "ok"},
		{Name: "no number"},
	}))
	assert.Empty(t, b.ListAll(ctx))
}

func TestBridge_ClosedStore(t *testing.T) {
	b, s := newTestBridge(t, platform.NewStatic(true, false, ""))
	ctx := context.Background()
	require.NoError(t, s.Close())

	assert.Nil(t, b.Get(ctx, "1"))
	assert.False(t, b.Put(ctx, caller.Record{FullPhoneNumber: "1", Name: "x"}))
	assert.Equal(t, []caller.Record{}, b.ListAll(ctx))
	assert.Equal(t, []string{}, b.ListAllKeys(ctx))
	assert.True(t, b.GetShowPopup(ctx), "unreadable switch defaults to on")
	assert.False(t, b.SetShowPopup(ctx, false))
}

func TestBridge_ShowPopup(t *testing.T) {
	b, _ := newTestBridge(t, platform.NewStatic(true, false, ""))
	ctx := context.Background()

	assert.True(t, b.GetShowPopup(ctx))
	require.True(t, b.SetShowPopup(ctx, false))
	assert.False(t, b.GetShowPopup(ctx))
	require.True(t, b.SetShowPopup(ctx, true))
	assert.True(t, b.GetShowPopup(ctx))
}

func TestBridge_GetDialCountryCode(t *testing.T) {
	tests := []struct {
		name string
		sim  string
		opts []Option
		want string
	}{
		{name: "lower-case sim", sim: "us", want: "US"},
		{name: "upper-case sim", sim: "GB", want: "GB"},
		{name: "no sim", sim: "", want: "IN"},
		{name: "garbage sim", sim: "zz9", want: "IN"},
		{name: "configured default", sim: "", opts: []Option{WithDefaultCountry("ae")}, want: "AE"},
		{name: "invalid default ignored", sim: "", opts: []Option{WithDefaultCountry("xyz")}, want: "IN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBridge(t, platform.NewStatic(true, false, tt.sim), tt.opts...)
			assert.Equal(t, tt.want, b.GetDialCountryCode())
		})
	}
}

func TestBridge_OverlayPermission(t *testing.T) {
	ctx := context.Background()

	t.Run("granted", func(t *testing.T) {
		b, _ := newTestBridge(t, platform.NewStatic(true, false, ""))
		assert.True(t, b.HasOverlayPermission())
		assert.True(t, b.RequestOverlayPermission(ctx))
	})

	t.Run("denied", func(t *testing.T) {
		b, _ := newTestBridge(t, platform.NewStatic(false, false, ""))
		assert.False(t, b.HasOverlayPermission())
		assert.False(t, b.RequestOverlayPermission(ctx))
	})

	t.Run("granted on request", func(t *testing.T) {
		b, _ := newTestBridge(t, platform.NewStatic(false, true, ""))
		assert.False(t, b.HasOverlayPermission())
		assert.True(t, b.RequestOverlayPermission(ctx))
		assert.True(t, b.HasOverlayPermission())
	})
}

type panickingPlatform struct{}

func (panickingPlatform) CanDrawOverlays() bool                            { panic("binder died") }
func (panickingPlatform) RequestOverlayPermission(ctx context.Context) bool { panic("binder died") }
func (panickingPlatform) SimCountryISO() string                            { panic("binder died") }

func TestBridge_PlatformPanicsAreContained(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "callerid.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	b := New(store.NewRepository(s, nil), panickingPlatform{}, panickingPlatform{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	assert.NotPanics(t, func() {
		assert.False(t, b.HasOverlayPermission())
		assert.False(t, b.RequestOverlayPermission(context.Background()))
		assert.Equal(t, "IN", b.GetDialCountryCode())
	})
}

// Package bridge is the boundary the UI layer calls into. Every method
// answers with a value, or nil/false when something went wrong; none of
// them returns an error or panics.
package bridge

import (
	"context"
	"log/slog"

	"github.com/roach88/callerid/internal/caller"
	"github.com/roach88/callerid/internal/platform"
	"github.com/roach88/callerid/internal/store"
)

// DefaultDialCountry is reported when the SIM country is unknown.
const DefaultDialCountry = "IN"

// Bridge forwards UI calls to the repository and the platform.
type Bridge struct {
	repo           *store.Repository
	permission     platform.OverlayPermission
	telephony      platform.Telephony
	defaultCountry string
	logger         *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithDefaultCountry overrides DefaultDialCountry. Invalid regions are
// ignored.
func WithDefaultCountry(region string) Option {
	return func(b *Bridge) {
		if r, ok := caller.NormalizeRegion(region); ok {
			b.defaultCountry = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// New returns a Bridge.
func New(repo *store.Repository, permission platform.OverlayPermission, telephony platform.Telephony, opts ...Option) *Bridge {
	b := &Bridge{
		repo:           repo,
		permission:     permission,
		telephony:      telephony,
		defaultCountry: DefaultDialCountry,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "bridge")
	return b
}

func (b *Bridge) recoverCall(op string) {
	if p := recover(); p != nil {
		b.logger.Error("bridge call panicked", "op", op, "panic", p)
	}
}

// Get returns the record stored under number, full or national.
func (b *Bridge) Get(ctx context.Context, number string) *caller.Record {
	return b.repo.Get(ctx, number)
}

func (b *Bridge) Put(ctx context.Context, rec caller.Record) bool {
	return b.repo.Put(ctx, rec)
}

// PutMany stores every record or none.
func (b *Bridge) PutMany(ctx context.Context, recs []caller.Record) bool {
	return b.repo.PutMany(ctx, recs)
}

func (b *Bridge) Delete(ctx context.Context, fullPhoneNumber string) bool {
	return b.repo.Delete(ctx, fullPhoneNumber)
}

func (b *Bridge) DeleteMany(ctx context.Context, keys []string) bool {
	return b.repo.DeleteMany(ctx, keys)
}

func (b *Bridge) ListAll(ctx context.Context) []caller.Record {
	return b.repo.ListAll(ctx)
}

func (b *Bridge) ListAllKeys(ctx context.Context) []string {
	return b.repo.ListAllKeys(ctx)
}

func (b *Bridge) Clear(ctx context.Context) bool {
	return b.repo.Clear(ctx)
}

func (b *Bridge) SetShowPopup(ctx context.Context, show bool) bool {
	return b.repo.SetShowPopup(ctx, show)
}

// GetShowPopup is true unless the user turned the overlay off.
func (b *Bridge) GetShowPopup(ctx context.Context) bool {
	return b.repo.ShowPopup(ctx)
}

// GetDialCountryCode returns the SIM's country as an upper-case ISO code,
// or the default country when the SIM reports nothing usable.
func (b *Bridge) GetDialCountryCode() (region string) {
	region = b.defaultCountry
	defer b.recoverCall("getDialCountryCode")

	if b.telephony == nil {
		return region
	}
	if r, ok := caller.NormalizeRegion(b.telephony.SimCountryISO()); ok {
		return r
	}
	return region
}

func (b *Bridge) HasOverlayPermission() (granted bool) {
	defer b.recoverCall("hasOverlayPermission")
	return b.permission != nil && b.permission.CanDrawOverlays()
}

// RequestOverlayPermission asks the platform for the permission and
// reports whether it is granted afterwards.
func (b *Bridge) RequestOverlayPermission(ctx context.Context) (granted bool) {
	defer b.recoverCall("requestOverlayPermission")

	if b.permission == nil {
		return false
	}
	if b.permission.CanDrawOverlays() {
		return true
	}
	return b.permission.RequestOverlayPermission(ctx)
}

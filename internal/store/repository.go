package store

import (
	"context"
	"log/slog"

	"github.com/roach88/callerid/internal/caller"
)

// Repository wraps a Store for callers that cannot handle errors: the
// directory provider, the call state machine and the UI bridge. Failures
// are logged and turned into nil, false or empty results. Panics are
// recovered the same way.
type Repository struct {
	store    *Store
	settings *Settings
	logger   *slog.Logger
}

// NewRepository returns a Repository over s.
func NewRepository(s *Store, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		store:    s,
		settings: s.Settings(),
		logger:   logger.With("component", "store"),
	}
}

// Store returns the wrapped store.
func (r *Repository) Store() *Store {
	return r.store
}

func (r *Repository) recoverOp(op string) {
	if p := recover(); p != nil {
		r.logger.Error("store operation panicked", "op", op, "panic", p)
	}
}

// Get returns the record for number, or nil on a miss or any failure.
func (r *Repository) Get(ctx context.Context, number string) *caller.Record {
	defer r.recoverOp("get")

	rec, err := r.store.Get(ctx, number)
	if err != nil {
		r.logger.Error("get failed", "number", number, "error", err)
		return nil
	}
	return rec
}

// Lookup strips a leading "+" from an incoming number and calls Get.
func (r *Repository) Lookup(ctx context.Context, number string) *caller.Record {
	return r.Get(ctx, caller.StripPlus(number))
}

// Put reports whether rec was stored.
func (r *Repository) Put(ctx context.Context, rec caller.Record) bool {
	defer r.recoverOp("put")

	if err := r.store.Put(ctx, rec); err != nil {
		r.logger.Error("put failed", "number", rec.FullPhoneNumber, "error", err)
		return false
	}
	return true
}

// PutMany reports whether every record was stored.
func (r *Repository) PutMany(ctx context.Context, recs []caller.Record) bool {
	defer r.recoverOp("putMany")

	if err := r.store.PutMany(ctx, recs); err != nil {
		r.logger.Error("put many failed", "count", len(recs), "error", err)
		return false
	}
	return true
}

// Delete reports whether the delete ran.
func (r *Repository) Delete(ctx context.Context, fullPhoneNumber string) bool {
	defer r.recoverOp("delete")

	if err := r.store.Delete(ctx, fullPhoneNumber); err != nil {
		r.logger.Error("delete failed", "number", fullPhoneNumber, "error", err)
		return false
	}
	return true
}

// DeleteMany reports whether the delete ran.
func (r *Repository) DeleteMany(ctx context.Context, keys []string) bool {
	defer r.recoverOp("deleteMany")

	if err := r.store.DeleteMany(ctx, keys); err != nil {
		r.logger.Error("delete many failed", "count", len(keys), "error", err)
		return false
	}
	return true
}

// ListAll returns every record ordered by name, or an empty slice on failure.
func (r *Repository) ListAll(ctx context.Context) (recs []caller.Record) {
	recs = []caller.Record{}
	defer r.recoverOp("listAll")

	all, err := r.store.ListAll(ctx)
	if err != nil {
		r.logger.Error("list failed", "error", err)
		return recs
	}
	return all
}

// ListAllKeys returns every full phone number, or an empty slice on failure.
func (r *Repository) ListAllKeys(ctx context.Context) (keys []string) {
	keys = []string{}
	defer r.recoverOp("listAllKeys")

	all, err := r.store.ListAllKeys(ctx)
	if err != nil {
		r.logger.Error("list keys failed", "error", err)
		return keys
	}
	return all
}

// Clear reports whether every record was removed.
func (r *Repository) Clear(ctx context.Context) bool {
	defer r.recoverOp("clear")

	if err := r.store.Clear(ctx); err != nil {
		r.logger.Error("clear failed", "error", err)
		return false
	}
	return true
}

// ShowPopup returns the overlay switch, true when it cannot be read.
func (r *Repository) ShowPopup(ctx context.Context) (show bool) {
	show = true
	defer r.recoverOp("showPopup")

	v, err := r.settings.ShowPopup(ctx)
	if err != nil {
		r.logger.Error("read show_popup failed", "error", err)
		return true
	}
	return v
}

// SetShowPopup reports whether the overlay switch was persisted.
func (r *Repository) SetShowPopup(ctx context.Context, show bool) bool {
	defer r.recoverOp("setShowPopup")

	if err := r.settings.SetShowPopup(ctx, show); err != nil {
		r.logger.Error("write show_popup failed", "error", err)
		return false
	}
	return true
}

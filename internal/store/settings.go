package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// KeyShowPopup is the settings key for the overlay on/off switch.
const KeyShowPopup = "show_popup"

// Settings is the persisted key/value preference surface. Booleans are
// stored as "true"/"false".
type Settings struct {
	store *Store
	now   func() time.Time
}

// Settings returns the preference surface backed by s.
func (s *Store) Settings() *Settings {
	return &Settings{store: s, now: time.Now}
}

// Get returns the value stored under key. The second result is false when
// the key has never been set.
func (st *Settings) Get(ctx context.Context, key string) (string, bool, error) {
	st.store.mu.RLock()
	defer st.store.mu.RUnlock()

	var value string
	err := st.store.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value.
func (st *Settings) Set(ctx context.Context, key, value string) error {
	query, args, err := builder.Insert("settings").
		Columns("key", "value", "updated_at").
		Values(key, value, st.now().Unix()).
		Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("set setting %s: build query: %w", key, err)
	}

	st.store.mu.Lock()
	defer st.store.mu.Unlock()

	if _, err := st.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// GetBool returns the boolean stored under key, or def when the key is
// unset or holds something that does not parse as a boolean.
func (st *Settings) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	value, ok, err := st.Get(ctx, key)
	if err != nil {
		return def, err
	}
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return def, nil
	}
	return b, nil
}

// SetBool stores value under key.
func (st *Settings) SetBool(ctx context.Context, key string, value bool) error {
	return st.Set(ctx, key, strconv.FormatBool(value))
}

// ShowPopup reports whether incoming calls should raise the overlay.
// Defaults to true.
func (st *Settings) ShowPopup(ctx context.Context) (bool, error) {
	return st.GetBool(ctx, KeyShowPopup, true)
}

// SetShowPopup persists the overlay switch.
func (st *Settings) SetShowPopup(ctx context.Context, show bool) error {
	return st.SetBool(ctx, KeyShowPopup, show)
}

// Delete removes key. Missing keys are ignored.
func (st *Settings) Delete(ctx context.Context, key string) error {
	query, args, err := builder.Delete("settings").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return fmt.Errorf("delete setting %s: build query: %w", key, err)
	}

	st.store.mu.Lock()
	defer st.store.mu.Unlock()

	if _, err := st.store.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}

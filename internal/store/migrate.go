package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/roach88/callerid/internal/caller"
)

// migration upgrades caller_info by exactly one version inside tx.
type migration func(ctx context.Context, tx *sqlx.Tx) error

// migrations is keyed by the version a step produces.
var migrations = map[int]migration{
	3: migrateToV3,
	4: migrateToV4,
}

// Migrate applies every step between from and to in order, each in its own
// transaction that also records the new user_version. Steps at or below the
// on-disk version are skipped, so calling Migrate on a current schema is a
// no-op.
func (s *Store) Migrate(ctx context.Context, from, to int) error {
	if from >= to {
		return nil
	}
	if from < minSchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedSchema, from)
	}
	if to > CurrentSchemaVersion {
		return fmt.Errorf("%w: %d", ErrSchemaTooNew, to)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	onDisk, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if onDisk > from {
		from = onDisk
	}

	for v := from + 1; v <= to; v++ {
		if err := s.migrateStep(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) migrateStep(ctx context.Context, version int) error {
	step, ok := migrations[version]
	if !ok {
		return fmt.Errorf("migrate to v%d: no migration registered", version)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate to v%d: begin: %w", version, err)
	}
	defer tx.Rollback()

	if err := step(ctx, tx); err != nil {
		return fmt.Errorf("migrate to v%d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("migrate to v%d: set user_version: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate to v%d: commit: %w", version, err)
	}
	return nil
}

// legacyRow is a v2 caller_info row. phoneNumber held the full number.
type legacyRow struct {
	PhoneNumber string `db:"phoneNumber"`
	CountryCode string `db:"countryCode"`
	Name        string `db:"name"`
	Appointment string `db:"appointment"`
	City        string `db:"city"`
	IOSRow      string `db:"iosRow"`
}

const createCallerInfoV3 = `
	CREATE TABLE caller_info_new (
		fullPhoneNumber TEXT PRIMARY KEY NOT NULL,
		phoneNumber TEXT NOT NULL DEFAULT '',
		countryCode TEXT NOT NULL,
		name TEXT NOT NULL,
		appointment TEXT NOT NULL,
		location TEXT NOT NULL,
		iosRow TEXT NOT NULL,
		suffix TEXT NOT NULL DEFAULT '',
		prefix TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		birthday TEXT NOT NULL DEFAULT '',
		labels TEXT NOT NULL DEFAULT '',
		nickname TEXT NOT NULL DEFAULT ''
	)`

// migrateToV3 rebuilds caller_info around fullPhoneNumber. The national
// number is derived with caller.StripCallingCode, which tries the longest
// calling code first and leaves numbers it cannot match untouched. The
// split cannot be redone later, so it happens here rather than in SQL.
func migrateToV3(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, createCallerInfoV3); err != nil {
		return fmt.Errorf("create caller_info_new: %w", err)
	}

	var rows []legacyRow
	err := tx.SelectContext(ctx, &rows, `
		SELECT phoneNumber, countryCode, name, appointment, city, iosRow
		FROM caller_info
	`)
	if err != nil {
		return fmt.Errorf("read legacy rows: %w", err)
	}

	for _, r := range rows {
		query, args, err := builder.Insert("caller_info_new").
			Columns("fullPhoneNumber", "phoneNumber", "countryCode", "name", "appointment", "location", "iosRow").
			Values(r.PhoneNumber, caller.StripCallingCode(r.CountryCode, r.PhoneNumber),
				r.CountryCode, r.Name, r.Appointment, r.City, r.IOSRow).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("copy row %s: %w", r.PhoneNumber, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DROP TABLE caller_info"); err != nil {
		return fmt.Errorf("drop legacy table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "ALTER TABLE caller_info_new RENAME TO caller_info"); err != nil {
		return fmt.Errorf("rename table: %w", err)
	}
	return nil
}

func migrateToV4(ctx context.Context, tx *sqlx.Tx) error {
	_, err := tx.ExecContext(ctx, "ALTER TABLE caller_info ADD COLUMN photo TEXT NOT NULL DEFAULT ''")
	if err != nil {
		return fmt.Errorf("add photo column: %w", err)
	}
	return nil
}

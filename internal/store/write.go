package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/callerid/internal/caller"
)

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// deleteChunk keeps IN lists under SQLite's bound-variable limit.
const deleteChunk = 500

var recordColumns = []string{
	"fullPhoneNumber", "phoneNumber", "countryCode",
	"name", "prefix", "suffix",
	"appointment", "location",
	"email", "notes", "website", "birthday", "labels", "nickname",
	"photo", "iosRow",
}

func recordValues(r caller.Record) []any {
	return []any{
		r.FullPhoneNumber, r.PhoneNumber, r.CountryCode,
		r.Name, r.Prefix, r.Suffix,
		r.Appointment, r.Location,
		r.Email, r.Notes, r.Website, r.Birthday, r.Labels, r.Nickname,
		r.Photo, r.IOSRow,
	}
}

func upsertQuery(r caller.Record) (string, []any, error) {
	return builder.Insert("caller_info").
		Options("OR REPLACE").
		Columns(recordColumns...).
		Values(recordValues(r)...).
		ToSql()
}

// Put inserts rec, replacing any record stored under the same full phone
// number. Numbers are normalized before storage. Records without a name or
// full number are rejected with ErrInvalidRecord.
func (s *Store) Put(ctx context.Context, rec caller.Record) error {
	rec = rec.Normalized()
	if !rec.Valid() {
		return fmt.Errorf("put %q: %w", rec.FullPhoneNumber, ErrInvalidRecord)
	}

	query, args, err := upsertQuery(rec)
	if err != nil {
		return fmt.Errorf("put: build query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put %q: %w", rec.FullPhoneNumber, err)
	}
	return nil
}

// PutMany upserts every record in one transaction. An invalid record aborts
// the batch before anything is written.
func (s *Store) PutMany(ctx context.Context, recs []caller.Record) error {
	if len(recs) == 0 {
		return nil
	}

	normalized := make([]caller.Record, len(recs))
	for i, rec := range recs {
		rec = rec.Normalized()
		if !rec.Valid() {
			return fmt.Errorf("put many: record %d: %w", i, ErrInvalidRecord)
		}
		normalized[i] = rec
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put many: begin: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range normalized {
		query, args, err := upsertQuery(rec)
		if err != nil {
			return fmt.Errorf("put many: build query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("put many %q: %w", rec.FullPhoneNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put many: commit: %w", err)
	}
	return nil
}

// Delete removes the record stored under fullPhoneNumber. Deleting a key
// that does not exist is not an error.
func (s *Store) Delete(ctx context.Context, fullPhoneNumber string) error {
	return s.DeleteMany(ctx, []string{fullPhoneNumber})
}

// DeleteMany removes exactly the listed keys in one transaction.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete: begin: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(keys); start += deleteChunk {
		end := min(start+deleteChunk, len(keys))
		query, args, err := builder.Delete("caller_info").
			Where(sq.Eq{"fullPhoneNumber": keys[start:end]}).
			ToSql()
		if err != nil {
			return fmt.Errorf("delete: build query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete: commit: %w", err)
	}
	return nil
}

// Clear removes every record. Settings are kept.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM caller_info"); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/callerid/internal/caller"
)

// Get returns the record whose full or national number equals number.
// A full-number match wins over a national one. Returns (nil, nil) when no
// record matches.
func (s *Store) Get(ctx context.Context, number string) (*caller.Record, error) {
	if number == "" {
		return nil, nil
	}

	query, args, err := builder.Select(recordColumns...).
		From("caller_info").
		Where(sq.Or{
			sq.Eq{"fullPhoneNumber": number},
			sq.Eq{"phoneNumber": number},
		}).
		OrderByClause("CASE WHEN fullPhoneNumber = ? THEN 0 ELSE 1 END", number).
		OrderBy("fullPhoneNumber ASC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("get: build query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec caller.Record
	if err := s.db.GetContext(ctx, &rec, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get %q: %w", number, err)
	}
	return &rec, nil
}

// ListAll returns every record ordered by name, then full phone number.
// Both use BINARY collation so the order is deterministic.
func (s *Store) ListAll(ctx context.Context) ([]caller.Record, error) {
	query, args, err := builder.Select(recordColumns...).
		From("caller_info").
		OrderBy("name ASC", "fullPhoneNumber ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list: build query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := []caller.Record{}
	if err := s.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return recs, nil
}

// ListAllKeys returns every full phone number in ascending order.
func (s *Store) ListAllKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := []string{}
	err := s.db.SelectContext(ctx, &keys,
		"SELECT fullPhoneNumber FROM caller_info ORDER BY fullPhoneNumber ASC")
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM caller_info"); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

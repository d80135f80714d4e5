package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callerid/internal/caller"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a valid record with the given keys.
func createTestRecord(full, national, name string) caller.Record {
	return caller.Record{
		FullPhoneNumber: full,
		PhoneNumber:     national,
		CountryCode:     "IN",
		Name:            name,
	}
}

// legacyV2Row is a row in the v2 layout: phoneNumber held the full number.
type legacyV2Row struct {
	phone, country, name, appointment, city string
}

// createLegacyV2DB writes a database file in the v2 layout.
func createLegacyV2DB(t *testing.T, path string, rows ...legacyV2Row) {
	t.Helper()
	db, err := sqlx.Open(DriverMattn, path)
	require.NoError(t, err)
	defer db.Close()

	db.MustExec(`
		CREATE TABLE caller_info (
			phoneNumber TEXT PRIMARY KEY NOT NULL,
			countryCode TEXT NOT NULL,
			name TEXT NOT NULL,
			appointment TEXT NOT NULL,
			city TEXT NOT NULL,
			iosRow TEXT NOT NULL
		)
	`)
	for _, r := range rows {
		db.MustExec(
			"INSERT INTO caller_info (phoneNumber, countryCode, name, appointment, city, iosRow) VALUES (?, ?, ?, ?, ?, '')",
			r.phone, r.country, r.name, r.appointment, r.city,
		)
	}
	db.MustExec("PRAGMA user_version = 2")
}

// tableColumns returns the column names of table in declaration order.
func tableColumns(t *testing.T, db *sqlx.DB, table string) []string {
	t.Helper()
	rows, err := db.QueryxContext(context.Background(), "SELECT name FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	return cols
}

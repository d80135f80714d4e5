package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}

	version, err := s.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, createTestRecord("919876543210", "9876543210", "Asha")))
	s.Close()

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		s.Close()
	}

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpen_ModerncDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path, WithDriver(DriverModernc))
	require.NoError(t, err)
	defer s.Close()

	rec := createTestRecord("14155550100", "4155550100", "Sam")
	rec.CountryCode = "US"
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "4155550100")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, rec, *got)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "test.db"), WithDriver("postgres"))
	assert.Error(t, err)
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_RejectsSchemaOlderThanV2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sqlx.Open(DriverMattn, path)
	require.NoError(t, err)
	db.MustExec("CREATE TABLE caller_info (phoneNumber TEXT PRIMARY KEY NOT NULL, name TEXT NOT NULL)")
	db.MustExec("PRAGMA user_version = 1")
	db.Close()

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	s.DB().MustExec("PRAGMA user_version = 5")
	s.Close()

	_, err = Open(path)
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestSchema_CallerInfoColumns(t *testing.T) {
	s := createTestStore(t)

	cols := tableColumns(t, s.DB(), "caller_info")
	assert.ElementsMatch(t, recordColumns, cols)
}

func TestSchema_SettingsTable(t *testing.T) {
	s := createTestStore(t)

	cols := tableColumns(t, s.DB(), "settings")
	assert.Equal(t, []string{"key", "value", "updated_at"}, cols)
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callerid/internal/caller"
	"github.com/roach88/callerid/internal/directory"
	"github.com/roach88/callerid/internal/store"
)

// setupWorkspace isolates a test from the developer's .env and CALLERID_*
// variables and returns a database path inside a scratch directory.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("CALLERID_PHOTO_DIR", filepath.Join(dir, "photos"))
	t.Setenv("CALLERID_SIM_COUNTRY", "")
	t.Setenv("CALLERID_DEFAULT_COUNTRY", "IN")
	return filepath.Join(dir, "callerid.db")
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeData decodes a JSON CLIResponse whose data is a T.
func decodeData[T any](t *testing.T, out string) T {
	t.Helper()
	var resp struct {
		Status string `json:"status"`
		Data   T      `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status, out)
	return resp.Data
}

func TestPutThenGet(t *testing.T) {
	db := setupWorkspace(t)

	_, err := execute(t, "put", "+91 98765 43210", "--db", db,
		"--name", "Asha Rao", "--prefix", "Dr.", "--region", "in", "--appointment", "Cardiologist")
	require.NoError(t, err)

	out, err := execute(t, "get", "9876543210", "--db", db, "--format", "json")
	require.NoError(t, err)

	rec := decodeData[caller.Record](t, out)
	assert.Equal(t, "919876543210", rec.FullPhoneNumber)
	assert.Equal(t, "9876543210", rec.PhoneNumber, "national number derived from the region's calling code")
	assert.Equal(t, "IN", rec.CountryCode)
	assert.Equal(t, "Dr. Asha Rao", rec.DisplayName())

	out, err = execute(t, "get", "+919876543210", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Dr. Asha Rao")
	assert.Contains(t, out, "Cardiologist")
}

func TestPut_KeepsExplicitNationalNumber(t *testing.T) {
	db := setupWorkspace(t)

	_, err := execute(t, "put", "14155550100", "--db", db, "--name", "Front Desk", "--national", "415-555-0100")
	require.NoError(t, err)

	out, err := execute(t, "get", "4155550100", "--db", db, "--format", "json")
	require.NoError(t, err)
	rec := decodeData[caller.Record](t, out)
	assert.Equal(t, "14155550100", rec.FullPhoneNumber)
	assert.Equal(t, "4155550100", rec.PhoneNumber)
}

func TestPut_RequiresName(t *testing.T) {
	db := setupWorkspace(t)

	_, err := execute(t, "put", "14155550100", "--db", db)
	require.Error(t, err)

	_, err = execute(t, "put", "+", "--db", db, "--name", "Nobody")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestGet_NotFound(t *testing.T) {
	db := setupWorkspace(t)

	out, err := execute(t, "get", "911", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

func TestImportListKeys(t *testing.T) {
	db := setupWorkspace(t)

	data := `- fullPhoneNumber: "+919876543210"
  countryCode: IN
  name: Asha Rao
- fullPhoneNumber: "14155550100"
  name: Front Desk
  location: Lobby
- fullPhoneNumber: "15550000000"
`
	path := filepath.Join(t.TempDir(), "contacts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	out, err := execute(t, "import", path, "--db", db, "--format", "json")
	require.NoError(t, err)
	res := decodeData[ImportResult](t, out)
	assert.Equal(t, 2, res.Imported)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, res.Invalid, 1)

	out, err = execute(t, "keys", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"14155550100", "919876543210"}, decodeData[[]string](t, out))

	out, err = execute(t, "list", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Asha Rao")
	assert.Contains(t, out, "Lobby")

	out, err = execute(t, "list", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Len(t, decodeData[[]caller.Record](t, out), 2)
}

func TestImport_JSONFromStdin(t *testing.T) {
	db := setupWorkspace(t)

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(bytes.NewBufferString(`[{"fullPhoneNumber": "14155550100", "name": "Front Desk"}]`))
	cmd.SetArgs([]string{"import", "-", "--db", db})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "imported 1 records, skipped 0")
}

func TestImport_BadFile(t *testing.T) {
	db := setupWorkspace(t)

	_, err := execute(t, "import", filepath.Join(t.TempDir(), "missing.yaml"), "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: not a list\n"), 0o644))
	out, err := execute(t, "import", path, "--db", db)
	require.Error(t, err)
	assert.Contains(t, out, "Error [E006]")
}

func TestDeleteAndClear(t *testing.T) {
	db := setupWorkspace(t)

	for _, n := range []string{"14155550100", "14155550101", "14155550102"} {
		_, err := execute(t, "put", n, "--db", db, "--name", "Desk "+n)
		require.NoError(t, err)
	}

	_, err := execute(t, "delete", "+14155550100", "1 415 555 0101", "19999999999", "--db", db)
	require.NoError(t, err)

	out, err := execute(t, "keys", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, []string{"14155550102"}, decodeData[[]string](t, out))

	_, err = execute(t, "clear", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "clear", "--yes", "--db", db)
	require.NoError(t, err)

	out, err = execute(t, "keys", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Empty(t, decodeData[[]string](t, out))
}

func TestMigrate(t *testing.T) {
	db := setupWorkspace(t)

	out, err := execute(t, "migrate", "--db", db, "--format", "json")
	require.NoError(t, err)
	res := decodeData[MigrateResult](t, out)
	assert.Equal(t, store.CurrentSchemaVersion, res.SchemaVersion)
	assert.Equal(t, db, res.Database)
	assert.Zero(t, res.Records)
}

func TestMigrate_BadConfig(t *testing.T) {
	db := setupWorkspace(t)
	t.Setenv("CALLERID_DB_DRIVER", "postgres")

	out, err := execute(t, "migrate", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}

func TestSettingsShowPopup(t *testing.T) {
	db := setupWorkspace(t)

	out, err := execute(t, "settings", "show-popup", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "show-popup: on\n", out)

	_, err = execute(t, "settings", "show-popup", "off", "--db", db)
	require.NoError(t, err)

	out, err = execute(t, "settings", "show-popup", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"show": false}, decodeData[map[string]bool](t, out))

	_, err = execute(t, "settings", "show-popup", "maybe", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSettingsCountry(t *testing.T) {
	db := setupWorkspace(t)

	out, err := execute(t, "settings", "country", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "IN\n", out)

	t.Setenv("CALLERID_SIM_COUNTRY", "us")
	out, err = execute(t, "settings", "country", "--db", db, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"country": "US"}, decodeData[map[string]string](t, out))
}

func TestLookup(t *testing.T) {
	db := setupWorkspace(t)

	_, err := execute(t, "put", "919876543210", "--db", db,
		"--name", "Asha Rao", "--prefix", "Dr.", "--appointment", "Cardiologist", "--location", "Pune")
	require.NoError(t, err)

	out, err := execute(t, "lookup", "+919876543210", "--db", db, "--format", "json")
	require.NoError(t, err)

	cur := decodeData[directory.Cursor](t, out)
	require.Equal(t, 1, cur.Len())
	name, ok := cur.Value(0, directory.ColLookupName)
	require.True(t, ok)
	assert.Equal(t, "Dr. Asha Rao", name)
	label, _ := cur.Value(0, directory.ColLabel)
	assert.Equal(t, "Cardiologist, Pune", label)

	out, err = execute(t, "lookup", "919876543210", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "display_name:")

	out, err = execute(t, "lookup", "14155550100", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray .env is read.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "IN", cfg.DefaultCountry)
	assert.Equal(t, "Mobile", cfg.DefaultLabel)
	assert.Equal(t, 30*time.Second, cfg.PhotoTTL)
	assert.True(t, cfg.Platform.OverlayPermission)
}

func TestLoad_Defaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := inTempDir(t)
	path := writeFile(t, dir, "callerid.yaml", `
db_path: /var/lib/callerid/callers.db
db_driver: sqlite
listen_addr: ":9000"
log_level: debug
photo_ttl: 45s
show_delay: 500ms
default_country: us
cors_origins:
  - http://localhost:8081
platform:
  overlay_permission: false
  auto_grant: true
  sim_country: gb
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/callerid/callers.db", cfg.DBPath)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.PhotoTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.ShowDelay)
	assert.Equal(t, "US", cfg.DefaultCountry)
	assert.Equal(t, []string{"http://localhost:8081"}, cfg.CORSOrigins)
	assert.False(t, cfg.Platform.OverlayPermission)
	assert.True(t, cfg.Platform.AutoGrant)
	assert.Equal(t, "gb", cfg.Platform.SimCountry)

	// Unset keys keep their defaults.
	assert.Equal(t, "Caller ID", cfg.AppName)
	assert.Equal(t, 2*time.Second, cfg.LookupTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)
	path := writeFile(t, dir, "callerid.yaml", "log_level: debug\n")

	t.Setenv("CALLERID_LOG_LEVEL", "warn")
	t.Setenv("CALLERID_LOOKUP_TIMEOUT", "750ms")
	t.Setenv("CALLERID_AUTO_GRANT", "true")
	t.Setenv("CALLERID_CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 750*time.Millisecond, cfg.LookupTimeout)
	assert.True(t, cfg.Platform.AutoGrant)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := inTempDir(t)
	envFile := writeFile(t, dir, "local.env", "CALLERID_APP_NAME=Clinic Line\n")
	t.Cleanup(func() { os.Unsetenv("CALLERID_APP_NAME") })

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "Clinic Line", cfg.AppName)
}

func TestLoad_EnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := inTempDir(t)
	writeFile(t, dir, ".env", "CALLERID_AUTHORITY=from.dotenv\n")
	t.Setenv("CALLERID_AUTHORITY", "from.environment")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "from.environment", cfg.Authority)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown driver", yaml: "db_driver: postgres\n"},
		{name: "bad log level", yaml: "log_level: chatty\n"},
		{name: "empty db path", yaml: "db_path: \"\"\n"},
		{name: "listen addr without port", yaml: "listen_addr: localhost\n"},
		{name: "authority with slash", yaml: "authority: a/b\n"},
		{name: "zero photo ttl", yaml: "photo_ttl: 0s\n"},
		{name: "unknown country", yaml: "default_country: QQ\n"},
		{name: "bad sim country", yaml: "platform:\n  sim_country: india\n"},
		{name: "bad env duration", env: map[string]string{"CALLERID_PHOTO_TTL": "soon"}},
		{name: "bad env bool", env: map[string]string{"CALLERID_LOCK_SCREEN": "perhaps"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := inTempDir(t)
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, dir, "callerid.yaml", tt.yaml)
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	dir := inTempDir(t)

	_, err := Load(filepath.Join(dir, "absent.yaml"), "")
	assert.Error(t, err)

	_, err = Load("", filepath.Join(dir, "absent.env"))
	assert.Error(t, err)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := inTempDir(t)
	path := writeFile(t, dir, "callerid.yaml", "db_path: [unclosed\n")

	_, err := Load(path, "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

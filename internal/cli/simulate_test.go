package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioPath(t *testing.T, name string) string {
	t.Helper()
	path, err := filepath.Abs(filepath.Join("..", "harness", "testdata", "scenarios", name))
	require.NoError(t, err)
	return path
}

func TestSimulate_Pass(t *testing.T) {
	dup := scenarioPath(t, "duplicate_ringing.yaml")
	idle := scenarioPath(t, "idle_before_show.yaml")
	setupWorkspace(t)

	out, err := execute(t, "simulate", dup, idle)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS duplicate_ringing (final state IDLE)")
	assert.Contains(t, out, "PASS idle_before_show (final state IDLE)")
	assert.NotContains(t, out, "[1] input", "traces are only printed for failures or with --verbose")
}

func TestSimulate_VerbosePrintsTrace(t *testing.T) {
	dup := scenarioPath(t, "duplicate_ringing.yaml")
	setupWorkspace(t)

	out, err := execute(t, "simulate", dup, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, out, "[1] input (RINGING +919876543210)")
	assert.Contains(t, out, "overlay_shown")
}

func TestSimulate_JSON(t *testing.T) {
	dup := scenarioPath(t, "duplicate_ringing.yaml")
	setupWorkspace(t)

	out, err := execute(t, "simulate", dup, "--format", "json")
	require.NoError(t, err)

	results := decodeData[[]SimulateResult](t, out)
	require.Len(t, results, 1)
	assert.Equal(t, "duplicate_ringing", results[0].Scenario)
	require.NotNil(t, results[0].Result)
	assert.True(t, results[0].Pass)
	assert.Equal(t, 1, results[0].Stats.Shows)
}

func TestSimulate_Fail(t *testing.T) {
	setupWorkspace(t)

	path := filepath.Join(t.TempDir(), "wrong.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`name: wrong_state
description: "Expects a state the call never reaches"
steps:
  - event: RINGING
    number: "14155550100"
assertions:
  - type: final_state
    state: DISMISSED
`), 0o644))

	out, err := execute(t, "simulate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "FAIL wrong_state")
	assert.Contains(t, out, "error:")
	assert.Contains(t, out, "[1] input", "failed scenarios print their trace")

	out, err = execute(t, "simulate", path, "--format", "json")
	require.Error(t, err)
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeAssertions, resp.Error.Code)
}

func TestSimulate_InvalidScenario(t *testing.T) {
	setupWorkspace(t)

	path := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: no_steps\n"), 0o644))

	out, err := execute(t, "simulate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E007]")
}

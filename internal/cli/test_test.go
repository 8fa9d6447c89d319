package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/triggertree/internal/ir"
	"github.com/roach88/triggertree/internal/store"
)

// scenarioWorkspace copies the greetings scenario and its trigger set into
// a temp dir laid out like testdata, returning the scenarios dir.
func scenarioWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		filepath.Join("triggers", "greetings.cue"),
		filepath.Join("scenarios", "greetings.yaml"),
	} {
		data, err := os.ReadFile(filepath.Join("testdata", rel))
		require.NoError(t, err)
		dst := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
		require.NoError(t, os.WriteFile(dst, data, 0644))
	}
	return filepath.Join(root, "scenarios")
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"}, "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "json"}, t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.NotNil(t, resp.Data.Scenarios)
}

func TestTestCommandPassingScenario(t *testing.T) {
	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"}, filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ greetings")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: wrong
triggers:
  - id: hello
    when: exists(text)
    action: hello
steps:
  - match: { text: hi }
    expect: [goodbye]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(scenario), 0644))

	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"}, dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong")
	assert.Contains(t, out, "match returned [hello], expected [goodbye]")
}

func TestTestCommandLoadError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("steps: []\n"), 0644))

	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "json"}, dir)
	require.Error(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "broken.yaml", resp.Data.Scenarios[0].Name)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "failed to load scenario")
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommandUpdateThenCompare(t *testing.T) {
	dir := scenarioWorkspace(t)
	goldenPath := filepath.Join(dir, "golden", "greetings.golden")

	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"}, dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ greetings")

	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	snapshot, err := ir.UnmarshalIRValue(data)
	require.NoError(t, err)
	obj := snapshot.(ir.IRObject)
	assert.Equal(t, ir.IRString("greetings"), obj["scenario_name"])
	assert.Equal(t, ir.IRInt(3), obj["total_triggers"])
	// 4 adds, 3 matches, 1 remove, 1 verify
	assert.Len(t, obj["trace"], 9)

	_, _, err = execute(t, NewTestCommand, &RootOptions{Format: "text"}, dir)
	require.NoError(t, err, "fresh golden must match")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := scenarioWorkspace(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "golden"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golden", "greetings.golden"), []byte(`{}`), 0644))

	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"}, dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(t, NewTestCommand, &RootOptions{Format: "text"}, filepath.Join("testdata", "scenarios"), "--filter", "nomatch*")
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")

	_, _, err = execute(t, NewTestCommand, &RootOptions{Format: "text"}, filepath.Join("testdata", "scenarios"), "--filter", "[")
	require.Error(t, err)
}

func TestTestCommandSharedEventLog(t *testing.T) {
	dir := scenarioWorkspace(t)
	dbPath := filepath.Join(t.TempDir(), "events.db")
	opts := &RootOptions{Format: "text", Database: dbPath}

	_, _, err := execute(t, NewTestCommand, opts, dir, "--update")
	require.NoError(t, err)
	// The second run continues the log; seqs in its golden comparison are
	// relative so it still matches.
	_, _, err = execute(t, NewTestCommand, opts, dir)
	require.NoError(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	n, err := st.CountEvents(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, 18, n)
	last, err := st.MaxSeq(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(18), last)
}

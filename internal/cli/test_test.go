package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const inlineScenario = `name: inline_title
description: Reads a root attribute
graph:
  root:
    app/title: Directory
query: "[:app/title]"
expect:
  app/title: Directory
`

// writeScenario writes a scenario file under dir/scenarios and returns the
// scenarios directory.
func writeScenario(t *testing.T, dir, file, content string) string {
	t.Helper()
	scenarios := filepath.Join(dir, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, file), []byte(content), 0644))
	return scenarios
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(t, "", "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentPath(t *testing.T) {
	out, _, err := execute(t, "", "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios not found")
	assert.Contains(t, out, "Error [E002]: scenarios not found: /nonexistent/scenarios")
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, _, err := execute(t, "", "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, _, err := execute(t, "", "test", "--format", "json", t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
	assert.Empty(t, resp.Data.Scenarios)
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, _, err := execute(t, "", "test", harnessScenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ friends_cycle")
	assert.Contains(t, out, "✓ feed_union")
	assert.Contains(t, out, "Test Summary: 9 passed, 0 failed, 9 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, _, err := execute(t, "", "test", "--format", "json", "--filter", "feed", harnessScenarios)
	require.NoError(t, err, out)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.True(t, s.Pass, s.Name)
	}
}

func TestTestCommandUpdateWritesGolden(t *testing.T) {
	dir := t.TempDir()
	scenarios := writeScenario(t, dir, "inline_title.yaml", inlineScenario)

	out, _, err := execute(t, "", "test", "--update", scenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ inline_title (golden updated)")

	golden, err := os.ReadFile(filepath.Join(dir, "golden", "inline_title.golden"))
	require.NoError(t, err)
	assert.Equal(t, `{"result":{"app/title":"Directory"},"scenario_name":"inline_title"}`, string(golden))

	// A second run compares against the file just written.
	out, _, err = execute(t, "", "test", scenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ inline_title\n")
}

func TestTestCommandGoldenMismatch(t *testing.T) {
	dir := t.TempDir()
	scenarios := writeScenario(t, dir, "inline_title.yaml", inlineScenario)
	goldenDir := filepath.Join(dir, "snapshots")
	require.NoError(t, os.MkdirAll(goldenDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(goldenDir, "inline_title.golden"), []byte(`{"stale":true}`), 0644))

	out, _, err := execute(t, "", "test", "--golden-dir", goldenDir, scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ inline_title")
	assert.Contains(t, out, "Golden file mismatch")
	assert.Contains(t, out, "Test Summary: 0 passed, 1 failed, 1 total")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	scenarios := writeScenario(t, dir, "wrong.yaml", `name: wrong
description: Expects a title the graph does not have
graph:
  root:
    app/title: Directory
query: "[:app/title]"
expect:
  app/title: Elsewhere
`)

	out, _, err := execute(t, "", "test", "--format", "json", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	require.NotEmpty(t, resp.Data.Scenarios[0].Errors)
	assert.Contains(t, resp.Data.Scenarios[0].Errors[0], "result mismatch")
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
}

func TestTestCommandInvalidScenario(t *testing.T) {
	dir := t.TempDir()
	scenarios := writeScenario(t, dir, "broken.yaml", "name: broken\nquery: \"[:a]\"\n")

	out, _, err := execute(t, "", "test", scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestDefaultGoldenDir(t *testing.T) {
	dir := t.TempDir()
	scenarios := writeScenario(t, dir, "a.yaml", inlineScenario)

	assert.Equal(t, filepath.Join(dir, "golden"), defaultGoldenDir(scenarios))
	assert.Equal(t, filepath.Join(dir, "golden"), defaultGoldenDir(filepath.Join(scenarios, "a.yaml")))
}

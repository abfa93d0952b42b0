package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/pullgraph/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (file name substring)
	GoldenDir string // golden file directory (default: <scenarios>/../golden)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name        string   `json:"name"`
	Pass        bool     `json:"pass"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run query scenarios",
		Long: `Run YAML query scenarios and compare their results with golden files.

<scenarios> is a scenario file or a directory searched for .yaml/.yml files.
Each scenario is checked against its expect, expect_error and assertions, and
its snapshot against <golden-dir>/<scenario name>.golden when that file exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  pullgraph test ./testdata/scenarios
  pullgraph test ./testdata/scenarios --filter friends
  pullgraph test ./testdata/scenarios --update
  pullgraph test ./testdata/scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenario files whose name contains this")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden-dir", "", "golden file directory (default <scenarios>/../golden)")

	return cmd
}

func runTests(opts *TestOptions, scenariosPath string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	scenarioFiles, err := harness.Discover(scenariosPath, opts.Filter)
	if err != nil {
		var nf *harness.ScenarioNotFoundError
		if errors.As(err, &nf) {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("scenarios not found: %s", scenariosPath))
		}
		return formatter.Fail(ExitCommandError, ErrCodeReadFailed, fmt.Errorf("failed to find scenarios: %w", err))
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = defaultGoldenDir(scenariosPath)
	}
	formatter.VerboseLog("Running %d scenario(s), golden files in %s", len(scenarioFiles), goldenDir)

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, scenarioFile := range scenarioFiles {
		scenResult := runScenario(scenarioFile, goldenDir, opts, cmd)
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(cmd.OutOrStdout(), result)
}

// defaultGoldenDir is the golden directory next to the scenarios directory.
func defaultGoldenDir(scenariosPath string) string {
	dir := filepath.Clean(scenariosPath)
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	return filepath.Join(filepath.Dir(dir), "golden")
}

// runScenario executes a single scenario and returns the result.
func runScenario(scenarioFile, goldenDir string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, errs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", e)
			}
		}
		return ScenarioResult{Name: name, Pass: false, Errors: errs}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return fail(filepath.Base(scenarioFile), fmt.Sprintf("failed to load scenario: %v", err))
	}

	result, err := harness.RunContext(cmd.Context(), scenario, opts.logger())
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")
	snapshot, err := harness.MarshalSnapshot(scenario.Name, result)
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("failed to marshal snapshot: %v", err))
	}

	if opts.Update {
		if err := updateGoldenFile(goldenPath, snapshot); err != nil {
			return fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		opts.logger().Debug("golden file updated", zap.String("scenario", scenario.Name), zap.String("path", goldenPath))
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", scenario.Name)
		}
		return ScenarioResult{Name: scenario.Name, Pass: true, Fingerprint: result.Fingerprint}
	}

	errs := result.Errors
	golden, err := os.ReadFile(goldenPath)
	switch {
	case err == nil:
		if !bytes.Equal(golden, snapshot) {
			errs = append(errs, "Golden file mismatch (run with --update to regenerate)")
		}
	case !os.IsNotExist(err):
		errs = append(errs, fmt.Sprintf("golden comparison failed: %v", err))
	}
	// No golden file: the scenario's own expectations decide.

	if !result.Pass || len(errs) > 0 {
		return fail(scenario.Name, errs...)
	}

	if text {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true, Fingerprint: result.Fingerprint}
}

// updateGoldenFile writes a snapshot as the golden file.
func updateGoldenFile(goldenPath string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, snapshot, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}

	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := formatter.encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(w io.Writer, result TestResult) error {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}

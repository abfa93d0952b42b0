package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/pullgraph/internal/canonical"
	"github.com/roach88/pullgraph/internal/graph"
	"github.com/roach88/pullgraph/internal/query"
	"github.com/roach88/pullgraph/internal/resolve"
	"github.com/roach88/pullgraph/internal/testutil"
)

// Error codes for failures that are not ResolutionErrors.
const (
	ErrCodeParse          = "PARSE_ERROR"
	ErrCodeMutationFailed = "MUTATION_FAILED"
	ErrCodeUnknown        = "ERROR"
)

// Harness is the test execution engine.
// It resolves a scenario's query with a fixed request ID and stubbed
// mutations.
type Harness struct {
	resolver *resolve.Resolver
	logger   *zap.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario loads a fresh graph, so scenarios never see each other's
// data. Execution flow:
// 1. Load the graph
// 2. Parse the query (a parse error is an outcome, not a failure of Run)
// 3. Resolve with stubbed mutations
// 4. Compare against expect / expect_error and evaluate assertions
//
// Run returns an error only when the scenario itself cannot be executed.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario, zap.NewNop())
}

// RunContext is Run with a context and a logger for the resolver.
func RunContext(ctx context.Context, scenario *Scenario, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	g, err := scenario.LoadGraph()
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	result := NewResult()
	mutator := &stubMutator{stubs: scenario.Mutations, result: result}

	opts := []resolve.Option{
		resolve.WithLogger(logger.With(zap.String("scenario", scenario.Name))),
		resolve.WithMutator(mutator),
		resolve.WithRequestIDs(testutil.NewFixedRequestID(scenario.RequestID)),
	}
	if scenario.TagAttr != "" {
		opts = append(opts, resolve.WithTagger(resolve.AttrTagger(scenario.TagAttr)))
	}
	if scenario.MaxDepth > 0 {
		opts = append(opts, resolve.WithMaxDepth(scenario.MaxDepth))
	}

	h := &Harness{
		resolver: resolve.New(opts...),
		logger:   logger,
	}

	runErr := h.resolve(ctx, scenario, g, result)
	h.check(scenario, runErr, result)

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) resolve(ctx context.Context, scenario *Scenario, g *graph.Graph, result *Result) error {
	q, err := query.ParseString(scenario.Query)
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		return err
	}

	res, err := h.resolver.Resolve(ctx, q, g)
	if err != nil {
		result.ErrorCode = ErrorCode(err)
		h.logger.Debug("scenario resolution failed",
			zap.String("scenario", scenario.Name),
			zap.Error(err),
		)
		return err
	}

	result.Output = res.Map()
	fp, err := res.Fingerprint()
	if err != nil {
		return fmt.Errorf("fingerprint: %w", err)
	}
	result.Fingerprint = fp
	return nil
}

// check compares the outcome with expect / expect_error.
func (h *Harness) check(scenario *Scenario, runErr error, result *Result) {
	if scenario.ExpectError != "" {
		switch {
		case runErr == nil:
			result.AddError(fmt.Sprintf("expected error %s, but resolution succeeded", scenario.ExpectError))
		case result.ErrorCode != scenario.ExpectError:
			result.AddError(fmt.Sprintf("expected error %s, got %s: %v", scenario.ExpectError, result.ErrorCode, runErr))
		}
		return
	}

	if runErr != nil {
		result.AddError(fmt.Sprintf("resolution failed: %v", runErr))
		return
	}

	if scenario.Expect == nil {
		return
	}
	want, err := canonical.Marshal(scenario.Expect)
	if err != nil {
		result.AddError(fmt.Sprintf("expect is not representable: %v", err))
		return
	}
	got, err := canonical.Marshal(result.Output)
	if err != nil {
		result.AddError(fmt.Sprintf("result is not representable: %v", err))
		return
	}
	if !bytes.Equal(want, got) {
		result.AddError(fmt.Sprintf("result mismatch\n  Expected: %s\n  Actual: %s", want, got))
	}
}

// ErrorCode classifies an error from parsing or resolution.
func ErrorCode(err error) string {
	var re *resolve.ResolutionError
	switch {
	case err == nil:
		return ""
	case query.IsParseError(err):
		return ErrCodeParse
	case errors.As(err, &re):
		return string(re.Code)
	case resolve.IsMutationError(err):
		return ErrCodeMutationFailed
	}
	return ErrCodeUnknown
}

// stubMutator answers mutations from the scenario's stubs and records them.
type stubMutator struct {
	mu     sync.Mutex
	stubs  map[string]MutationStub
	result *Result
}

func (m *stubMutator) Mutate(_ context.Context, name string, params query.Params) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.result.AddMutationTrace(name, params)
	stub, ok := m.stubs[name]
	if !ok {
		return nil, fmt.Errorf("no stub for mutation %s", name)
	}
	if stub.Error != "" {
		return nil, errors.New(stub.Error)
	}
	return stub.Result, nil
}

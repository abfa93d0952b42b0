package harness

import "github.com/roach88/pullgraph/internal/query"

// MutationTrace records one mutation the resolver performed.
type MutationTrace struct {
	Name   string       `json:"name"`
	Params query.Params `json:"params,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation and every assertion match.
	Pass bool `json:"pass"`

	// Output is the resolved result tree as plain data. Nil when resolution
	// failed.
	Output map[string]any `json:"output,omitempty"`

	// Fingerprint is the content hash of Output.
	Fingerprint string `json:"fingerprint,omitempty"`

	// ErrorCode classifies the resolution error, if any.
	ErrorCode string `json:"error_code,omitempty"`

	// Mutations lists mutations in the order they ran.
	Mutations []MutationTrace `json:"mutations"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Mutations: []MutationTrace{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddMutationTrace records a mutation.
func (r *Result) AddMutationTrace(name string, params query.Params) {
	r.Mutations = append(r.Mutations, MutationTrace{Name: name, Params: params})
}

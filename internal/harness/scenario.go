package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pullgraph/internal/graph"
)

// Scenario defines a conformance test scenario: a graph, a query, and what
// resolving the query against the graph must produce.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Graph is either a path to a graph file (.yaml, .json or .cue), relative
	// to the scenario file, or an inline graph document with root and tables.
	// Absent means an empty graph.
	Graph yaml.Node `yaml:"graph"`

	// Query is the query text.
	Query string `yaml:"query"`

	// TagAttr switches union dispatch from ident tables to an entity
	// attribute.
	TagAttr string `yaml:"tag_attr,omitempty"`

	// MaxDepth overrides the resolver's nesting guard when positive.
	MaxDepth int `yaml:"max_depth,omitempty"`

	// RequestID is the fixed request ID for the resolution.
	// If empty, defaults to "test-request-default".
	RequestID string `yaml:"request_id,omitempty"`

	// Mutations stubs the mutator. A mutation the query names that has no
	// stub fails.
	Mutations map[string]MutationStub `yaml:"mutations,omitempty"`

	// Expect is the exact expected result. Compared as canonical JSON, so key
	// order does not matter.
	Expect any `yaml:"expect,omitempty"`

	// ExpectError is the expected error code, e.g. DEPTH_EXCEEDED,
	// PARSE_ERROR or MUTATION_FAILED.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions check parts of the result.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// BaseDir is the directory graph paths are resolved against. Set by
	// LoadScenario.
	BaseDir string `yaml:"-"`
}

// MutationStub is the canned outcome of one mutation.
type MutationStub struct {
	// Result is returned to the resolver and placed in the result tree.
	Result any `yaml:"result,omitempty"`

	// Error, if set, makes the mutation fail with this message.
	Error string `yaml:"error,omitempty"`
}

// Assertion checks one value of the result tree.
type Assertion struct {
	// Type specifies the assertion type:
	// - "present": a value exists at Path
	// - "absent": nothing exists at Path
	// - "equals": the value at Path equals Value
	// - "count": the list at Path has Count items
	Type string `yaml:"type"`

	// Path addresses a value: result keys, and list indexes as strings.
	Path []string `yaml:"path"`

	// Value is the expected value (used by equals).
	Value any `yaml:"value,omitempty"`

	// Count is the expected list length (used by count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertPresent = "present"
	AssertAbsent  = "absent"
	AssertEquals  = "equals"
	AssertCount   = "count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML. Graph paths resolve against baseDir.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	scenario.BaseDir = baseDir

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadGraph builds the scenario's graph.
func (s *Scenario) LoadGraph() (*graph.Graph, error) {
	switch s.Graph.Kind {
	case 0:
		return graph.New(), nil
	case yaml.ScalarNode:
		path := s.Graph.Value
		if !filepath.IsAbs(path) && s.BaseDir != "" {
			path = filepath.Join(s.BaseDir, path)
		}
		return graph.Load(path)
	default:
		return graph.FromYAMLNode(&s.Graph)
	}
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Query == "" {
		return fmt.Errorf("query is required")
	}

	switch s.Graph.Kind {
	case 0, yaml.MappingNode:
	case yaml.ScalarNode:
		if s.Graph.Value == "" {
			return fmt.Errorf("graph path is empty")
		}
		path := s.Graph.Value
		if !filepath.IsAbs(path) && s.BaseDir != "" {
			path = filepath.Join(s.BaseDir, path)
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("graph file not found: %s", path)
		}
	default:
		return fmt.Errorf("graph must be a file path or a mapping")
	}

	if s.Expect != nil && s.ExpectError != "" {
		return fmt.Errorf("expect and expect_error are mutually exclusive")
	}

	if s.Expect == nil && s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("one of expect, expect_error or assertions is required")
	}

	if s.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative")
	}

	for name, stub := range s.Mutations {
		if stub.Error != "" && stub.Result != nil {
			return fmt.Errorf("mutations[%s]: result and error are mutually exclusive", name)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if len(a.Path) == 0 {
		return fmt.Errorf("assertions[%d]: path is required", index)
	}

	switch a.Type {
	case AssertPresent, AssertAbsent:
	case AssertEquals:
		if a.Value == nil {
			return fmt.Errorf("assertions[%d]: value is required for equals", index)
		}
	case AssertCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

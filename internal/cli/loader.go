package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/pullgraph/internal/graph"
	"github.com/roach88/pullgraph/internal/query"
)

// Error codes for CLI responses.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path not found
	ErrCodeReadFailed   = "E003" // Input could not be read
	ErrCodeParseFailed  = "E004" // Query text is malformed
	ErrCodeInvalidQuery = "E005" // Query AST has structural defects
	ErrCodeGraphLoad    = "E006" // Graph document could not be loaded
	ErrCodeResolve      = "E007" // Resolution aborted
	ErrCodeWriteFailed  = "E008" // File write error
)

// LoadError represents an error that occurred while loading command input.
type LoadError struct {
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// QueryInput selects where query text comes from.
// File takes precedence over Args. An Args value of "-" reads Stdin.
type QueryInput struct {
	File  string
	Args  []string
	Stdin io.Reader
}

// ReadQueryText returns the raw query text for a command.
func ReadQueryText(in QueryInput) (string, error) {
	switch {
	case in.File != "":
		data, err := os.ReadFile(in.File)
		if os.IsNotExist(err) {
			return "", &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", in.File)}
		}
		if err != nil {
			return "", &LoadError{Code: ErrCodeReadFailed, Message: "reading query file", Err: err}
		}
		return string(data), nil
	case len(in.Args) == 0:
		return "", &LoadError{Code: ErrCodeReadFailed, Message: "no query given: pass it as an argument, with --file, or - for stdin"}
	case in.Args[0] == "-":
		if in.Stdin == nil {
			return "", &LoadError{Code: ErrCodeReadFailed, Message: "stdin is not available"}
		}
		data, err := io.ReadAll(in.Stdin)
		if err != nil {
			return "", &LoadError{Code: ErrCodeReadFailed, Message: "reading stdin", Err: err}
		}
		return string(data), nil
	}
	return in.Args[0], nil
}

// LoadGraph loads a graph document. An empty path yields an empty graph.
func LoadGraph(path string) (*graph.Graph, error) {
	if path == "" {
		return graph.New(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("graph file not found: %s", path)}
	}
	g, err := graph.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGraphLoad, Message: "loading graph", Err: err}
	}
	return g, nil
}

// ParseRootIdent parses an ident such as [:users 1] or [:current-user _].
func ParseRootIdent(text string) (graph.Ident, error) {
	text = strings.TrimSpace(text)
	q, err := query.ParseString("[" + text + "]")
	if err != nil {
		return graph.Ident{}, fmt.Errorf("invalid ident %q: %w", text, err)
	}
	if len(q) != 1 {
		return graph.Ident{}, fmt.Errorf("invalid ident %q: expected a single [:table id] vector", text)
	}
	n, ok := q[0].(query.Ident)
	if !ok {
		return graph.Ident{}, fmt.Errorf("invalid ident %q: expected a single [:table id] vector", text)
	}
	return n.Ident, nil
}

// NewLogger builds a JSON logger writing to w at info level, or debug level
// when verbose.
func NewLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(w),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}

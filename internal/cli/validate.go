package cli

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/roach88/pullgraph/internal/edn"
	"github.com/roach88/pullgraph/internal/query"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	File  string
	Graph string
}

// ValidationIssue is one defect found by the validate command.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [query | -]",
		Short: "Check a query without resolving it",
		Long: `Check that a query parses and is structurally sound.

With --graph, the graph document is loaded as well so that both inputs of a
resolution can be checked before running it.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file")
	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", "", "graph document to load (.yaml, .json or .cue)")

	return cmd
}

func runValidate(opts *ValidateOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	text, err := ReadQueryText(QueryInput{File: opts.File, Args: args, Stdin: cmd.InOrStdin()})
	if err != nil {
		return failInput(formatter, err)
	}

	issues := ValidateQueryText(text)
	if len(issues) == 0 {
		formatter.VerboseLog("Query is valid")
	}

	if opts.Graph != "" {
		formatter.VerboseLog("Loading graph %s", opts.Graph)
		if _, err := LoadGraph(opts.Graph); err != nil {
			var le *LoadError
			if !errors.As(err, &le) || le.Code == ErrCodeNotFound {
				return failInput(formatter, err)
			}
			issues = append(issues, ValidationIssue{Code: le.Code, Message: fmt.Sprintf("%s: %v", le.Message, le.Err)})
		}
	}

	if len(issues) > 0 {
		return outputValidationErrors(formatter, issues)
	}
	return outputValidateSuccess(formatter)
}

// ValidateQueryText parses text and validates the resulting AST, returning
// every defect found. A parse error stops at the first defect.
func ValidateQueryText(text string) []ValidationIssue {
	q, err := query.ParseString(text)
	if err != nil {
		var pe *query.ParseError
		if errors.As(err, &pe) {
			return []ValidationIssue{parseIssue(pe)}
		}
		return []ValidationIssue{{Code: ErrCodeParseFailed, Message: err.Error()}}
	}
	return validationIssues(query.Validate(q))
}

func parseIssue(pe *query.ParseError) ValidationIssue {
	issue := ValidationIssue{Code: ErrCodeParseFailed, Message: pe.Reason}
	if pe.Pos.IsValid() {
		issue.Line, issue.Column = pe.Pos.Line, pe.Pos.Column
	}
	return issue
}

// validationIssues flattens the error returned by query.Validate.
func validationIssues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	errs := []error{err}
	var me *multierror.Error
	if errors.As(err, &me) {
		errs = me.Errors
	}

	issues := make([]ValidationIssue, 0, len(errs))
	for _, e := range errs {
		var ne *query.InvalidNodeError
		if errors.As(e, &ne) {
			issues = append(issues, ValidationIssue{Code: ErrCodeInvalidQuery, Message: ne.Reason, Path: ne.Path})
			continue
		}
		issues = append(issues, ValidationIssue{Code: ErrCodeInvalidQuery, Message: e.Error()})
	}
	return issues
}

// location renders where an issue was found, or "" when unknown.
func (i ValidationIssue) location() string {
	switch {
	case i.Line > 0:
		return edn.Pos{Line: i.Line, Column: i.Column}.String()
	case i.Path != "":
		return i.Path
	}
	return ""
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Query valid")
	return nil
}

// outputValidationErrors outputs every defect found.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}
		if err := formatter.encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if loc := issue.location(); loc != "" {
			fmt.Fprintf(formatter.Writer, "%s\n", loc)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}

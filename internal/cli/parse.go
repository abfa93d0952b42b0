package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pullgraph/internal/query"
)

// ParseOptions holds flags for the parse command.
type ParseOptions struct {
	*RootOptions
	File string
}

// ParseResult is the JSON payload of the parse command.
type ParseResult struct {
	Query string   `json:"query"`
	Keys  []string `json:"keys"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ParseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "parse [query | -]",
		Short: "Parse a query and print its normalized form",
		Long: `Parse query text and print it back in normalized form.

The printed query parses to the same AST as the input. Use - to read the
query from stdin, or --file to read it from a file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file")

	return cmd
}

func runParse(opts *ParseOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, err := readQuery(opts.File, args, cmd)
	if err != nil {
		return failInput(formatter, err)
	}

	formatter.VerboseLog("Parsed %d top-level item(s)", len(q))

	if formatter.Format == "json" {
		return formatter.Success(ParseResult{Query: q.String(), Keys: q.Keys()})
	}
	return formatter.Success(q.String())
}

// readQuery reads and parses the query named by --file or args.
func readQuery(file string, args []string, cmd *cobra.Command) (query.Query, error) {
	text, err := ReadQueryText(QueryInput{File: file, Args: args, Stdin: cmd.InOrStdin()})
	if err != nil {
		return nil, err
	}
	return query.ParseString(text)
}

// failInput reports a query input error. Parse errors are rejected input;
// anything else means the command could not run.
func failInput(formatter *OutputFormatter, err error) error {
	if query.IsParseError(err) {
		return formatter.Fail(ExitFailure, ErrCodeParseFailed, err)
	}
	var le *LoadError
	if errors.As(err, &le) {
		_ = formatter.Error(le.Code, le.Message, errString(le.Err))
		return WrapExitError(ExitCommandError, le.Code, err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("reading query: %w", err))
}

func errString(err error) any {
	if err == nil {
		return nil
	}
	return err.Error()
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/pullgraph/internal/graph"
	"github.com/roach88/pullgraph/internal/harness"
	"github.com/roach88/pullgraph/internal/resolve"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	File     string
	Graph    string
	Root     string
	TagAttr  string
	MaxDepth int
}

// ResolveResult is the JSON payload of the resolve command.
type ResolveResult struct {
	Result      *resolve.Result `json:"result"`
	Fingerprint string          `json:"fingerprint"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve [query | -]",
		Short: "Resolve a query against a graph document",
		Long: `Resolve a query against a graph document and print the result tree.

The graph is read from --graph (.yaml, .json or .cue). Resolution starts at
the graph root unless --root names an entity, e.g. --root '[:users 2]'.
Union branches are chosen by ident table unless --tag-attr names an entity
attribute to dispatch on.

Mutations are rejected: the CLI has no mutation handler.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "read the query from a file")
	cmd.Flags().StringVarP(&opts.Graph, "graph", "g", "", "graph document (.yaml, .json or .cue)")
	cmd.Flags().StringVar(&opts.Root, "root", "", "ident of the entity to start from, e.g. [:users 1]")
	cmd.Flags().StringVar(&opts.TagAttr, "tag-attr", "", "entity attribute holding the union tag")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", resolve.DefaultMaxDepth, "maximum result nesting depth")

	return cmd
}

func runResolve(opts *ResolveOptions, args []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if opts.MaxDepth <= 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Errorf("--max-depth must be positive, got %d", opts.MaxDepth))
	}

	q, err := readQuery(opts.File, args, cmd)
	if err != nil {
		return failInput(formatter, err)
	}

	g, err := LoadGraph(opts.Graph)
	if err != nil {
		return failInput(formatter, err)
	}
	formatter.VerboseLog("Loaded graph with %d table(s)", len(g.Tables))

	var rootID *graph.Ident
	if opts.Root != "" {
		id, err := ParseRootIdent(opts.Root)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err)
		}
		if _, ok := g.Entity(id); !ok {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Errorf("root entity %s not found in graph", id))
		}
		rootID = &id
	}

	requestID := resolve.UUIDv7Generator{}.Generate()
	logger := opts.logger()
	resolverOpts := []resolve.Option{
		resolve.WithLogger(logger),
		resolve.WithRequestIDs(resolve.NewFixedGenerator(requestID)),
		resolve.WithMaxDepth(opts.MaxDepth),
	}
	if opts.TagAttr != "" {
		resolverOpts = append(resolverOpts, resolve.WithTagger(resolve.AttrTagger(opts.TagAttr)))
	}

	resolver := resolve.New(resolverOpts...)
	var res *resolve.Result
	if rootID != nil {
		res, err = resolver.ResolveIdent(cmd.Context(), q, g, *rootID)
	} else {
		res, err = resolver.Resolve(cmd.Context(), q, g)
	}
	if err != nil {
		logger.Debug("resolve command failed", zap.String("request_id", requestID), zap.Error(err))
		_ = formatter.Error(ErrCodeResolve, err.Error(), map[string]string{
			"reason":     harness.ErrorCode(err),
			"request_id": requestID,
		})
		return WrapExitError(ExitFailure, ErrCodeResolve, err)
	}

	fingerprint, err := res.Fingerprint()
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, fmt.Errorf("fingerprinting result: %w", err))
	}

	if formatter.Format == "json" {
		return formatter.encode(CLIResponse{
			Status:    "ok",
			Data:      ResolveResult{Result: res, Fingerprint: fingerprint},
			RequestID: requestID,
		})
	}

	text, err := indentResult(res)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}
	formatter.VerboseLog("request_id=%s fingerprint=%s", requestID, fingerprint)
	return formatter.Success(text)
}

// indentResult renders a result as indented JSON.
func indentResult(res *resolve.Result) (string, error) {
	data, err := res.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return buf.String(), nil
}

// Command pullgraph parses, checks and resolves pull queries from the shell.
package main

import (
	"os"

	"github.com/roach88/pullgraph/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		cli.ReportError(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

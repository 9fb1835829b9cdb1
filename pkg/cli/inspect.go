package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"github.com/m-mizutani/reflow/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdInspect() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show reflow directives of local workflow files",
		ArgsUsage: "FILE...",
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("no workflow file given")
			}

			var failed int
			for _, path := range paths {
				content, err := os.ReadFile(path)
				if err != nil {
					return goerr.Wrap(err, "failed to read workflow file", goerr.V("path", path))
				}

				result, err := usecase.InspectWorkflow(path, content)
				if err != nil {
					return err
				}
				if !printInspection(c.Root().Writer, result) {
					failed++
				}
			}

			if failed > 0 {
				return goerr.New("some workflows have problems", goerr.V("count", failed))
			}
			return nil
		},
	}
}

// printInspection writes a summary of x and reports whether it is healthy
func printInspection(w io.Writer, x *model.WorkflowInspection) bool {
	if w == nil {
		w = os.Stdout
	}

	var (
		bold  = color.New(color.Bold)
		green = color.New(color.FgGreen)
		gray  = color.New(color.FgHiBlack)
		red   = color.New(color.FgRed)
		warn  = color.New(color.FgYellow)
	)

	bold.Fprintln(w, x.Path)

	switch {
	case x.ManifestErr != nil:
		red.Fprintf(w, "  invalid directive: %v\n", x.ManifestErr)
		return false
	case !x.Managed():
		gray.Fprintln(w, "  not managed by reflow")
		return true
	}

	green.Fprintf(w, "  repository: %s\n", x.Manifest.Repository)
	green.Fprintf(w, "  push:       %s\n", strings.Join(quote(x.Manifest.PushTargets), ", "))

	if !x.Dispatchable {
		warn.Fprintln(w, "  missing on.workflow_dispatch trigger, dispatch will be refused")
		return false
	}
	return true
}

func quote(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/relift/relift/pkg/analysis"
	"github.com/relift/relift/pkg/escape"
	"github.com/relift/relift/pkg/ssa"
)

// doRewrite loads a procedure description, runs the stack variable
// rewrite, and prints the requested dumps.
func doRewrite(ctx context.Context, filename string, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	proc, intervals, err := LoadProcFile(filename)
	if err != nil {
		return err
	}

	if dSSA {
		fmt.Fprintln(out, "== ssa")
		ssa.Fprint(out, proc)
	}

	if useFind {
		intervals = escape.Find(proc)
		for _, ent := range intervals.Entries() {
			fmt.Fprintf(errOut, "relift: escaped %s\n", ent)
		}
	}

	ran := analysis.RewriteComplexStackVars(ctx, proc, intervals)
	if !ran {
		fmt.Fprintln(errOut, "relift: no escaped intervals; nothing to rewrite")
	}

	if dRewrite || !dSSA {
		fmt.Fprintln(out, "== ssa (stack variables rewritten)")
		ssa.Fprint(out, proc)
	}
	return nil
}

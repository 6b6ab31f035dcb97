// Package analysis drives the per-procedure SSA analyses. Each entry
// point owns the procedure's SSA state for its duration and mutates it
// in place.
package analysis

import (
	"context"

	"github.com/relift/relift/pkg/escape"
	"github.com/relift/relift/pkg/interval"
	"github.com/relift/relift/pkg/ssa"
	"github.com/relift/relift/pkg/stackvars"
)

// RewriteEscapedAccesses finds the escaped byte ranges of proc's frame
// and rewrites their frame-relative accesses into references to
// synthesized stack variables. It reports whether a rewrite pass ran;
// when no range escapes, the procedure is left untouched and no
// transformer is constructed.
func RewriteEscapedAccesses(ctx context.Context, proc *ssa.Proc) bool {
	intervals := escape.Find(proc)
	if intervals.Len() == 0 {
		return false
	}
	return stackvars.New(proc, intervals).Transform(ctx)
}

// RewriteComplexStackVars runs the stack variable rewrite against a
// caller-supplied interval map, for drivers that obtain the escaped
// ranges elsewhere. The map must be pairwise disjoint.
func RewriteComplexStackVars(ctx context.Context, proc *ssa.Proc, intervals *interval.Map) bool {
	if intervals.Len() == 0 {
		return false
	}
	return stackvars.New(proc, intervals).Transform(ctx)
}

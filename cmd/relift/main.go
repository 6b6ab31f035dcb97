package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Debug flags for dumping intermediate state
var (
	dSSA     bool // dump the SSA state before rewriting
	dRewrite bool // dump the SSA state after rewriting
	useFind  bool // derive intervals from escape analysis
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	// Normalize compiler-style single-dash flags to double-dash for pflag compatibility
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// debugFlagNames lists all debug flags that should accept single-dash style
var debugFlagNames = []string{"dssa", "drewrite"}

// normalizeFlags converts single-dash flags like -dssa to --dssa
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		for _, flagName := range debugFlagNames {
			if arg == "-"+flagName {
				result[i] = "--" + flagName
				break
			}
		}
		if result[i] == "" {
			result[i] = arg
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "relift [file]",
		Short: "relift rewrites escaped stack accesses in decompiled SSA procedures",
		Long: `relift reads a YAML description of a decompiled procedure's SSA
state and rewrites frame-pointer arithmetic that lands inside an
escaped byte range of the stack frame into references to synthesized
stack variables.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}
			return doRewrite(cmd.Context(), args[0], out, errOut)
		},
	}

	rootCmd.Flags().BoolVar(&dSSA, "dssa", false, "dump the SSA state before rewriting")
	rootCmd.Flags().BoolVar(&dRewrite, "drewrite", false, "dump the SSA state after rewriting (default when no dump flag is set)")
	rootCmd.Flags().BoolVar(&useFind, "find", false, "derive escaped intervals from escape analysis instead of the file's intervals section")

	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	return rootCmd
}

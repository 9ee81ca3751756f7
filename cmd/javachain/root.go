package main

import (
	"github.com/spf13/cobra"

	"javachain/internal/version"
)

var (
	// verbosity is the count of -v flags
	verbosity int
	quiet     bool
	// workspaceFlag overrides where .javachain lives; defaults to the project root
	workspaceFlag string
)

var rootCmd = &cobra.Command{
	Use:   "javachain",
	Short: "javachain - call chains and code context for Java reviews",
	Long: `javachain indexes a Java source tree, maps review diffs to the methods
they change and expands each changed method into its call graph and the
source of the classes around it. The output feeds an automated code review.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("javachain version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
	rootCmd.PersistentFlags().StringVar(&workspaceFlag, "workspace", "",
		"Directory holding .javachain (default: the project root)")
}

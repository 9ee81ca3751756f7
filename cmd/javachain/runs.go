package main

import (
	"github.com/spf13/cobra"

	"javachain/internal/storage"
)

var (
	runsProject string
	runsRoot    string
	runsLimit   int
	runsDelete  string
	runsFormat  string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored analysis runs",
	Long: `List the snapshots kept in the SQLite run store, newest first.

Examples:
  javachain runs
  javachain runs --project order-service --limit 5 --format human
  javachain runs --delete 2b1c6d0e-...`,
	Args: cobra.NoArgs,
	Run:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsProject, "project", "", "Project name (default: base name of root)")
	runsCmd.Flags().StringVar(&runsRoot, "root", "", "Project root (default: current directory)")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().StringVar(&runsDelete, "delete", "", "Delete the run with this id")
	runsCmd.Flags().StringVar(&runsFormat, "format", "human", "Output format (json, human, yaml)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	s := newSession(runsRoot, runsProject)
	defer s.close()
	ctx, cancel := newContext()
	defer cancel()

	db, err := storage.OpenPath(resolvePath(s.workspace, s.cfg.Storage.Path), s.loggers.Logger("storage"))
	if err != nil {
		exitWithError("opening run store", err)
	}
	defer db.Close()

	if runsDelete != "" {
		if err := db.DeleteRun(ctx, runsDelete); err != nil {
			exitWithError("deleting run", err)
		}
		s.logger.Info("Deleted run", "run", runsDelete)
	}

	runs, err := db.Runs(ctx, s.project, runsLimit)
	if err != nil {
		exitWithError("listing runs", err)
	}
	if runs == nil {
		runs = []storage.Run{}
	}
	printResponse(&RunsResponseCLI{Project: s.project, Runs: runs}, runsFormat)
}

// RunsResponseCLI lists stored runs
type RunsResponseCLI struct {
	Project string        `json:"project"`
	Runs    []storage.Run `json:"runs"`
}

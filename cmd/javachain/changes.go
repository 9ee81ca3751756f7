package main

import (
	"github.com/spf13/cobra"

	"javachain/internal/changes"
)

var (
	changesDiffs   string
	changesProject string
	changesFormat  string
)

var changesCmd = &cobra.Command{
	Use:   "changes [root] --diffs <file>",
	Short: "Map review diffs to the methods they change",
	Long: `Read the diffs of a review and list, per changed file, the indexed method
signatures whose code appears in the diff. The diff file is either a JSON
array of {old_path, new_path, diff, deleted_file} records or a unified patch
as produced by git diff.

The stored snapshot is used when present; otherwise the project is indexed
first.

Examples:
  javachain changes --diffs mr-42.json
  git diff main... | tee review.patch && javachain changes . --diffs review.patch --format human`,
	Args: cobra.MaximumNArgs(1),
	Run:  runChanges,
}

func init() {
	changesCmd.Flags().StringVar(&changesDiffs, "diffs", "", "Diff file (JSON array or unified patch)")
	changesCmd.Flags().StringVar(&changesProject, "project", "", "Project name (default: base name of root)")
	changesCmd.Flags().StringVar(&changesFormat, "format", "json", "Output format (json, human, yaml)")
	_ = changesCmd.MarkFlagRequired("diffs")
	rootCmd.AddCommand(changesCmd)
}

func runChanges(cmd *cobra.Command, args []string) {
	s := newSession(argOrEmpty(args), changesProject)
	defer s.close()
	ctx, cancel := newContext()
	defer cancel()

	diffs, err := changes.LoadDiffs(changesDiffs)
	if err != nil {
		exitWithError("loading diffs", err)
	}
	ix := s.loadIndex(ctx)

	set := changes.New(s.loggers.Logger("changes")).Extract(diffs, ix)
	printResponse(&ChangesResponseCLI{
		Project:    s.project,
		Changes:    set,
		Signatures: nonNil(set.Signatures()),
	}, changesFormat)
}

// ChangesResponseCLI lists the changed methods of a review
type ChangesResponseCLI struct {
	Project    string      `json:"project"`
	Changes    changes.Set `json:"changes"`
	Signatures []string    `json:"signatures"`
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

package main

import (
	"time"

	"github.com/spf13/cobra"

	"javachain/internal/changes"
	"javachain/internal/pipeline"
)

var (
	reviewDiffs   string
	reviewReport  string
	reviewProject string
	reviewRunID   string
	reviewFormat  string
)

var reviewCmd = &cobra.Command{
	Use:   "review [root] --diffs <file>",
	Short: "Run the full review pipeline",
	Long: `Index the project, map the diffs to changed methods, drop the methods a
PMD report already flags, then expand the call graph and assemble the code
context of every remaining method. Each stage writes its artifact under
<workspace>/.javachain/runs/<project>/:

  1_analyze_project.json         signature snapshot
  2_changed_methods.json         changed methods per diff
  2_changed_methods_filter.json  changed methods after the violation filter
  3_method_calls.json            nested call graph per changed method
  4_code_context.json            code context per changed method

Examples:
  javachain review --diffs mr-42.json
  javachain review ./order-service --diffs review.patch --pmd-report target/pmd.json`,
	Args: cobra.MaximumNArgs(1),
	Run:  runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewDiffs, "diffs", "", "Diff file (JSON array or unified patch)")
	reviewCmd.Flags().StringVar(&reviewReport, "pmd-report", "", "PMD JSON report (default: review.pmdReportPath)")
	reviewCmd.Flags().StringVar(&reviewProject, "project", "", "Project name (default: base name of root)")
	reviewCmd.Flags().StringVar(&reviewRunID, "run-id", "", "Run identifier (default: random UUID)")
	reviewCmd.Flags().StringVar(&reviewFormat, "format", "json", "Output format (json, human, yaml)")
	_ = reviewCmd.MarkFlagRequired("diffs")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) {
	s := newSession(argOrEmpty(args), reviewProject)
	defer s.close()
	ctx, cancel := newContext()
	defer cancel()

	diffs, err := changes.LoadDiffs(reviewDiffs)
	if err != nil {
		exitWithError("loading diffs", err)
	}

	res, err := s.runner().Run(ctx, pipeline.Request{
		Project:    s.project,
		Root:       s.root,
		Workspace:  s.workspace,
		Diffs:      diffs,
		ReportPath: reviewReport,
		RunID:      reviewRunID,
	})
	if err != nil {
		exitWithError("running review", err)
	}

	printResponse(convertReviewResult(res), reviewFormat)
}

// ReviewResponseCLI summarises a review run. The stage outputs themselves
// are in the artifacts.
type ReviewResponseCLI struct {
	RunID         string   `json:"runId"`
	Project       string   `json:"project"`
	ArtifactDir   string   `json:"artifactDir"`
	Artifacts     []string `json:"artifacts"`
	ChangedFiles  int      `json:"changedFiles"`
	ReviewedFiles int      `json:"reviewedFiles"`
	Flagged       int      `json:"flaggedSignatures"`
	Signatures    []string `json:"signatures"`
	Skipped       []string `json:"skippedSignatures,omitempty"`
	Duration      string   `json:"duration"`
}

func convertReviewResult(res *pipeline.Result) *ReviewResponseCLI {
	return &ReviewResponseCLI{
		RunID:         res.RunID,
		Project:       res.Project,
		ArtifactDir:   res.ArtifactDir,
		Artifacts:     res.Artifacts,
		ChangedFiles:  len(res.Changes),
		ReviewedFiles: len(res.Filtered),
		Flagged:       res.Flagged,
		Signatures:    nonNil(res.Filtered.Signatures()),
		Skipped:       res.Skipped,
		Duration:      res.Duration.Round(time.Millisecond).String(),
	}
}

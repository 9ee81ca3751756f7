package main

import (
	"github.com/spf13/cobra"

	"javachain/internal/errors"
	"javachain/internal/violations"
)

var (
	violationsLevel    string
	violationsProject  string
	violationsRoot     string
	violationsLinkBase string
	violationsAnnotate bool
	violationsFormat   string
)

var violationsCmd = &cobra.Command{
	Use:   "violations <pmd-report.json>",
	Short: "Filter a PMD report by the review policy",
	Long: `Apply the review policy to a PMD JSON report: skip test files and
excluded rules, then keep the priorities the project's level allows
(HIGH: 1, MIDDLE: 1-2, LOW: all).

--annotate maps every remaining violation to the indexed methods whose line
range it overlaps. The human format prints a Markdown table for the review
comment.

Examples:
  javachain violations target/pmd.json --format human
  javachain violations pmd.json --level high --link-base https://git.example.com/shop/blob/main
  javachain violations pmd.json --annotate --root ./order-service`,
	Args: cobra.ExactArgs(1),
	Run:  runViolations,
}

func init() {
	violationsCmd.Flags().StringVar(&violationsLevel, "level", "", "Override the project level (high, middle, low)")
	violationsCmd.Flags().StringVar(&violationsProject, "project", "", "Project name (default: base name of root)")
	violationsCmd.Flags().StringVar(&violationsRoot, "root", "", "Project root (default: current directory)")
	violationsCmd.Flags().StringVar(&violationsLinkBase, "link-base", "", "URL prefix for file links in Markdown")
	violationsCmd.Flags().BoolVar(&violationsAnnotate, "annotate", false, "Map violations to method signatures")
	violationsCmd.Flags().StringVar(&violationsFormat, "format", "json", "Output format (json, human, yaml)")
	rootCmd.AddCommand(violationsCmd)
}

func runViolations(cmd *cobra.Command, args []string) {
	s := newSession(violationsRoot, violationsProject)
	defer s.close()

	report, err := violations.LoadReport(args[0])
	if err != nil {
		exitWithError("loading report", err)
	}

	policy := s.policy()
	if violationsLevel != "" {
		level, err := violations.ParseLevel(violationsLevel)
		if err != nil {
			exitWithError("", errors.NewChainError(errors.ConfigInvalid, err.Error(), nil, nil))
		}
		policy = violations.NewPolicy(level, nil, s.cfg.Review.SkipRules, nil)
	}
	kept := policy.Filter(report, s.project, s.root)

	resp := &ViolationsResponseCLI{
		Project: s.project,
		Level:   string(policy.LevelFor(s.project)),
		Total:   report.Count(),
		Kept:    kept.Count(),
		Report:  kept,
	}
	if violationsAnnotate {
		ctx, cancel := newContext()
		defer cancel()
		flagged := violations.Annotate(kept, s.loadIndex(ctx), s.root)
		resp.Flagged = len(flagged)
	}
	resp.Markdown = violations.Markdown(kept, s.root, violationsLinkBase)

	printResponse(resp, violationsFormat)
}

// ViolationsResponseCLI holds a filtered report
type ViolationsResponseCLI struct {
	Project  string             `json:"project"`
	Level    string             `json:"level"`
	Total    int                `json:"total"`
	Kept     int                `json:"kept"`
	Flagged  int                `json:"flaggedSignatures,omitempty"`
	Report   *violations.Report `json:"report"`
	Markdown string             `json:"-"`
}

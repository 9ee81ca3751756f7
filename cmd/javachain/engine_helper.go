package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"javachain/internal/config"
	"javachain/internal/errors"
	"javachain/internal/index"
	"javachain/internal/pipeline"
	"javachain/internal/slogutil"
	"javachain/internal/violations"
)

// session bundles what every command needs: the resolved paths, the
// configuration and the logger factory.
type session struct {
	root      string
	workspace string
	project   string
	cfg       *config.Config
	loggers   *slogutil.Factory
	logger    *slog.Logger
}

// newSession resolves root (cwd when empty), loads the workspace config and
// sets up logging. project defaults to the base name of root.
func newSession(root, project string) *session {
	if root == "" {
		root = mustGetRepoRoot()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		exitWithError("resolving project root", err)
	}
	ws := workspaceFlag
	if ws == "" {
		ws = abs
	}
	if project == "" {
		project = filepath.Base(abs)
	}

	cfg, cfgErr := config.LoadConfig(ws)
	if cfgErr != nil {
		cfg = config.DefaultConfig()
	}
	loggers := slogutil.NewFactory(os.Stderr, cfg.Logging, cliLevel())
	logger := loggers.Logger("cli")
	if cfgErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", cfgErr.Error())
	}
	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration",
			errors.NewChainError(errors.ConfigInvalid, err.Error(), nil, nil))
	}

	return &session{
		root:      abs,
		workspace: ws,
		project:   project,
		cfg:       cfg,
		loggers:   loggers,
		logger:    logger,
	}
}

// cliLevel returns the level forced by -v/-q, or nil to defer to config.
func cliLevel() *slog.Level {
	if verbosity == 0 && !quiet {
		return nil
	}
	lvl := slogutil.LevelFromVerbosity(verbosity, quiet)
	return &lvl
}

func (s *session) close() {
	_ = s.loggers.Close()
}

// policy loads the review policy named in the config. An unreadable policy
// file falls back to the configured default level.
func (s *session) policy() violations.Policy {
	level, err := violations.ParseLevel(s.cfg.Review.DefaultLevel)
	if err != nil {
		level = violations.Low
	}
	p, err := violations.LoadPolicy(resolvePath(s.workspace, s.cfg.Review.PolicyPath), level, s.cfg.Review.SkipRules)
	if err != nil {
		s.logger.Warn("Failed to load review policy, using defaults", "error", err.Error())
		return violations.NewPolicy(level, nil, s.cfg.Review.SkipRules, nil)
	}
	return p
}

func (s *session) runner() *pipeline.Runner {
	return pipeline.New(s.cfg, s.policy(), s.loggers)
}

// loadIndex returns the stored snapshot of the project, analysing the tree
// first when no snapshot exists yet.
func (s *session) loadIndex(ctx context.Context) *index.Index {
	r := s.runner()
	ix, err := r.LoadIndex(s.workspace, s.project, s.root)
	if err == nil {
		return ix
	}
	if !errors.IsCode(err, errors.SnapshotMissing) {
		exitWithError("loading snapshot", err)
	}
	s.logger.Info("No snapshot yet, analysing project", "project", s.project)
	a, err := r.Analyze(ctx, pipeline.Request{Project: s.project, Root: s.root, Workspace: s.workspace})
	if err != nil {
		exitWithError("analysing project", err)
	}
	return a.Index
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// getRepoRoot returns the repository root directory.
func getRepoRoot() (string, error) {
	return os.Getwd()
}

// mustGetRepoRoot returns the repository root or exits on error.
func mustGetRepoRoot() string {
	repoRoot, err := getRepoRoot()
	if err != nil {
		exitWithError("", err)
	}
	return repoRoot
}

// newContext returns a context cancelled on SIGINT or SIGTERM.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// exitWithError prints err, with suggested fixes for engine errors, and
// exits with status 1.
func exitWithError(action string, err error) {
	if action != "" {
		fmt.Fprintf(os.Stderr, "Error %s: %v\n", action, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	if fixes := suggestedFixes(err); len(fixes) > 0 {
		fmt.Fprintln(os.Stderr, "\nSuggested fixes:")
		for _, f := range fixes {
			if f.Command != "" {
				fmt.Fprintf(os.Stderr, "  - %s\n    $ %s\n", f.Description, f.Command)
			} else {
				fmt.Fprintf(os.Stderr, "  - %s\n", f.Description)
			}
		}
	}
	os.Exit(1)
}

func suggestedFixes(err error) []errors.FixAction {
	var ce *errors.ChainError
	if stderrors.As(err, &ce) {
		return ce.SuggestedFixes
	}
	return nil
}

// printResponse formats resp and writes it to stdout.
func printResponse(resp interface{}, format string) {
	output, err := FormatResponse(resp, OutputFormat(format))
	if err != nil {
		exitWithError("formatting output", err)
	}
	fmt.Println(output)
}

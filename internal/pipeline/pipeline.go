// Package pipeline runs one review: index the project, map the diffs to
// changed methods, drop methods static checks already flagged, expand the
// call graph around the rest and assemble their code context. Every stage
// writes its artifact before the next one starts.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"javachain/internal/artifacts"
	"javachain/internal/callgraph"
	"javachain/internal/changes"
	"javachain/internal/codecontext"
	"javachain/internal/config"
	"javachain/internal/errors"
	"javachain/internal/index"
	"javachain/internal/indexer"
	"javachain/internal/resolver"
	"javachain/internal/slogutil"
	"javachain/internal/storage"
	"javachain/internal/violations"
)

// Loggers hands out component loggers. *slogutil.Factory implements it.
type Loggers interface {
	Logger(component string) *slog.Logger
}

type discardLoggers struct{}

func (discardLoggers) Logger(string) *slog.Logger { return slogutil.NewDiscardLogger() }

// Request describes one review run.
type Request struct {
	// Project names the project; artifacts and stored runs are keyed by it.
	Project string
	// Root is the checked-out source tree.
	Root string
	// Workspace holds the .javachain directory. Defaults to Root.
	Workspace string
	Diffs     []changes.Diff
	// ReportPath is a PMD JSON report. Empty falls back to
	// review.pmdReportPath; a report named here must load.
	ReportPath string
	// RunID defaults to a fresh UUID.
	RunID string
}

// CallGraphs is artifact 3: change index -> signature -> nested graph.
type CallGraphs map[int]map[string]*callgraph.Node

// Contexts is artifact 4: change index -> signature -> class bundle.
type Contexts map[int]map[string]codecontext.Bundle

// Result summarises a run.
type Result struct {
	RunID       string             `json:"runId"`
	Project     string             `json:"project"`
	ArtifactDir string             `json:"artifactDir"`
	Meta        *index.Meta        `json:"meta"`
	Changes     changes.Set        `json:"changes"`
	Filtered    changes.Set        `json:"filtered"`
	Flagged     int                `json:"flaggedSignatures"`
	CallGraphs  CallGraphs         `json:"callGraphs"`
	Contexts    Contexts           `json:"contexts"`
	Skipped     []string           `json:"skippedSignatures,omitempty"`
	Artifacts   []string           `json:"artifacts"`
	Duration    time.Duration      `json:"duration"`
	Index       *index.Index       `json:"-"`
	Report      *violations.Report `json:"-"`
}

// Analysis is the output of the indexing stage.
type Analysis struct {
	Index *index.Index
	Meta  *index.Meta
	Files []string
}

// Runner executes review runs with a fixed configuration.
type Runner struct {
	cfg     *config.Config
	filters indexer.Filters
	policy  violations.Policy
	loggers Loggers
	logger  *slog.Logger
}

// New creates a runner. A nil loggers discards all output.
func New(cfg *config.Config, policy violations.Policy, loggers Loggers) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if loggers == nil {
		loggers = discardLoggers{}
	}
	return &Runner{
		cfg:     cfg,
		filters: indexer.FiltersFromConfig(cfg.Filters),
		policy:  policy,
		loggers: loggers,
		logger:  loggers.Logger("pipeline"),
	}
}

// ArtifactDir returns where artifacts of project are written.
func (r *Runner) ArtifactDir(workspace, project string) string {
	return filepath.Join(resolvePath(workspace, r.cfg.Artifacts.Dir), project)
}

// Store returns the artifact store of project.
func (r *Runner) Store(workspace, project string) *artifacts.Store {
	return artifacts.New(r.ArtifactDir(workspace, project), r.cfg.Artifacts.Compress)
}

// Run executes every stage for req. Only a missing project root, a held
// lock, an unreadable explicit report or a failed artifact write abort the
// run; a signature failing graph expansion is logged and skipped.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	if err := checkRoot(req.Root); err != nil {
		return nil, err
	}
	if req.Workspace == "" {
		req.Workspace = req.Root
	}
	if req.RunID == "" {
		req.RunID = storage.NewRunID()
	}

	store := r.Store(req.Workspace, req.Project)
	lock, err := index.AcquireLock(store.Dir())
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	res := &Result{RunID: req.RunID, Project: req.Project, ArtifactDir: store.Dir()}
	write := func(stage string, v any) error {
		path, err := store.Write(stage, v)
		if err != nil {
			return err
		}
		res.Artifacts = append(res.Artifacts, path)
		return nil
	}

	analysis, err := r.analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	res.Index, res.Meta = analysis.Index, analysis.Meta
	if err := write(artifacts.AnalyzeProject, analysis.Index.Snapshot()); err != nil {
		return nil, err
	}
	r.persist(ctx, req, analysis, store.Dir())

	res.Changes = changes.New(r.loggers.Logger("changes")).Extract(req.Diffs, analysis.Index)
	if err := write(artifacts.ChangedMethods, res.Changes); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Filtered, res.Report, res.Flagged, err = r.filterViolations(req, analysis.Index, res.Changes)
	if err != nil {
		return nil, err
	}
	if err := write(artifacts.ChangedMethodsFilter, res.Filtered); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.CallGraphs, res.Skipped = r.callGraphs(analysis.Index, res.Filtered)
	if err := write(artifacts.MethodCalls, res.CallGraphs); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Contexts = r.contexts(analysis.Index, res.Filtered)
	if err := write(artifacts.CodeContext, res.Contexts); err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	r.logger.Info("Review run complete",
		"run", res.RunID,
		"project", req.Project,
		"changes", len(res.Changes),
		"reviewed", len(res.Filtered),
		"flagged", res.Flagged,
		"skipped", len(res.Skipped),
		"duration", res.Duration.Milliseconds(),
	)
	return res, nil
}

// Analyze indexes and resolves the project, then writes artifact 1, the
// snapshot metadata and, when enabled, the stored run.
func (r *Runner) Analyze(ctx context.Context, req Request) (*Analysis, error) {
	if err := checkRoot(req.Root); err != nil {
		return nil, err
	}
	if req.Workspace == "" {
		req.Workspace = req.Root
	}
	if req.RunID == "" {
		req.RunID = storage.NewRunID()
	}

	store := r.Store(req.Workspace, req.Project)
	lock, err := index.AcquireLock(store.Dir())
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	analysis, err := r.analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	if _, err := store.Write(artifacts.AnalyzeProject, analysis.Index.Snapshot()); err != nil {
		return nil, err
	}
	r.persist(ctx, req, analysis, store.Dir())
	return analysis, nil
}

// LoadIndex reads the snapshot of the last run of project. It logs when the
// source tree changed since.
func (r *Runner) LoadIndex(workspace, project, root string) (*index.Index, error) {
	store := r.Store(workspace, project)
	snap, err := store.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	meta, err := index.LoadMeta(store.Dir())
	if err != nil {
		r.logger.Warn("Cannot read snapshot metadata", "error", err.Error())
	}
	if meta != nil && root != "" {
		if fr := meta.CheckFreshness(root); !fr.Fresh {
			r.logger.Warn("Snapshot is stale", "project", project, "reason", fr.Reason)
		}
	}
	return index.New(snap), nil
}

func (r *Runner) analyze(ctx context.Context, req Request) (*Analysis, error) {
	start := time.Now()
	raw, err := indexer.New(r.filters, r.loggers.Logger("indexer")).Index(ctx, req.Root)
	if err != nil {
		return nil, err
	}
	snap := resolver.New(r.loggers.Logger("resolver")).Resolve(raw.Classes)

	fingerprint, err := index.Fingerprint(req.Root, raw.Files)
	if err != nil {
		r.logger.Warn("Cannot fingerprint source tree", "error", err.Error())
	}
	meta := &index.Meta{
		RunID:       req.RunID,
		Project:     req.Project,
		CreatedAt:   time.Now(),
		FileCount:   len(raw.Files),
		ClassCount:  len(snap.Classes),
		MethodCount: len(snap.Methods),
		FieldCount:  len(snap.Fields),
		Duration:    time.Since(start).Round(time.Millisecond).String(),
		Fingerprint: fingerprint,
	}
	return &Analysis{Index: index.New(snap), Meta: meta, Files: raw.Files}, nil
}

// persist writes the metadata and the stored run. Failures are logged; the
// artifacts remain the source of truth for later stages.
func (r *Runner) persist(ctx context.Context, req Request, a *Analysis, dir string) {
	if err := a.Meta.Save(dir); err != nil {
		r.logger.Warn("Cannot write snapshot metadata", "error", err.Error())
	}
	if !r.cfg.Storage.Enabled {
		return
	}
	db, err := storage.OpenPath(resolvePath(req.Workspace, r.cfg.Storage.Path), r.loggers.Logger("storage"))
	if err != nil {
		r.logger.Warn("Cannot open snapshot store", "error", err.Error())
		return
	}
	defer db.Close()
	if err := db.SaveSnapshot(ctx, req.RunID, req.Project, a.Index.Snapshot()); err != nil {
		r.logger.Warn("Cannot store snapshot", "run", req.RunID, "error", err.Error())
	}
}

func (r *Runner) filterViolations(req Request, ix *index.Index, set changes.Set) (changes.Set, *violations.Report, int, error) {
	path, explicit := req.ReportPath, true
	if path == "" {
		path, explicit = r.cfg.Review.PMDReportPath, false
	}
	if path == "" {
		return set, nil, 0, nil
	}
	path = resolvePath(req.Root, path)

	report, err := violations.LoadReport(path)
	if err != nil {
		if explicit {
			return nil, nil, 0, err
		}
		r.logger.Warn("Skipping violation filter", "path", path, "error", err.Error())
		return set, nil, 0, nil
	}

	kept := r.policy.Filter(report, req.Project, req.Root)
	flagged := violations.Annotate(kept, ix, req.Root)
	filtered := violations.FilterChanges(set, flagged)
	r.logger.Info("Applied violation filter",
		"level", string(r.policy.LevelFor(req.Project)),
		"violations", kept.Count(),
		"flagged", len(flagged),
		"changes", len(filtered),
	)
	return filtered, kept, len(flagged), nil
}

func (r *Runner) callGraphs(ix *index.Index, set changes.Set) (CallGraphs, []string) {
	analyzer := callgraph.New(ix)
	logger := r.loggers.Logger("callgraph")
	out := make(CallGraphs, len(set))
	var skipped []string
	for _, i := range set.Indices() {
		graphs := make(map[string]*callgraph.Node)
		for _, sig := range set[i].Signatures {
			node, err := analyzer.NestedRelationship(sig, r.cfg.Traversal.MaxCallsOut, r.cfg.Traversal.MaxCallsIn)
			if err != nil {
				logger.Warn("Skipping signature", "change", i, "signature", sig, "error", err.Error())
				skipped = append(skipped, sig)
				continue
			}
			graphs[sig] = node
		}
		out[i] = graphs
	}
	return out, skipped
}

func (r *Runner) contexts(ix *index.Index, set changes.Set) Contexts {
	analyzer := callgraph.New(ix)
	assembler := codecontext.New(ix, r.loggers.Logger("codecontext"))
	logger := r.loggers.Logger("codecontext")
	out := make(Contexts, len(set))
	for _, i := range set.Indices() {
		bundles := make(map[string]codecontext.Bundle)
		for _, sig := range set[i].Signatures {
			rel, err := analyzer.Relationship(sig, r.cfg.Traversal.MaxCallsOut, r.cfg.Traversal.MaxCallsIn)
			if err != nil {
				logger.Warn("Skipping signature", "change", i, "signature", sig, "error", err.Error())
				continue
			}
			bundle, err := assembler.Assemble(sig, rel.Signatures())
			if err != nil {
				logger.Warn("Cannot assemble context", "change", i, "signature", sig, "error", err.Error())
				continue
			}
			bundles[sig] = bundle
		}
		out[i] = bundles
	}
	return out
}

func checkRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return errors.NewChainError(errors.ProjectNotFound, "project root is not a directory: "+root, err, nil).
			WithDetails(map[string]string{"root": root})
	}
	return nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

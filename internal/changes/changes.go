// Package changes maps the file diffs of a review to the method signatures
// they touch.
package changes

import (
	"log/slog"
	"sort"
	"strings"

	"javachain/internal/indexer"
	"javachain/internal/slogutil"
)

// Diff is one changed file as delivered by the review platform.
type Diff struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	// Diff holds the unified diff of the file, usually hunks only.
	Diff        string `json:"diff"`
	DeletedFile bool   `json:"deleted_file,omitempty"`
}

// Change is the extraction result for one Diff.
type Change struct {
	Signatures []string `json:"method_signatures"`
	OldCode    string   `json:"old_code"`
	NewCode    string   `json:"new_code"`
	FilePath   string   `json:"file_path"`
	DiffText   string   `json:"diffs_text"`
}

// Set maps the position of a Diff in the input to its Change. Diffs that
// resolve to no signature have no entry.
type Set map[int]*Change

// Indices returns the change indices in ascending order.
func (s Set) Indices() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Signatures returns every changed signature, deduplicated, in change order.
func (s Set) Signatures() []string {
	seen := make(map[string]bool)
	var out []string
	for _, i := range s.Indices() {
		for _, sig := range s[i].Signatures {
			if !seen[sig] {
				seen[sig] = true
				out = append(out, sig)
			}
		}
	}
	return out
}

// Lookup is the part of the project index the extractor needs.
type Lookup interface {
	ClassesForPath(path string) []string
	HasMethod(sig string) bool
}

// Extractor turns diffs into changed method signatures.
type Extractor struct {
	logger *slog.Logger
}

// New creates an extractor. A nil logger discards output.
func New(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Extractor{logger: logger}
}

// Extract resolves each Java diff against the index. A diff that cannot be
// parsed, has an empty new view, maps to no known class, or contains no
// indexed method is logged and left out.
func (e *Extractor) Extract(diffs []Diff, lookup Lookup) Set {
	out := make(Set)
	for i, d := range diffs {
		path := d.NewPath
		if path == "" {
			path = d.OldPath
		}
		if d.DeletedFile || d.Diff == "" || !strings.HasSuffix(path, ".java") {
			continue
		}

		oldCode, newCode, err := Views(d.Diff)
		if err != nil {
			e.logger.Warn("unparseable diff", "index", i, "path", path, "error", err.Error())
			continue
		}
		if strings.TrimSpace(newCode) == "" {
			e.logger.Debug("empty new view", "index", i, "path", path)
			continue
		}

		classes := lookup.ClassesForPath(path)
		if len(classes) == 0 {
			e.logger.Warn("no indexed class for changed file", "index", i, "path", path)
			continue
		}

		sigs := Signatures(newCode, classes, lookup)
		if len(sigs) == 0 {
			e.logger.Debug("no changed signatures", "index", i, "path", path)
			continue
		}
		out[i] = &Change{
			Signatures: sigs,
			OldCode:    oldCode,
			NewCode:    newCode,
			FilePath:   path,
			DiffText:   d.Diff,
		}
	}

	e.logger.Info("Extracted changed signatures",
		"diffs", len(diffs),
		"changes", len(out),
		"signatures", len(out.Signatures()),
	)
	return out
}

// Signatures extracts the methods of a code fragment and returns those that
// exist in the index under one of classes, in fragment order.
func Signatures(code string, classes []string, lookup Lookup) []string {
	var out []string
	seen := make(map[string]bool)
	for _, rm := range indexer.ExtractMethods(indexer.NewSource(code)) {
		for _, class := range classes {
			sig := class + "." + rm.Signature
			if seen[sig] || !lookup.HasMethod(sig) {
				continue
			}
			seen[sig] = true
			out = append(out, sig)
		}
	}
	return out
}

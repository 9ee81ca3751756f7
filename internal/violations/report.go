// Package violations reads PMD style violation reports and removes methods
// that static checks already flagged from the set sent to review.
package violations

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"javachain/internal/errors"
)

// Report is a PMD JSON report.
type Report struct {
	FormatVersion int    `json:"formatVersion,omitempty"`
	PMDVersion    string `json:"pmdVersion,omitempty"`
	Files         []File `json:"files"`
}

// File holds the violations of one source file.
type File struct {
	Filename   string      `json:"filename"`
	Violations []Violation `json:"violations"`
	// Signatures lists the indexed methods overlapping any violation. It is
	// filled by Annotate.
	Signatures []string `json:"method_signature,omitempty"`
}

// Violation is one rule hit.
type Violation struct {
	BeginLine   int    `json:"beginline"`
	BeginColumn int    `json:"begincolumn,omitempty"`
	EndLine     int    `json:"endline"`
	EndColumn   int    `json:"endcolumn,omitempty"`
	Description string `json:"description"`
	Rule        string `json:"rule"`
	RuleSet     string `json:"ruleset,omitempty"`
	Priority    int    `json:"priority"`
}

// ParseReport decodes a report.
func ParseReport(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.NewChainError(errors.ReportInvalid, "violation report is not valid JSON", err, nil)
	}
	return &r, nil
}

// LoadReport reads and decodes the report at path.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewChainError(errors.ReportInvalid, "cannot read violation report "+path, err, nil)
	}
	return ParseReport(data)
}

// Count returns the total number of violations.
func (r *Report) Count() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Violations)
	}
	return n
}

// Filter returns a copy of r without files matching a skip keyword, rules
// the policy skips, and violations above the project's priority threshold.
// Filenames are matched relative to root when they lie below it.
func (p Policy) Filter(r *Report, project, root string) *Report {
	threshold := p.LevelFor(project).Threshold()
	out := &Report{FormatVersion: r.FormatVersion, PMDVersion: r.PMDVersion, Files: []File{}}
	for _, f := range r.Files {
		if p.SkipsFile(relativeTo(root, f.Filename)) {
			continue
		}
		kept := File{Filename: f.Filename, Violations: []Violation{}}
		for _, v := range f.Violations {
			if p.SkipsRule(v.Rule) || v.Priority > threshold {
				continue
			}
			kept.Violations = append(kept.Violations, v)
		}
		out.Files = append(out.Files, kept)
	}
	return out
}

// KeepPriorities returns the violations with priority at most threshold.
func KeepPriorities(vs []Violation, threshold int) []Violation {
	out := []Violation{}
	for _, v := range vs {
		if v.Priority <= threshold {
			out = append(out, v)
		}
	}
	return out
}

// PriorityLabel names a PMD priority.
func PriorityLabel(priority int) string {
	switch priority {
	case 1:
		return "high"
	case 2:
		return "medium"
	case 3:
		return "low"
	case 4, 5:
		return "info"
	}
	return fmt.Sprintf("unknown(%d)", priority)
}

// Markdown renders the report as a table with one row per violation. When
// linkBase is set, file cells link to linkBase + "/" + the path relative
// to root.
func Markdown(r *Report, root, linkBase string) string {
	var b strings.Builder
	b.WriteString("| File | Reason | Priority |\n")
	b.WriteString("|------|--------|----------|\n")
	for _, f := range r.Files {
		rel := relativeTo(root, f.Filename)
		name := filepath.Base(rel)
		for _, v := range f.Violations {
			loc := fmt.Sprintf("%d", v.BeginLine)
			if v.EndLine != v.BeginLine {
				loc = fmt.Sprintf("%d-%d", v.BeginLine, v.EndLine)
			}
			cell := name + ":" + loc
			if linkBase != "" {
				cell = fmt.Sprintf("[%s](%s/%s)", cell, strings.TrimRight(linkBase, "/"), rel)
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", cell, strings.TrimSpace(v.Description), PriorityLabel(v.Priority))
		}
	}
	fmt.Fprintf(&b, "\n**%d violations**\n", r.Count())
	return b.String()
}

func relativeTo(root, filename string) string {
	if root == "" || !filepath.IsAbs(filename) {
		return filepath.ToSlash(filename)
	}
	rel, err := filepath.Rel(root, filename)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(filename)
	}
	return filepath.ToSlash(rel)
}

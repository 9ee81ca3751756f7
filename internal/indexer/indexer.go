// Package indexer scans Java sources and extracts classes, fields and
// methods textually. It never type-checks; everything comes from regular
// expressions plus a brace scanner that ignores comments and literals.
package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"javachain/internal/errors"
	"javachain/internal/slogutil"
)

// RawClass is a class as found in one source file, before signature
// resolution.
type RawClass struct {
	// Name is the fully qualified class name.
	Name       string
	SimpleName string
	Package    string
	// Kind is the declaration keyword: class, interface, enum or record.
	Kind string
	// Path is relative to the project root, slash separated.
	Path     string
	Skeleton string
	// Imports maps simple names to fully qualified names. Wildcard imports
	// are not recorded.
	Imports map[string]string
	Fields  []RawField
	Methods []RawMethod

	StartLine, EndLine int
}

// RawField is a class-level field declaration.
type RawField struct {
	Name   string
	Type   string
	Source string
	Line   int
}

// Result is the outcome of indexing one project.
type Result struct {
	Root    string
	Classes []RawClass
	// Files lists every .java file visited, relative and sorted.
	Files   []string
	Skipped []SkippedFile
}

// SkippedFile records a source file that could not be read or parsed.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Indexer walks a project tree and parses every .java file in it.
type Indexer struct {
	filters Filters
	logger  *slog.Logger
}

// New creates an indexer. A nil logger discards output.
func New(filters Filters, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Indexer{filters: filters, logger: logger}
}

// Index parses every .java file under root in lexical path order. Files
// that cannot be read or are not valid UTF-8 are logged and skipped; only
// a missing root is an error.
func (ix *Indexer) Index(ctx context.Context, root string) (*Result, error) {
	start := time.Now()
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errors.NewChainError(errors.ProjectNotFound, "project root is not a directory: "+root, err, nil)
	}

	files, err := JavaFiles(root, ix.logger)
	if err != nil {
		return nil, err
	}

	res := &Result{Root: root, Files: files}
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			ix.skip(res, rel, err.Error())
			continue
		}
		if !utf8.Valid(data) {
			ix.skip(res, rel, "not valid UTF-8")
			continue
		}
		classes, err := parseSafely(rel, string(data), ix.filters)
		if err != nil {
			ix.skip(res, rel, err.Error())
			continue
		}
		res.Classes = append(res.Classes, classes...)
	}

	ix.logger.Info("Indexed project",
		"files", len(res.Files),
		"classes", len(res.Classes),
		"skipped", len(res.Skipped),
		"duration", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// JavaFiles lists the .java files under root, relative and slash separated,
// in lexical order. Hidden directories are not entered. Unreadable
// directories are logged and skipped.
func JavaFiles(root string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("walk error", "path", path, "error", walkErr.Error())
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

func (ix *Indexer) skip(res *Result, rel, reason string) {
	ix.logger.Warn("skipping file", "path", rel, "reason", reason)
	res.Skipped = append(res.Skipped, SkippedFile{Path: rel, Reason: reason})
}

// parseFile is the per-file parser used by Index.
var parseFile = ParseFile

// parseSafely runs parseFile and turns a scanner panic into an error, so
// one malformed file cannot abort the pass.
func parseSafely(rel, content string, filters Filters) (classes []RawClass, err error) {
	defer func() {
		if r := recover(); r != nil {
			classes, err = nil, fmt.Errorf("parse failed: %v", r)
		}
	}()
	return parseFile(rel, content, filters), nil
}

// ParseFile extracts the classes declared in one file. Classes whose body
// never closes are dropped.
func ParseFile(relPath, content string, filters Filters) []RawClass {
	src := NewSource(content)

	pkg := ""
	if m := packagePattern.FindStringSubmatchIndex(content); m != nil && !src.InLiteral(m[2]) {
		pkg = content[m[2]:m[3]]
	}
	if filters.SkipPackage(pkg) {
		return nil
	}

	imports := make(map[string]string)
	for _, m := range importPattern.FindAllStringSubmatchIndex(content, -1) {
		if src.InLiteral(m[2]) {
			continue
		}
		fqcn := content[m[2]:m[3]]
		if strings.HasSuffix(fqcn, ".*") {
			continue
		}
		imports[fqcn[strings.LastIndexByte(fqcn, '.')+1:]] = fqcn
	}

	decls := classDecls(src)
	var classes []RawClass
	for i, d := range decls {
		m := d.match
		simple := content[m[4]:m[5]]
		name := simple
		if pkg != "" {
			name = pkg + "." + simple
		}
		if filters.SkipClass(name) {
			continue
		}
		start := src.LeadingTrivia(d.start)
		nested := nestedBodies(decls, i)

		var methods []RawMethod
		for _, rm := range extractMethodsIn(src, d.open, d.end) {
			if !within(rm.DeclStart, nested) {
				methods = append(methods, rm)
			}
		}
		cls := RawClass{
			Name:       name,
			SimpleName: simple,
			Package:    pkg,
			Kind:       content[m[2]:m[3]],
			Path:       relPath,
			Skeleton:   content[start:d.open] + "\n}",
			Imports:    imports,
			Fields:     extractFields(src, d.open, d.end, methods, nested),
			StartLine:  src.Line(start),
			EndLine:    src.Line(d.end - 1),
		}
		for _, rm := range methods {
			if filters.SkipMethod(name + "." + rm.Signature) {
				continue
			}
			cls.Methods = append(cls.Methods, rm)
		}
		classes = append(classes, cls)
	}
	return classes
}

// classDecl is a type declaration whose body closes. Its body spans
// [open, end), where open is just past the opening brace.
type classDecl struct {
	match     []int
	start     int
	open, end int
}

// classDecls lists the type declarations outside comments and literals
// whose body closes after the header. A header brace inside parentheses
// can make the block close early; such declarations are dropped.
func classDecls(src *Source) []classDecl {
	var out []classDecl
	for _, m := range classPattern.FindAllStringSubmatchIndex(src.Text, -1) {
		if src.InLiteral(m[0]) {
			continue
		}
		end := src.BlockEnd(m[0])
		if end <= m[1] {
			continue
		}
		out = append(out, classDecl{match: m, start: m[0], open: m[1], end: end})
	}
	return out
}

// nestedBodies returns the spans of the declarations directly or
// indirectly nested in decls[i]. Their members belong to the nested class.
func nestedBodies(decls []classDecl, i int) [][2]int {
	outer := decls[i]
	var out [][2]int
	for _, d := range decls[i+1:] {
		if d.start >= outer.end {
			break
		}
		if d.start >= outer.open {
			out = append(out, [2]int{d.start, d.end})
		}
	}
	return out
}

func within(pos int, spans [][2]int) bool {
	for _, sp := range spans {
		if sp[0] <= pos && pos < sp[1] {
			return true
		}
	}
	return false
}

// extractFields finds class-level field declarations in [lo, hi). A field
// whose first character lies inside any method's [Start, End) range is a
// local variable and is dropped, as is one inside a nested class body.
func extractFields(src *Source, lo, hi int, methods []RawMethod, nested [][2]int) []RawField {
	text := src.Text[lo:hi]
	var out []RawField
	for _, m := range fieldPattern.FindAllStringSubmatchIndex(text, -1) {
		at := lo + m[2]
		if src.InLiteral(at) || insideMethod(at, methods) || within(at, nested) {
			continue
		}
		typ := text[m[4]:m[5]]
		name := text[m[6]:m[7]]
		if nonTypeWords[firstWord(typ)] || statementWords[name] {
			continue
		}
		out = append(out, RawField{
			Name:   name,
			Type:   NormalizeType(typ),
			Source: text[m[2]:m[3]],
			Line:   src.Line(at),
		})
	}
	return out
}

func insideMethod(pos int, methods []RawMethod) bool {
	i := sort.Search(len(methods), func(i int) bool { return methods[i].End > pos })
	return i < len(methods) && methods[i].Start <= pos
}

// Package codecontext rebuilds readable class fragments around a method:
// each class touched by the method's call graph is reduced to its
// skeleton plus the fields and methods that matter for the review.
package codecontext

import (
	"log/slog"
	"strings"

	"javachain/internal/errors"
	"javachain/internal/signature"
	"javachain/internal/slogutil"
)

// SelfKey names the bundle entry holding the origin method and the methods
// of its own class that it calls.
const SelfKey = "self"

const indent = "    "

// Bundle maps a class name, or SelfKey, to reconstructed source.
type Bundle map[string]string

// Source is the part of the project index the assembler reads.
type Source interface {
	Method(sig string) (*signature.MethodSignature, bool)
	Class(name string) (*signature.ClassSignature, bool)
	Field(sig string) (*signature.FieldSignature, bool)
	Callees(sig string) []string
}

// Assembler builds code context bundles.
type Assembler struct {
	src    Source
	logger *slog.Logger
}

// New creates an assembler. A nil logger discards output.
func New(src Source, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Assembler{src: src, logger: logger}
}

// Assemble groups sig and related (typically the flat relationship of sig)
// by declaring class and rebuilds one fragment per class. Related methods
// missing from the index are skipped.
func (a *Assembler) Assemble(sig string, related []string) (Bundle, error) {
	if _, ok := a.src.Method(sig); !ok {
		return nil, errors.NewSignatureNotFound(sig)
	}

	var classOrder []string
	groups := make(map[string][]string)
	seen := make(map[string]bool)
	for _, s := range append([]string{sig}, related...) {
		if seen[s] {
			continue
		}
		seen[s] = true
		m, ok := a.src.Method(s)
		if !ok {
			a.logger.Debug("related method not indexed", "signature", s)
			continue
		}
		if _, ok := groups[m.Class]; !ok {
			classOrder = append(classOrder, m.Class)
		}
		groups[m.Class] = append(groups[m.Class], s)
	}

	bundle := make(Bundle, len(classOrder)+1)
	for _, class := range classOrder {
		if code := a.ClassSource(class, groups[class]); code != "" {
			bundle[class] = code
		}
	}

	own := signature.ClassOf(sig)
	self := []string{sig}
	for _, callee := range a.src.Callees(sig) {
		if signature.ClassOf(callee) == own && callee != sig {
			self = append(self, callee)
		}
	}
	bundle[SelfKey] = a.ClassSource(own, self)
	return bundle, nil
}

// ClassSource rebuilds class with only the given methods and the fields
// they use. It returns "" for an unknown class. A skeleton that does not
// end in a closing brace is returned as is.
func (a *Assembler) ClassSource(class string, methods []string) string {
	cs, ok := a.src.Class(class)
	if !ok || cs.Source == "" {
		a.logger.Warn("class skeleton not found", "class", class)
		return ""
	}

	skeleton := strings.TrimRight(cs.Source, " \t\r\n")
	if !strings.HasSuffix(skeleton, "}") {
		a.logger.Warn("malformed class skeleton", "class", class)
		return cs.Source
	}

	var fieldSources, methodSources []string
	seenField := make(map[string]bool)
	for _, sig := range methods {
		m, ok := a.src.Method(sig)
		if !ok {
			continue
		}
		if m.Source != "" {
			methodSources = append(methodSources, m.Source)
		}
		for _, fs := range m.UsedFields {
			f, ok := a.src.Field(fs)
			if !ok || f.Source == "" || seenField[f.Source] {
				continue
			}
			seenField[f.Source] = true
			fieldSources = append(fieldSources, f.Source)
		}
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(skeleton[:len(skeleton)-1], " \t\r\n"))
	for _, src := range fieldSources {
		for _, line := range dedent(src) {
			if strings.TrimSpace(line) != "" {
				b.WriteString("\n" + indent + line)
			}
		}
	}
	if len(fieldSources) > 0 {
		b.WriteString("\n")
	}
	for _, src := range methodSources {
		for _, line := range dedent(src) {
			if strings.TrimSpace(line) == "" {
				b.WriteString("\n")
				continue
			}
			b.WriteString("\n" + indent + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

// dedent splits src into lines and removes from every line after the first
// the indentation they share. Extracted members start at their declaration
// column, so only the continuation lines carry file indentation.
func dedent(src string) []string {
	lines := strings.Split(src, "\n")
	common := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return lines
	}
	for i := 1; i < len(lines); i++ {
		if len(lines[i]) >= common {
			lines[i] = lines[i][common:]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " \t")
		}
	}
	return lines
}

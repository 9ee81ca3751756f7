package indexer

import (
	"regexp"
	"strings"
)

// RawMethod is one method found in Java text.
type RawMethod struct {
	Name string
	// Signature is name(ParamType, ParamType) without the class prefix.
	Signature string
	Source    string
	// Start and End are byte offsets of the method source in the scanned text.
	Start, End int
	// DeclStart is the offset of the declaration itself, after annotations.
	DeclStart          int
	StartLine, EndLine int
}

// ExtractMethods finds method declarations with balanced bodies in src.
// Declarations inside comments or string literals and nested declarations
// inside an accepted body (anonymous classes) are skipped, as are
// declarations whose body never closes.
func ExtractMethods(src *Source) []RawMethod {
	return extractMethodsIn(src, 0, len(src.Text))
}

func extractMethodsIn(src *Source, lo, hi int) []RawMethod {
	if lo >= hi {
		return nil
	}
	var out []RawMethod
	text := src.Text[lo:hi]
	covered := -1
	for _, m := range methodPattern.FindAllStringSubmatchIndex(text, -1) {
		declStart := lo + m[0]
		if declStart < covered || src.InLiteral(declStart) {
			continue
		}
		returnType := text[m[2]:m[3]]
		name := text[m[4]:m[5]]
		params := text[m[6]:m[7]]
		if statementWords[name] || nonTypeWords[firstWord(returnType)] {
			continue
		}

		end := src.BlockEnd(declStart)
		if end < 0 || end > hi {
			continue
		}
		start := src.AnnotationStart(declStart)
		if start < lo {
			start = declStart
		}
		out = append(out, RawMethod{
			Name:      name,
			Signature: name + "(" + strings.Join(ParamTypes(params), ", ") + ")",
			Source:    src.Text[start:end],
			Start:     start,
			End:       end,
			DeclStart: declStart,
			StartLine: src.Line(start),
			EndLine:   src.Line(end - 1),
		})
		covered = end
	}
	return out
}

func firstWord(s string) string {
	if loc := identifierPattern.FindStringIndex(s); loc != nil && loc[0] == 0 {
		return s[:loc[1]]
	}
	return s
}

var (
	paramPattern   = regexp.MustCompile(`^(.+?)\s*\b(\w+)((?:\s*\[\s*\])*)$`)
	varargsPattern = regexp.MustCompile(`\s*\.\.\.\s*`)
)

// ParamTypes returns the normalised parameter types of a raw parameter
// list: "final @Valid List<User> users, int limit" -> [List<User> int].
// Annotations and modifiers are dropped; a single token with no name is
// kept as is.
func ParamTypes(params string) []string {
	params = strings.TrimSpace(params)
	if params == "" {
		return nil
	}
	var out []string
	for _, p := range splitTopLevel(params) {
		p = annotationPattern.ReplaceAllString(p, " ")
		p = strings.TrimSpace(spacePattern.ReplaceAllString(p, " "))
		for strings.HasPrefix(p, "final ") {
			p = strings.TrimSpace(p[len("final "):])
		}
		if p == "" {
			continue
		}
		p = varargsPattern.ReplaceAllString(p, "... ")
		if m := paramPattern.FindStringSubmatch(p); m != nil && strings.TrimSpace(m[1]) != "" {
			p = m[1] + strings.ReplaceAll(m[3], " ", "")
		}
		out = append(out, NormalizeType(p))
	}
	return out
}

// splitTopLevel splits on commas outside generic brackets and parentheses.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			depth++
		case '>', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[last:i])
				last = i + 1
			}
		}
	}
	return append(parts, s[last:])
}

// NormalizeType canonicalises whitespace in a type expression so that
// "Map<String,List< Long >>" and "Map<String, List<Long>>" key the same.
func NormalizeType(t string) string {
	t = strings.TrimSpace(spacePattern.ReplaceAllString(t, " "))
	var b strings.Builder
	for i := 0; i < len(t); i++ {
		c := t[i]
		switch c {
		case ' ':
			prev := t[i-1]
			next := byte(0)
			if i+1 < len(t) {
				next = t[i+1]
			}
			if prev == '<' || prev == '[' || prev == ',' || next == '<' || next == '>' || next == '[' || next == ']' || next == ',' {
				continue
			}
			if prev == '.' {
				continue
			}
			b.WriteByte(c)
		case ',':
			b.WriteString(", ")
		default:
			b.WriteByte(c)
		}
	}
	return strings.TrimSuffix(b.String(), " ")
}

package indexer

import (
	"sort"
	"strings"
)

// span is a half-open byte range [start, end) covering a comment or literal.
type span struct {
	start, end int
}

// Source is a Java text with precomputed comment/literal ranges and line
// offsets. All structural scanning goes through it so that braces inside
// strings, char literals and comments never count.
type Source struct {
	Text  string
	spans []span
	lines []int
}

// NewSource prepares text for scanning.
func NewSource(text string) *Source {
	s := &Source{Text: text}
	s.spans = lexSpans(text)
	s.lines = append(s.lines, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			s.lines = append(s.lines, i+1)
		}
	}
	return s
}

// lexSpans finds line comments, block comments, text blocks, string and
// char literals. Unterminated strings end at the newline; unterminated
// comments run to the end of the text.
func lexSpans(text string) []span {
	var out []span
	n := len(text)
	for i := 0; i < n; {
		c := text[i]
		switch {
		case c == '/' && i+1 < n && text[i+1] == '/':
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = n
			} else {
				end += i
			}
			out = append(out, span{i, end})
			i = end
		case c == '/' && i+1 < n && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				end = n
			} else {
				end += i + 4
			}
			out = append(out, span{i, end})
			i = end
		case c == '"' && strings.HasPrefix(text[i:], `"""`):
			end := strings.Index(text[i+3:], `"""`)
			if end < 0 {
				end = n
			} else {
				end += i + 6
			}
			out = append(out, span{i, end})
			i = end
		case c == '"' || c == '\'':
			end := closeQuote(text, i+1, c)
			out = append(out, span{i, end})
			i = end
		default:
			i++
		}
	}
	return out
}

func closeQuote(text string, i int, quote byte) int {
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			return i
		case quote:
			return i + 1
		}
		i++
	}
	return len(text)
}

// spanAt returns the index of the first span whose end is after pos.
func (s *Source) spanAt(pos int) int {
	return sort.Search(len(s.spans), func(i int) bool { return s.spans[i].end > pos })
}

// InLiteral reports whether pos falls inside a comment or literal.
func (s *Source) InLiteral(pos int) bool {
	j := s.spanAt(pos)
	return j < len(s.spans) && s.spans[j].start <= pos
}

// BlockEnd returns the offset just past the brace that closes the first
// '{' at or after start, or -1 when no brace opens or the block never
// closes. It is the one structural primitive for classes and methods.
func (s *Source) BlockEnd(start int) int {
	text := s.Text
	depth := 0
	opened := false
	j := s.spanAt(start)
	for i := start; i < len(text); i++ {
		for j < len(s.spans) && s.spans[j].end <= i {
			j++
		}
		if j < len(s.spans) && s.spans[j].start <= i {
			i = s.spans[j].end - 1
			j++
			continue
		}
		switch text[i] {
		case '{':
			opened = true
			depth++
		case '}':
			if !opened {
				continue
			}
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// Line returns the 1-based line number of pos.
func (s *Source) Line(pos int) int {
	return sort.Search(len(s.lines), func(i int) bool { return s.lines[i] > pos })
}

// lineStart returns the offset of the first byte of the line holding pos.
func (s *Source) lineStart(pos int) int {
	return s.lines[s.Line(pos)-1]
}

// LeadingTrivia returns the offset where the comments and annotations that
// directly precede a declaration begin. Blank lines may separate them; any
// other line ends the scan.
func (s *Source) LeadingTrivia(declStart int) int {
	text := s.Text
	start := declStart

	ls := s.lineStart(declStart)
	prefix := strings.TrimSpace(text[ls:declStart])
	if prefix != "" {
		if !isAnnotationRun(prefix) {
			return declStart
		}
		start = ls
	}

	cur := ls
	for cur > 0 {
		prevStart := s.lineStart(cur - 1)
		line := strings.TrimSpace(text[prevStart : cur-1])
		switch {
		case line == "":
		case strings.HasPrefix(line, "//"):
			start = prevStart
		case strings.HasPrefix(line, "@"):
			start = prevStart
		case strings.HasSuffix(line, "*/"):
			open := strings.LastIndex(text[:cur-1], "/*")
			if open < 0 {
				return start
			}
			openLine := s.lineStart(open)
			if strings.TrimSpace(text[openLine:open]) != "" {
				return start
			}
			start = openLine
			prevStart = openLine
		default:
			return start
		}
		cur = prevStart
	}
	return start
}

func isAnnotationRun(text string) bool {
	rest := annotationPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(rest) == ""
}

// annotationWindow bounds the backward scan for method annotations.
const annotationWindow = 200

// AnnotationStart returns where the annotation run preceding a method
// declaration begins, looking back at most annotationWindow bytes. An
// annotation belongs to the method only when nothing between it and the
// declaration terminates a statement or closes a block or comment.
func (s *Source) AnnotationStart(declStart int) int {
	text := s.Text
	lo := declStart - annotationWindow
	if lo < 0 {
		lo = 0
	}
	locs := annotationPattern.FindAllStringIndex(text[lo:declStart], -1)
	start := declStart
	for i := len(locs) - 1; i >= 0; i-- {
		at := lo + locs[i][0]
		between := text[at:declStart]
		if strings.ContainsAny(between, ";{}") || strings.Contains(between, "*/") {
			break
		}
		if at > 0 && !isSpace(text[at-1]) && text[at-1] != ')' {
			break
		}
		if s.InLiteral(at) {
			break
		}
		start = at
	}
	return start
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

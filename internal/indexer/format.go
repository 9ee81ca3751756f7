package indexer

import "strings"

// FormatJavaCode collapses runs of blank lines to one and trims the text.
func FormatJavaCode(code string) string {
	return strings.TrimSpace(blankRunPattern.ReplaceAllString(code, "\n\n"))
}

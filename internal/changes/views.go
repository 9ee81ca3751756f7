package changes

import (
	"bytes"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Views splits a unified diff into the code before the change (context and
// removed lines) and after it (context and added lines). Both views are
// filtered with FilterView.
//
// diffText may be bare hunks, as review platforms deliver per-file diffs,
// or a complete patch with file headers.
func Views(diffText string) (oldCode, newCode string, err error) {
	bodies, err := hunkBodies(diffText)
	if err != nil {
		return "", "", err
	}

	var oldLines, newLines []string
	for _, body := range bodies {
		for _, line := range strings.Split(string(body), "\n") {
			if line == "" {
				continue
			}
			switch line[0] {
			case ' ':
				oldLines = append(oldLines, line[1:])
				newLines = append(newLines, line[1:])
			case '-':
				oldLines = append(oldLines, line[1:])
			case '+':
				newLines = append(newLines, line[1:])
			}
		}
	}
	return FilterView(strings.Join(oldLines, "\n")), FilterView(strings.Join(newLines, "\n")), nil
}

func hunkBodies(diffText string) ([][]byte, error) {
	data := []byte(diffText)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var hunks []*godiff.Hunk
	if bytes.HasPrefix(data, []byte("@@")) {
		parsed, err := godiff.ParseHunks(data)
		if err != nil {
			return nil, fmt.Errorf("parsing hunks: %w", err)
		}
		hunks = parsed
	} else {
		fileDiffs, err := godiff.ParseMultiFileDiff(data)
		if err != nil {
			return nil, fmt.Errorf("parsing diff: %w", err)
		}
		for _, fd := range fileDiffs {
			hunks = append(hunks, fd.Hunks...)
		}
	}

	bodies := make([][]byte, 0, len(hunks))
	for _, h := range hunks {
		bodies = append(bodies, h.Body)
	}
	return bodies, nil
}

// FilterView drops blank lines and package and import statements, so that
// reordered imports do not look like code changes. It is idempotent.
func FilterView(code string) string {
	var kept []string
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isHeaderLine(trimmed) {
			continue
		}
		kept = append(kept, strings.TrimRight(line, " \t\r"))
	}
	return strings.Join(kept, "\n")
}

func isHeaderLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "import ") || strings.HasPrefix(trimmed, "package ")
}

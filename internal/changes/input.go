package changes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// LoadDiffs reads the diff records of a review from path. A file holding a
// JSON array is decoded as []Diff; anything else is parsed as a unified
// multi-file patch.
func LoadDiffs(path string) ([]Diff, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading diffs: %w", err)
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		var diffs []Diff
		if err := json.Unmarshal(data, &diffs); err != nil {
			return nil, fmt.Errorf("decoding diffs: %w", err)
		}
		return diffs, nil
	}
	return DiffsFromPatch(data)
}

// DiffsFromPatch splits a unified patch (git diff output) into one Diff per
// file. The a/ and b/ prefixes are removed from file names and each Diff
// keeps only its hunks.
func DiffsFromPatch(patch []byte) ([]Diff, error) {
	fileDiffs, err := godiff.ParseMultiFileDiff(patch)
	if err != nil {
		return nil, fmt.Errorf("parsing patch: %w", err)
	}

	diffs := make([]Diff, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		hunks, err := godiff.PrintHunks(fd.Hunks)
		if err != nil {
			return nil, fmt.Errorf("printing hunks of %s: %w", fd.NewName, err)
		}
		d := Diff{
			OldPath: stripPrefix(fd.OrigName, "a/"),
			NewPath: stripPrefix(fd.NewName, "b/"),
			Diff:    string(hunks),
		}
		if fd.NewName == devNull {
			d.NewPath = ""
			d.DeletedFile = true
		}
		if fd.OrigName == devNull {
			d.OldPath = ""
		}
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func stripPrefix(name, prefix string) string {
	if name == devNull {
		return name
	}
	return strings.TrimPrefix(name, prefix)
}

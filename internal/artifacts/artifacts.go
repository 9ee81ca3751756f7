// Package artifacts reads and writes the per-stage JSON files of a review
// run. Each stage's output is consumed by the next stage or by the review
// bot, so files are written atomically.
package artifacts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"javachain/internal/errors"
	"javachain/internal/signature"
)

// Stage file names.
const (
	AnalyzeProject       = "1_analyze_project.json"
	ChangedMethods       = "2_changed_methods.json"
	ChangedMethodsFilter = "2_changed_methods_filter.json"
	MethodCalls          = "3_method_calls.json"
	CodeContext          = "4_code_context.json"
)

// CompressedSuffix is appended to stage names when compression is on.
const CompressedSuffix = ".zst"

// Store is one project's artifact directory.
type Store struct {
	dir      string
	compress bool
}

// New returns a store rooted at dir. The directory is created on first
// write.
func New(dir string, compress bool) *Store {
	return &Store{dir: dir, compress: compress}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file a stage is written to.
func (s *Store) Path(stage string) string {
	name := stage
	if s.compress {
		name += CompressedSuffix
	}
	return filepath.Join(s.dir, name)
}

// Write encodes v as indented JSON into the stage file and returns its path.
func (s *Store) Write(stage string, v any) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", stage, err)
	}
	if s.compress {
		if data, err = compress(data); err != nil {
			return "", fmt.Errorf("failed to compress %s: %w", stage, err)
		}
	}

	path := s.Path(stage)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", stage, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename %s: %w", stage, err)
	}
	return path, nil
}

// Read decodes a stage file into v. Both the plain and the compressed name
// are tried, so a store can read artifacts written with either setting.
// A missing file is SNAPSHOT_MISSING; an undecodable one SNAPSHOT_CORRUPT.
func (s *Store) Read(stage string, v any) error {
	data, compressed, err := s.readFile(stage)
	if err != nil {
		return err
	}
	if compressed {
		if data, err = decompress(data); err != nil {
			return errors.NewChainError(errors.SnapshotCorrupt, "cannot decompress "+stage, err, nil)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.NewChainError(errors.SnapshotCorrupt, "cannot decode "+stage, err, nil)
	}
	return nil
}

// Exists reports whether a stage file is present in either form.
func (s *Store) Exists(stage string) bool {
	for _, name := range []string{stage, stage + CompressedSuffix} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err == nil {
			return true
		}
	}
	return false
}

// LoadSnapshot reads the analysis snapshot of the last run.
func (s *Store) LoadSnapshot() (*signature.Snapshot, error) {
	snap := signature.NewSnapshot()
	if err := s.Read(AnalyzeProject, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) readFile(stage string) ([]byte, bool, error) {
	order := []bool{s.compress, !s.compress}
	for _, compressed := range order {
		name := stage
		if compressed {
			name += CompressedSuffix
		}
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err == nil {
			return data, compressed, nil
		}
		if !os.IsNotExist(err) {
			return nil, false, fmt.Errorf("failed to read %s: %w", name, err)
		}
	}
	return nil, false, errors.NewChainError(errors.SnapshotMissing,
		fmt.Sprintf("%s not found in %s", stage, s.dir), nil, nil)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := enc.Write(data); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return io.ReadAll(dec)
}

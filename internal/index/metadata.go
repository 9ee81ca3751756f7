package index

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"javachain/internal/indexer"
)

const (
	// MetadataVersion is the current version of the metadata format.
	MetadataVersion = 1

	// metadataFile is the filename for snapshot metadata.
	metadataFile = "meta.json"
)

// Meta describes the analysis snapshot produced by one run.
type Meta struct {
	Version     int       `json:"version"`
	RunID       string    `json:"runId"`
	Project     string    `json:"project"`
	CreatedAt   time.Time `json:"createdAt"`
	FileCount   int       `json:"fileCount"`
	ClassCount  int       `json:"classCount"`
	MethodCount int       `json:"methodCount"`
	FieldCount  int       `json:"fieldCount"`
	Duration    string    `json:"duration"`
	// Fingerprint is the blake2b-256 digest of the indexed source tree.
	Fingerprint string `json:"fingerprint"`
}

// FreshnessResult describes whether a snapshot still matches its tree.
type FreshnessResult struct {
	Fresh              bool
	Reason             string
	IndexedFingerprint string
	CurrentFingerprint string
}

// LoadMeta loads snapshot metadata from dir.
// Returns nil without error if no metadata file exists.
func LoadMeta(dir string) (*Meta, error) {
	path := filepath.Join(dir, metadataFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading snapshot metadata: %w", err)
	}

	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parsing snapshot metadata: %w", err)
	}

	// Version mismatch - treat as no metadata
	if meta.Version != MetadataVersion {
		return nil, nil
	}

	return &meta, nil
}

// Save writes snapshot metadata to dir.
func (m *Meta) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	m.Version = MetadataVersion

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot metadata: %w", err)
	}

	path := filepath.Join(dir, metadataFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot metadata: %w", err)
	}

	return nil
}

// Fingerprint hashes the relative path and content of every file, in the
// order given. The caller passes the sorted list from indexer.JavaFiles.
func Fingerprint(root string, files []string) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	for _, rel := range files {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return "", fmt.Errorf("fingerprinting %s: %w", rel, err)
		}
		h.Write([]byte(rel))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// TreeFingerprint lists the Java files under root and fingerprints them.
func TreeFingerprint(root string) (string, error) {
	files, err := indexer.JavaFiles(root, nil)
	if err != nil {
		return "", err
	}
	return Fingerprint(root, files)
}

// CheckFreshness recomputes the tree fingerprint and compares it with the
// one recorded at analysis time.
func (m *Meta) CheckFreshness(root string) FreshnessResult {
	if m == nil {
		return FreshnessResult{
			Fresh:  false,
			Reason: "no snapshot metadata found",
		}
	}

	current, err := TreeFingerprint(root)
	if err != nil {
		return FreshnessResult{
			Fresh:              false,
			Reason:             "cannot fingerprint source tree: " + err.Error(),
			IndexedFingerprint: m.Fingerprint,
		}
	}

	result := FreshnessResult{
		IndexedFingerprint: m.Fingerprint,
		CurrentFingerprint: current,
	}
	if current == m.Fingerprint {
		result.Fresh = true
		return result
	}
	result.Reason = fmt.Sprintf("source tree changed since snapshot taken %s ago", humanDuration(time.Since(m.CreatedAt)))
	return result
}

// humanDuration formats a duration in human-readable form.
func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return "moments"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		if mins == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", mins)
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

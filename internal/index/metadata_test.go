package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"javachain/internal/testutil"
)

func TestLoadMeta_NoFile(t *testing.T) {
	tmpDir := t.TempDir()

	meta, err := LoadMeta(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != nil {
		t.Fatal("expected nil meta when file doesn't exist")
	}
}

func TestSaveAndLoadMeta(t *testing.T) {
	tmpDir := t.TempDir()

	original := &Meta{
		RunID:       "0b7d1f5e-run",
		Project:     "shop",
		CreatedAt:   time.Now().Truncate(time.Second),
		FileCount:   5,
		ClassCount:  6,
		MethodCount: 12,
		FieldCount:  8,
		Duration:    "120ms",
		Fingerprint: "abc123",
	}

	if err := original.Save(tmpDir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	path := filepath.Join(tmpDir, metadataFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("metadata file was not created")
	}

	loaded, err := LoadMeta(tmpDir)
	if err != nil {
		t.Fatalf("LoadMeta failed: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected non-nil metadata")
	}

	if loaded.Version != MetadataVersion {
		t.Errorf("Version: got %d, want %d", loaded.Version, MetadataVersion)
	}
	if !loaded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", loaded.CreatedAt, original.CreatedAt)
	}
	if loaded.RunID != original.RunID || loaded.Project != original.Project {
		t.Errorf("RunID/Project: got %s/%s", loaded.RunID, loaded.Project)
	}
	if loaded.MethodCount != original.MethodCount {
		t.Errorf("MethodCount: got %d, want %d", loaded.MethodCount, original.MethodCount)
	}
	if loaded.Fingerprint != original.Fingerprint {
		t.Errorf("Fingerprint: got %s, want %s", loaded.Fingerprint, original.Fingerprint)
	}
}

func TestLoadMeta_VersionMismatch(t *testing.T) {
	tmpDir := t.TempDir()

	content := `{"version": 999, "createdAt": "2024-01-01T00:00:00Z"}`
	path := filepath.Join(tmpDir, metadataFile)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	meta, err := LoadMeta(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta != nil {
		t.Fatal("expected nil meta for version mismatch")
	}
}

func TestCheckFreshness_NilMeta(t *testing.T) {
	var meta *Meta
	result := meta.CheckFreshness("/tmp")

	if result.Fresh {
		t.Error("nil meta should not be fresh")
	}
	if result.Reason == "" {
		t.Error("should have a reason")
	}
}

func TestCheckFreshness_Fingerprint(t *testing.T) {
	root := testutil.ShopProject(t)

	fp, err := TreeFingerprint(root)
	if err != nil {
		t.Fatalf("TreeFingerprint failed: %v", err)
	}
	if len(fp) != 64 {
		t.Errorf("fingerprint should be 32 hex-encoded bytes, got %q", fp)
	}

	meta := &Meta{CreatedAt: time.Now().Add(-2 * time.Hour), Fingerprint: fp}
	if result := meta.CheckFreshness(root); !result.Fresh {
		t.Errorf("unchanged tree should be fresh, got %q", result.Reason)
	}

	testutil.WriteTree(t, root, map[string]string{
		"src/main/java/com/shop/order/Extra.java": "package com.shop.order;\npublic class Extra {}\n",
	})
	result := meta.CheckFreshness(root)
	if result.Fresh {
		t.Fatal("adding a file should make the snapshot stale")
	}
	if result.Reason != "source tree changed since snapshot taken 2 hours ago" {
		t.Errorf("Reason = %q", result.Reason)
	}
	if result.CurrentFingerprint == fp {
		t.Error("current fingerprint should differ")
	}
}

func TestFingerprint_IgnoresNonJava(t *testing.T) {
	root := testutil.ShopProject(t)
	before, err := TreeFingerprint(root)
	if err != nil {
		t.Fatalf("TreeFingerprint failed: %v", err)
	}

	testutil.WriteTree(t, root, map[string]string{"README.md": "# shop\n", ".git/HEAD": "ref\n"})
	after, err := TreeFingerprint(root)
	if err != nil {
		t.Fatalf("TreeFingerprint failed: %v", err)
	}
	if before != after {
		t.Error("non-Java files and hidden directories must not change the fingerprint")
	}
}

func TestHumanDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{30 * time.Second, "moments"},
		{5 * time.Minute, "5 minutes"},
		{1 * time.Minute, "1 minute"},
		{2 * time.Hour, "2 hours"},
		{1 * time.Hour, "1 hour"},
		{48 * time.Hour, "2 days"},
		{24 * time.Hour, "1 day"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			result := humanDuration(tc.duration)
			if result != tc.expected {
				t.Errorf("humanDuration(%v) = %q, want %q", tc.duration, result, tc.expected)
			}
		})
	}
}

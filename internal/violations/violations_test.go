package violations

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"javachain/internal/changes"
	"javachain/internal/errors"
	"javachain/internal/index"
	"javachain/internal/indexer"
	"javachain/internal/resolver"
	"javachain/internal/testutil"
)

const repoFile = "src/main/java/com/shop/order/repo/OrderRepository.java"

func priorities(vs []Violation) []int {
	out := []int{}
	for _, v := range vs {
		out = append(out, v.Priority)
	}
	return out
}

func TestLevelThreshold(t *testing.T) {
	tests := []struct {
		in   string
		want Level
		max  int
	}{
		{"HIGH", High, 1},
		{"middle", Middle, 2},
		{" Low ", Low, 5},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got != tt.want || got.Threshold() != tt.max {
			t.Errorf("ParseLevel(%q) = %s/%d, want %s/%d", tt.in, got, got.Threshold(), tt.want, tt.max)
		}
	}
	if _, err := ParseLevel("urgent"); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestKeepPriorities(t *testing.T) {
	vs := []Violation{{Priority: 1}, {Priority: 2}, {Priority: 3}, {Priority: 4}}

	got := priorities(KeepPriorities(vs, 2))
	if !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("KeepPriorities(_, 2) = %v, want [1 2]", got)
	}
}

func TestPolicyFilter(t *testing.T) {
	report := &Report{Files: []File{
		{Filename: repoFile, Violations: []Violation{
			{Rule: "A", Priority: 1},
			{Rule: "B", Priority: 2},
			{Rule: "C", Priority: 3},
			{Rule: "Skipped", Priority: 1},
			{Rule: "D", Priority: 4},
		}},
		{Filename: "src/test/java/com/shop/OrderTest.java", Violations: []Violation{{Rule: "A", Priority: 1}}},
	}}
	p := NewPolicy(Low, map[string]Level{"shop": Middle}, []string{"Skipped"}, nil)

	got := p.Filter(report, "shop", "")
	if len(got.Files) != 1 || got.Files[0].Filename != repoFile {
		t.Fatalf("files = %+v, want only the repository", got.Files)
	}
	if ps := priorities(got.Files[0].Violations); !reflect.DeepEqual(ps, []int{1, 2}) {
		t.Errorf("kept priorities = %v, want [1 2]", ps)
	}

	all := p.Filter(report, "other", "")
	if n := all.Count(); n != 4 {
		t.Errorf("LOW project kept %d violations, want 4", n)
	}
	if report.Count() != 6 {
		t.Error("Filter must not modify its input")
	}
}

func TestPolicyFilter_RelativeToRoot(t *testing.T) {
	// Temp dirs carry the test name, so an absolute path contains "Test".
	root := t.TempDir()
	abs := filepath.Join(root, filepath.FromSlash(repoFile))
	report := &Report{Files: []File{{Filename: abs, Violations: []Violation{{Rule: "A", Priority: 1}}}}}

	got := DefaultPolicy().Filter(report, "shop", root)
	if len(got.Files) != 1 {
		t.Errorf("file below root should be matched by its relative path, got %+v", got.Files)
	}
}

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review-policy.toml")
	content := `default_level = "middle"
skip_rules = ["CommentRequiredRule"]

[levels]
high = ["payments", "billing"]
low = ["sandbox", "billing"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPolicy(path, Low, []string{"MethodTooLongRule"})
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}

	levels := map[string]Level{"payments": High, "billing": High, "sandbox": Low, "other": Middle}
	for project, want := range levels {
		if got := p.LevelFor(project); got != want {
			t.Errorf("LevelFor(%s) = %s, want %s", project, got, want)
		}
	}
	for _, rule := range []string{"CommentRequiredRule", "MethodTooLongRule"} {
		if !p.SkipsRule(rule) {
			t.Errorf("rule %s should be skipped", rule)
		}
	}
	if !p.SkipsFile("src/Test/Foo.java") {
		t.Error("test files should be skipped by default")
	}
}

func TestLoadPolicy_Missing(t *testing.T) {
	p, err := LoadPolicy(filepath.Join(t.TempDir(), "none.toml"), High, []string{"X"})
	if err != nil {
		t.Fatalf("LoadPolicy() error = %v", err)
	}
	if p.LevelFor("any") != High || !p.SkipsRule("X") {
		t.Errorf("missing file should fall back to the arguments, got %+v", p)
	}
}

func TestLoadPolicy_BadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.toml")
	if err := os.WriteFile(path, []byte(`default_level = "urgent"`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPolicy(path, Low, nil); err == nil {
		t.Error("expected an error for an unknown level")
	}
}

func TestParseReport(t *testing.T) {
	data := `{"formatVersion":0,"pmdVersion":"6.55.0","files":[{"filename":"A.java","violations":[
		{"beginline":3,"endline":5,"rule":"R","ruleset":"ali-naming","priority":2,"description":"bad name"}]}]}`

	r, err := ParseReport([]byte(data))
	if err != nil {
		t.Fatalf("ParseReport() error = %v", err)
	}
	v := r.Files[0].Violations[0]
	if v.BeginLine != 3 || v.EndLine != 5 || v.Priority != 2 || v.RuleSet != "ali-naming" {
		t.Errorf("violation = %+v", v)
	}

	_, err = ParseReport([]byte("{"))
	if !errors.IsCode(err, errors.ReportInvalid) {
		t.Errorf("expected REPORT_INVALID, got %v", err)
	}
	_, err = LoadReport(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.IsCode(err, errors.ReportInvalid) {
		t.Errorf("expected REPORT_INVALID, got %v", err)
	}
}

func TestPriorityLabel(t *testing.T) {
	tests := map[int]string{1: "high", 2: "medium", 3: "low", 4: "info", 5: "info", 9: "unknown(9)"}
	for p, want := range tests {
		if got := PriorityLabel(p); got != want {
			t.Errorf("PriorityLabel(%d) = %q, want %q", p, got, want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	r := &Report{Files: []File{{Filename: "/ws/shop/" + repoFile, Violations: []Violation{
		{BeginLine: 9, EndLine: 9, Description: "Avoid magic values ", Priority: 2},
		{BeginLine: 13, EndLine: 16, Description: "Empty catch", Priority: 1},
	}}}}

	got := Markdown(r, "/ws/shop", "https://git.example.com/shop/-/blob/main")
	for _, want := range []string{
		"| File | Reason | Priority |",
		"| [OrderRepository.java:9](https://git.example.com/shop/-/blob/main/" + repoFile + ") | Avoid magic values | medium |",
		"| [OrderRepository.java:13-16](https://git.example.com/shop/-/blob/main/" + repoFile + ") | Empty catch | high |",
		"**2 violations**",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Markdown() missing %q in:\n%s", want, got)
		}
	}
}

func shopIndex(t *testing.T) *index.Index {
	t.Helper()
	res, err := indexer.New(indexer.DefaultFilters(), nil).Index(context.Background(), testutil.ShopProject(t))
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	return index.New(resolver.New(nil).Resolve(res.Classes))
}

func TestAnnotate(t *testing.T) {
	ix := shopIndex(t)
	report := &Report{Files: []File{{Filename: repoFile, Violations: []Violation{
		{BeginLine: 9, EndLine: 9, Priority: 1},
		{BeginLine: 12, EndLine: 14, Priority: 2},
		{BeginLine: 10, EndLine: 10, Priority: 3},
		{BeginLine: 1, EndLine: 3, Priority: 3},
		{BeginLine: 0, EndLine: 0, Priority: 1},
	}}}}

	flagged := Annotate(report, ix, "")

	want := []string{testutil.ShopSave, testutil.ShopDelete}
	if !reflect.DeepEqual(report.Files[0].Signatures, want) {
		t.Errorf("file signatures = %v, want %v", report.Files[0].Signatures, want)
	}
	if len(flagged) != 2 || !flagged[testutil.ShopSave] || !flagged[testutil.ShopDelete] {
		t.Errorf("flagged = %v", flagged)
	}
}

func TestFilterChanges(t *testing.T) {
	set := changes.Set{
		0: {Signatures: []string{"a.A.x()", "a.A.y()"}, FilePath: "A.java"},
		3: {Signatures: []string{"a.B.z()"}, FilePath: "B.java"},
	}
	flagged := Flagged{"a.A.y()": true, "a.B.z()": true}

	once := FilterChanges(set, flagged)
	if len(once) != 1 {
		t.Fatalf("changes = %v, want only index 0", once.Indices())
	}
	if !reflect.DeepEqual(once[0].Signatures, []string{"a.A.x()"}) {
		t.Errorf("signatures = %v", once[0].Signatures)
	}
	if once[0].FilePath != "A.java" {
		t.Error("change metadata should be kept")
	}
	if len(set[0].Signatures) != 2 {
		t.Error("FilterChanges must not modify its input")
	}

	twice := FilterChanges(once, flagged)
	if !reflect.DeepEqual(twice, once) {
		t.Errorf("FilterChanges is not idempotent: %v vs %v", twice, once)
	}
}

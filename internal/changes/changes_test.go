package changes

import (
	"context"
	"reflect"
	"testing"

	"javachain/internal/index"
	"javachain/internal/indexer"
	"javachain/internal/resolver"
	"javachain/internal/testutil"
)

const serviceImplPath = "src/main/java/com/shop/order/service/OrderServiceImpl.java"

const createHunk = `@@ -12,7 +12,8 @@
     @Override
     public Long create(String payload, int qty) {
-        if (qty <= 0) {
+        if (qty < 1) {
             throw new IllegalArgumentException("qty must be positive");
         }
+        log(payload);
         return orderRepository.save(payload);
     }
`

const importHunk = `@@ -1,4 +1,5 @@
 package com.shop.order.service;

+import java.util.List;
 import com.shop.order.repo.OrderRepository;

`

func shopIndex(t *testing.T) *index.Index {
	t.Helper()
	res, err := indexer.New(indexer.DefaultFilters(), nil).Index(context.Background(), testutil.ShopProject(t))
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	return index.New(resolver.New(nil).Resolve(res.Classes))
}

func TestViews(t *testing.T) {
	oldCode, newCode, err := Views(createHunk)
	if err != nil {
		t.Fatalf("Views() error = %v", err)
	}

	wantOld := `    @Override
    public Long create(String payload, int qty) {
        if (qty <= 0) {
            throw new IllegalArgumentException("qty must be positive");
        }
        return orderRepository.save(payload);
    }`
	wantNew := `    @Override
    public Long create(String payload, int qty) {
        if (qty < 1) {
            throw new IllegalArgumentException("qty must be positive");
        }
        log(payload);
        return orderRepository.save(payload);
    }`
	if oldCode != wantOld {
		t.Errorf("old view:\n%s\nwant:\n%s", oldCode, wantOld)
	}
	if newCode != wantNew {
		t.Errorf("new view:\n%s\nwant:\n%s", newCode, wantNew)
	}
}

func TestViews_FullPatch(t *testing.T) {
	patch := "diff --git a/" + serviceImplPath + " b/" + serviceImplPath + "\n" +
		"--- a/" + serviceImplPath + "\n" +
		"+++ b/" + serviceImplPath + "\n" +
		createHunk

	_, newCode, err := Views(patch)
	if err != nil {
		t.Fatalf("Views() error = %v", err)
	}
	_, fromHunk, _ := Views(createHunk)
	if newCode != fromHunk {
		t.Errorf("patch and bare hunk should give the same new view, got:\n%s", newCode)
	}
}

func TestViews_Empty(t *testing.T) {
	oldCode, newCode, err := Views("  \n")
	if err != nil || oldCode != "" || newCode != "" {
		t.Errorf("Views(blank) = %q, %q, %v", oldCode, newCode, err)
	}
}

func TestFilterView(t *testing.T) {
	in := "package a.b;\n\nimport a.C;\n   import static a.D.x;\npublic class E {\n\n    int f;   \n}\n"
	want := "public class E {\n    int f;\n}"

	got := FilterView(in)
	if got != want {
		t.Errorf("FilterView() = %q, want %q", got, want)
	}
	if again := FilterView(got); again != got {
		t.Errorf("FilterView is not idempotent: %q", again)
	}
}

func TestExtract_Shop(t *testing.T) {
	ix := shopIndex(t)

	diffs := []Diff{
		{NewPath: "README.md", Diff: "@@ -1 +1 @@\n-a\n+b\n"},
		{OldPath: serviceImplPath, NewPath: serviceImplPath, Diff: importHunk},
		{OldPath: serviceImplPath, NewPath: serviceImplPath, Diff: createHunk},
		{NewPath: "src/main/java/com/shop/Missing.java", Diff: createHunk},
		{OldPath: serviceImplPath, DeletedFile: true, Diff: createHunk},
	}

	set := New(nil).Extract(diffs, ix)

	if got := set.Indices(); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("change indices = %v, want [2]", got)
	}
	c := set[2]
	if !reflect.DeepEqual(c.Signatures, []string{testutil.ShopCreate}) {
		t.Errorf("signatures = %v, want [%s]", c.Signatures, testutil.ShopCreate)
	}
	if c.FilePath != serviceImplPath {
		t.Errorf("file path = %s", c.FilePath)
	}
	if c.DiffText != createHunk {
		t.Error("diff text should be kept verbatim")
	}
	if !reflect.DeepEqual(set.Signatures(), []string{testutil.ShopCreate}) {
		t.Errorf("Set.Signatures() = %v", set.Signatures())
	}
}

func TestExtract_PrefixedPath(t *testing.T) {
	ix := shopIndex(t)

	set := New(nil).Extract([]Diff{{NewPath: "shop/" + serviceImplPath, Diff: createHunk}}, ix)
	if len(set) != 1 {
		t.Fatalf("expected one change, got %d", len(set))
	}
}

type fakeLookup struct {
	classes map[string][]string
	methods map[string]bool
}

func (f fakeLookup) ClassesForPath(p string) []string { return f.classes[p] }
func (f fakeLookup) HasMethod(sig string) bool         { return f.methods[sig] }

func TestSignatures_OnlyIndexedMethods(t *testing.T) {
	lookup := fakeLookup{
		methods: map[string]bool{
			"a.Svc.run(String)": true,
			"a.Svc.stop()":      true,
		},
	}
	code := `    public void run(String id) {
        go(id);
    }
    private int helper(int x) {
        return x;
    }
    public void stop() {
    }`

	got := Signatures(code, []string{"a.Svc"}, lookup)
	want := []string{"a.Svc.run(String)", "a.Svc.stop()"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Signatures() = %v, want %v", got, want)
	}
}

func TestSignatures_PartialMethodIsDropped(t *testing.T) {
	lookup := fakeLookup{methods: map[string]bool{"a.Svc.run(String)": true}}

	// The hunk only shows the middle of the body.
	code := "        go(id);\n        done();\n    }"
	if got := Signatures(code, []string{"a.Svc"}, lookup); len(got) != 0 {
		t.Errorf("Signatures() = %v, want none", got)
	}
}

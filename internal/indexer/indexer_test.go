package indexer

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"javachain/internal/errors"
	"javachain/internal/slogutil"
	"javachain/internal/testutil"
)

func indexShop(t *testing.T) *Result {
	t.Helper()
	ix := New(DefaultFilters(), slogutil.NewDiscardLogger())
	res, err := ix.Index(context.Background(), testutil.ShopProject(t))
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	return res
}

func classByName(t *testing.T, res *Result, name string) RawClass {
	t.Helper()
	for _, c := range res.Classes {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("class %s not indexed", name)
	return RawClass{}
}

func TestIndex_ShopProject(t *testing.T) {
	res := indexShop(t)

	var names []string
	for _, c := range res.Classes {
		names = append(names, c.Name)
	}
	want := []string{
		"com.shop.order.OrderController",
		"com.shop.order.repo.OrderRepository",
		"com.shop.order.service.OrderService",
		"com.shop.order.service.OrderServiceImpl",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("classes = %v, want %v", names, want)
	}
	if len(res.Files) != 5 {
		t.Errorf("files = %d, want 5 (dto file is visited but filtered)", len(res.Files))
	}
	if len(res.Skipped) != 0 {
		t.Errorf("skipped = %v, want none", res.Skipped)
	}
}

func TestIndex_ControllerStructure(t *testing.T) {
	c := classByName(t, indexShop(t), "com.shop.order.OrderController")

	if c.Path != "src/main/java/com/shop/order/OrderController.java" {
		t.Errorf("Path = %q", c.Path)
	}
	wantSkeleton := "/**\n * Order endpoints.\n */\n@RestController\npublic class OrderController {\n}"
	if c.Skeleton != wantSkeleton {
		t.Errorf("Skeleton = %q, want %q", c.Skeleton, wantSkeleton)
	}
	if got := c.Imports["OrderService"]; got != "com.shop.order.service.OrderService" {
		t.Errorf("Imports[OrderService] = %q", got)
	}

	var fields []string
	for _, f := range c.Fields {
		fields = append(fields, f.Type+" "+f.Name)
	}
	if want := []string{"OrderService orderService", "String name"}; !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
	if c.Fields[0].Source != "@Autowired\n    private OrderService orderService;" {
		t.Errorf("field source = %q", c.Fields[0].Source)
	}

	var methods []string
	for _, m := range c.Methods {
		methods = append(methods, m.Signature)
	}
	if want := []string{"place(String, int)", "label()"}; !reflect.DeepEqual(methods, want) {
		t.Errorf("methods = %v, want %v", methods, want)
	}
}

func TestIndex_RepositoryLinesAndLiterals(t *testing.T) {
	c := classByName(t, indexShop(t), "com.shop.order.repo.OrderRepository")

	type lines struct{ start, end int }
	want := map[string]lines{
		"save(String)":  {7, 11},
		"delete(Long)":  {13, 16},
		"audit(String)": {18, 20},
	}
	if len(c.Methods) != len(want) {
		t.Fatalf("methods = %d, want %d", len(c.Methods), len(want))
	}
	for _, m := range c.Methods {
		w, ok := want[m.Signature]
		if !ok {
			t.Errorf("unexpected method %s", m.Signature)
			continue
		}
		if m.StartLine != w.start || m.EndLine != w.end {
			t.Errorf("%s lines = %d-%d, want %d-%d", m.Signature, m.StartLine, m.EndLine, w.start, w.end)
		}
	}

	if len(c.Fields) != 1 || c.Fields[0].Name != "rows" || c.Fields[0].Type != "Map<String, Long>" {
		t.Errorf("fields = %+v, want only rows Map<String, Long>", c.Fields)
	}
	if c.Fields[0].Line != 5 {
		t.Errorf("rows line = %d, want 5", c.Fields[0].Line)
	}
}

func TestIndex_InterfaceHasNoBodies(t *testing.T) {
	c := classByName(t, indexShop(t), "com.shop.order.service.OrderService")
	if len(c.Methods) != 0 {
		t.Errorf("abstract interface methods should not be indexed, got %d", len(c.Methods))
	}
	if c.Skeleton != "public interface OrderService {\n}" {
		t.Errorf("Skeleton = %q", c.Skeleton)
	}
	if c.Kind != "interface" {
		t.Errorf("Kind = %q, want interface", c.Kind)
	}
}

func TestIndex_Deterministic(t *testing.T) {
	root := testutil.ShopProject(t)
	ix := New(DefaultFilters(), nil)

	first, err := ix.Index(context.Background(), root)
	if err != nil {
		t.Fatalf("first Index() error = %v", err)
	}
	second, err := ix.Index(context.Background(), root)
	if err != nil {
		t.Fatalf("second Index() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("indexing the same tree twice produced different results")
	}
}

func TestIndex_SkipsInvalidFile(t *testing.T) {
	files := testutil.ShopFiles()
	files["src/main/java/com/shop/Bad.java"] = "package com.shop;\xff\xfe public class Bad {}"
	root := testutil.WriteTree(t, t.TempDir(), files)

	res, err := New(DefaultFilters(), nil).Index(context.Background(), root)
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Path != "src/main/java/com/shop/Bad.java" {
		t.Errorf("skipped = %+v, want Bad.java", res.Skipped)
	}
	if len(res.Classes) != 4 {
		t.Errorf("classes = %d, want 4", len(res.Classes))
	}
}

func TestIndex_MissingRoot(t *testing.T) {
	_, err := New(DefaultFilters(), nil).Index(context.Background(), "/does/not/exist")
	if !errors.IsCode(err, errors.ProjectNotFound) {
		t.Errorf("expected PROJECT_NOT_FOUND, got %v", err)
	}
}

func TestParseFile_Filters(t *testing.T) {
	src := `package com.acme.legacy.billing;

public class Invoice {
    public String getCode() {
        return "x";
    }

    public void pay() {
    }
}
`
	if got := ParseFile("Invoice.java", src, NewFilters([]string{"legacy"}, nil, nil)); got != nil {
		t.Errorf("package filter should drop the file, got %d classes", len(got))
	}
	if got := ParseFile("Invoice.java", src, NewFilters(nil, []string{"INVOICE"}, nil)); len(got) != 0 {
		t.Errorf("class filter should be case-insensitive, got %d classes", len(got))
	}

	got := ParseFile("Invoice.java", src, DefaultFilters())
	if len(got) != 1 {
		t.Fatalf("expected 1 class, got %d", len(got))
	}
	if len(got[0].Methods) != 1 || got[0].Methods[0].Signature != "pay()" {
		t.Errorf("method filter should drop getCode(), got %+v", got[0].Methods)
	}
}

func TestParseFile_FieldsAndLocals(t *testing.T) {
	src := `package a;

import b.Dao;
import c.*;

public class Worker {
    private Dao dao;

    public void work() {
        int count = 0;
        dao.run(count);
    }

    private Helper helper;
}
`
	got := ParseFile("a/Worker.java", src, NewFilters(nil, nil, nil))
	if len(got) != 1 {
		t.Fatalf("expected 1 class, got %d", len(got))
	}
	var names []string
	for _, f := range got[0].Fields {
		names = append(names, f.Name)
	}
	if want := []string{"dao", "helper"}; !reflect.DeepEqual(names, want) {
		t.Errorf("fields = %v, want %v", names, want)
	}
	if _, ok := got[0].Imports["*"]; ok {
		t.Error("wildcard imports must not be recorded")
	}
	if len(got[0].Imports) != 1 {
		t.Errorf("imports = %v, want only Dao", got[0].Imports)
	}
}

func TestParseFile_UnclosedClass(t *testing.T) {
	src := "package a;\npublic class A {\n    void x() {\n"
	if got := ParseFile("A.java", src, NewFilters(nil, nil, nil)); len(got) != 0 {
		t.Errorf("unclosed class should be dropped, got %d", len(got))
	}
}

func TestParseFile_BraceInsideHeaderParens(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"truncated", "import q.B;\nclass B({}=run() {class ? extends "},
		{"record header", "package a;\nrecord R(int x) {}\nclass C({}) { void m() {} }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, c := range ParseFile("a/Bad.java", tt.src, DefaultFilters()) {
				if c.SimpleName == "B" || c.SimpleName == "C" {
					t.Errorf("class %s with a brace in its header should be dropped", c.Name)
				}
			}
		})
	}
}

func TestIndex_MalformedFileDoesNotAbort(t *testing.T) {
	files := testutil.ShopFiles()
	files["src/main/java/com/shop/Broken.java"] = "import q.B;\nclass B({}=run() {class ? extends "
	root := testutil.WriteTree(t, t.TempDir(), files)

	res, err := New(DefaultFilters(), nil).Index(context.Background(), root)
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if len(res.Classes) != 4 {
		t.Errorf("classes = %d, want the 4 shop classes", len(res.Classes))
	}
}

func TestIndex_ParserPanicSkipsFile(t *testing.T) {
	const broken = "src/main/java/com/shop/order/repo/OrderRepository.java"
	orig := parseFile
	parseFile = func(rel, content string, filters Filters) []RawClass {
		if rel == broken {
			panic("scanner out of range")
		}
		return orig(rel, content, filters)
	}
	t.Cleanup(func() { parseFile = orig })

	res, err := New(DefaultFilters(), nil).Index(context.Background(), testutil.ShopProject(t))
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Path != broken {
		t.Fatalf("skipped = %+v, want %s", res.Skipped, broken)
	}
	if !strings.Contains(res.Skipped[0].Reason, "scanner out of range") {
		t.Errorf("reason = %q", res.Skipped[0].Reason)
	}
	if len(res.Classes) != 3 {
		t.Errorf("classes = %d, want 3", len(res.Classes))
	}
}

func TestParseFile_NestedClassMembers(t *testing.T) {
	src := `package com.shop;

public class Outer {
    private Repo repo;

    public void run() {
        repo.go();
    }

    static class Helper {
        private int counter;

        void help(String s) {
            counter++;
        }
    }

    private String name;
}
`
	got := ParseFile("com/shop/Outer.java", src, NewFilters(nil, nil, nil))
	if len(got) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(got))
	}

	members := func(c RawClass) (methods, fields []string) {
		for _, m := range c.Methods {
			methods = append(methods, m.Signature)
		}
		for _, f := range c.Fields {
			fields = append(fields, f.Name)
		}
		return methods, fields
	}

	tests := []struct {
		class   RawClass
		name    string
		methods []string
		fields  []string
	}{
		{got[0], "com.shop.Outer", []string{"run()"}, []string{"repo", "name"}},
		{got[1], "com.shop.Helper", []string{"help(String)"}, []string{"counter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.class.Name != tt.name {
				t.Fatalf("class = %s, want %s", tt.class.Name, tt.name)
			}
			methods, fields := members(tt.class)
			if !reflect.DeepEqual(methods, tt.methods) {
				t.Errorf("methods = %v, want %v", methods, tt.methods)
			}
			if !reflect.DeepEqual(fields, tt.fields) {
				t.Errorf("fields = %v, want %v", fields, tt.fields)
			}
		})
	}
}

func TestParseFile_FilteredNestedClassStaysOutOfOuter(t *testing.T) {
	src := `package a;

public class Outer {
    void run() {
    }

    static class LegacyHelper {
        void help() {
        }
    }
}
`
	got := ParseFile("a/Outer.java", src, NewFilters(nil, []string{"legacy"}, nil))
	if len(got) != 1 || got[0].Name != "a.Outer" {
		t.Fatalf("classes = %+v, want only a.Outer", got)
	}
	if len(got[0].Methods) != 1 || got[0].Methods[0].Signature != "run()" {
		t.Errorf("methods = %+v, want only run()", got[0].Methods)
	}
}

package export

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"javachain/internal/indexer"
	"javachain/internal/resolver"
	"javachain/internal/signature"
	"javachain/internal/testutil"
)

func shopSnapshot(t *testing.T) *signature.Snapshot {
	t.Helper()
	res, err := indexer.New(indexer.DefaultFilters(), nil).Index(context.Background(), testutil.ShopProject(t))
	if err != nil {
		t.Fatalf("Index() error = %v", err)
	}
	return resolver.New(nil).Resolve(res.Classes)
}

func hasEdge(edges []Edge, from, to string) bool {
	for _, e := range edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}

func TestBuildGraph_DirectOnly(t *testing.T) {
	g := BuildGraph("shop", shopSnapshot(t), Options{})

	if len(g.Classes) != 4 {
		t.Errorf("classes = %d, want 4 direct", len(g.Classes))
	}
	if len(g.Methods) != 7 || len(g.HasMethod) != 7 {
		t.Errorf("methods = %d, has_method = %d, want 7", len(g.Methods), len(g.HasMethod))
	}
	wantCalls := []Edge{
		{From: testutil.ShopPlace, To: testutil.ShopCreate},
		{From: testutil.ShopCancel, To: testutil.ShopDelete},
		{From: testutil.ShopCreate, To: testutil.ShopSave},
	}
	if !reflect.DeepEqual(g.Calls, wantCalls) {
		t.Errorf("calls = %v, want %v", g.Calls, wantCalls)
	}
	if len(g.Fields) != 0 || len(g.UsesField) != 0 {
		t.Error("fields are excluded by default")
	}

	for _, c := range g.Classes {
		if c.Name == "com.shop.order.repo.OrderRepository" && c.Package != "com.shop.order.repo" {
			t.Errorf("package = %q", c.Package)
		}
	}
	for _, m := range g.Methods {
		if m.Signature == testutil.ShopSave && (m.Name != "save" || m.StartLine != 7 || m.EndLine != 11) {
			t.Errorf("save node = %+v", m)
		}
	}
}

func TestBuildGraph_AliasesAndFields(t *testing.T) {
	g := BuildGraph("shop", shopSnapshot(t), Options{IncludeAliases: true, IncludeFields: true})

	if len(g.Classes) != 6 || len(g.Methods) != 12 || len(g.Fields) != 8 {
		t.Errorf("got %d classes, %d methods, %d fields, want 6/12/8", len(g.Classes), len(g.Methods), len(g.Fields))
	}
	if len(g.Calls) != 3 {
		t.Errorf("alias methods must not add call edges, got %v", g.Calls)
	}
	if !hasEdge(g.UsesField, testutil.ShopSave, "com.shop.order.repo.OrderRepository.rows") {
		t.Errorf("save should use rows, got %v", g.UsesField)
	}
	if !hasEdge(g.HasMethod, "com.shop.order.OrderControllerImpl", "com.shop.order.OrderControllerImpl.place(String, int)") {
		t.Error("alias class should own its alias methods")
	}
}

type recorder struct {
	queries []string
	params  []map[string]any
	failOn  string
}

func (r *recorder) run(_ context.Context, cypher string, params map[string]any) error {
	if r.failOn != "" && strings.Contains(cypher, r.failOn) {
		return errors.New("boom")
	}
	r.queries = append(r.queries, cypher)
	r.params = append(r.params, params)
	return nil
}

func TestLoad_Batches(t *testing.T) {
	rec := &recorder{}
	l := newLoader(rec.run, nil)
	l.batchSize = 2

	g := &Graph{
		Project: "shop",
		Classes: []ClassNode{{Name: "a.A"}, {Name: "a.B"}, {Name: "a.C"}},
		Methods: []MethodNode{{Signature: "a.A.x()", Class: "a.A"}},
		Calls:   []Edge{{From: "a.A.x()", To: "a.A.x()"}},
	}
	if err := l.Load(context.Background(), g); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// 3 classes in batches of 2, then one statement each for methods and
	// calls; empty row sets send nothing.
	if len(rec.queries) != 4 {
		t.Fatalf("sent %d statements, want 4:\n%s", len(rec.queries), strings.Join(rec.queries, "\n---\n"))
	}
	for i, want := range []int{2, 1, 1, 1} {
		batch := rec.params[i]["batch"].([]map[string]any)
		if len(batch) != want {
			t.Errorf("statement %d batch = %d rows, want %d", i, len(batch), want)
		}
		if rec.params[i]["project"] != "shop" {
			t.Errorf("statement %d project = %v", i, rec.params[i]["project"])
		}
	}
	if !strings.Contains(rec.queries[0], "MERGE (n:JavaClass") || !strings.Contains(rec.queries[3], "[:CALLS]") {
		t.Errorf("unexpected statement order: %v", rec.queries)
	}
}

func TestLoad_Error(t *testing.T) {
	rec := &recorder{failOn: "JavaMethod {project: $project, signature: row.sig}"}
	l := newLoader(rec.run, nil)

	err := l.Load(context.Background(), BuildGraph("shop", shopSnapshot(t), Options{}))
	if err == nil || !strings.Contains(err.Error(), "failed to load methods") {
		t.Errorf("Load() error = %v, want a methods failure", err)
	}
}

func TestCleanProjectAndIndexes(t *testing.T) {
	rec := &recorder{}
	l := newLoader(rec.run, nil)
	ctx := context.Background()

	if err := l.CreateIndexes(ctx); err != nil {
		t.Fatal(err)
	}
	if err := l.CleanProject(ctx, "shop"); err != nil {
		t.Fatal(err)
	}
	if len(rec.queries) != 6 {
		t.Errorf("sent %d statements, want 6", len(rec.queries))
	}
	if rec.params[5]["project"] != "shop" {
		t.Errorf("clean params = %v", rec.params[5])
	}
	if err := l.Close(ctx); err != nil {
		t.Errorf("Close() without a driver = %v", err)
	}
}

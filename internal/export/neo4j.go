package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"javachain/internal/slogutil"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement.
const DefaultBatchSize = 500

// cypherRunner executes one statement.
type cypherRunner func(ctx context.Context, cypher string, params map[string]any) error

// Neo4jLoader loads graphs into a Neo4j database using batched UNWIND
// queries. Nodes are keyed by (project, name) so several projects can share
// a database.
type Neo4jLoader struct {
	driver    neo4j.DriverWithContext
	run       cypherRunner
	logger    *slog.Logger
	batchSize int
}

// NewNeo4jLoader connects to Neo4j and verifies the connection.
func NewNeo4jLoader(ctx context.Context, uri, user, password string, logger *slog.Logger) (*Neo4jLoader, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}

	l := newLoader(nil, logger)
	l.driver = driver
	l.run = func(ctx context.Context, cypher string, params map[string]any) error {
		_, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer)
		return err
	}
	return l, nil
}

func newLoader(run cypherRunner, logger *slog.Logger) *Neo4jLoader {
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Neo4jLoader{run: run, logger: logger, batchSize: DefaultBatchSize}
}

// Close releases the driver.
func (l *Neo4jLoader) Close(ctx context.Context) error {
	if l.driver == nil {
		return nil
	}
	return l.driver.Close(ctx)
}

// CreateIndexes ensures the lookup indexes exist.
func (l *Neo4jLoader) CreateIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE INDEX java_class_key IF NOT EXISTS FOR (n:JavaClass) ON (n.project, n.name)",
		"CREATE INDEX java_method_key IF NOT EXISTS FOR (n:JavaMethod) ON (n.project, n.signature)",
		"CREATE INDEX java_field_key IF NOT EXISTS FOR (n:JavaField) ON (n.project, n.signature)",
	}
	for _, q := range indexes {
		if err := l.run(ctx, q, nil); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// CleanProject removes every node of project.
func (l *Neo4jLoader) CleanProject(ctx context.Context, project string) error {
	l.logger.Info("Cleaning graph", "project", project)
	for _, label := range []string{"JavaMethod", "JavaField", "JavaClass"} {
		q := fmt.Sprintf("MATCH (n:%s {project: $project}) DETACH DELETE n", label)
		if err := l.run(ctx, q, map[string]any{"project": project}); err != nil {
			return fmt.Errorf("failed to clean %s nodes: %w", label, err)
		}
	}
	return nil
}

// Load upserts every node and relationship of g.
func (l *Neo4jLoader) Load(ctx context.Context, g *Graph) error {
	l.logger.Info("Loading graph",
		"project", g.Project,
		"classes", len(g.Classes),
		"methods", len(g.Methods),
		"calls", len(g.Calls),
	)

	steps := []struct {
		name   string
		cypher string
		rows   []map[string]any
	}{
		{"classes", `UNWIND $batch AS row
		 MERGE (n:JavaClass {project: $project, name: row.name})
		 SET n.package = row.pkg, n.path = row.path, n.kind = row.kind, n.alias_of = row.alias_of`,
			classRows(g.Classes)},
		{"methods", `UNWIND $batch AS row
		 MERGE (n:JavaMethod {project: $project, signature: row.sig})
		 SET n.class = row.class, n.name = row.name, n.start_line = row.start,
		     n.end_line = row.end, n.kind = row.kind`,
			methodRows(g.Methods)},
		{"fields", `UNWIND $batch AS row
		 MERGE (n:JavaField {project: $project, signature: row.sig})
		 SET n.type_class = row.type_class, n.name = row.name`,
			fieldRows(g.Fields)},
		{"has_method", `UNWIND $batch AS row
		 MATCH (c:JavaClass {project: $project, name: row.from}),
		       (m:JavaMethod {project: $project, signature: row.to})
		 MERGE (c)-[:HAS_METHOD]->(m)`,
			edgeRows(g.HasMethod)},
		{"calls", `UNWIND $batch AS row
		 MATCH (a:JavaMethod {project: $project, signature: row.from}),
		       (b:JavaMethod {project: $project, signature: row.to})
		 MERGE (a)-[:CALLS]->(b)`,
			edgeRows(g.Calls)},
		{"uses_field", `UNWIND $batch AS row
		 MATCH (m:JavaMethod {project: $project, signature: row.from}),
		       (f:JavaField {project: $project, signature: row.to})
		 MERGE (m)-[:USES_FIELD]->(f)`,
			edgeRows(g.UsesField)},
	}

	for _, s := range steps {
		if err := l.unwind(ctx, g.Project, s.cypher, s.rows); err != nil {
			return fmt.Errorf("failed to load %s: %w", s.name, err)
		}
	}
	return nil
}

// unwind sends rows in batches of batchSize.
func (l *Neo4jLoader) unwind(ctx context.Context, project, cypher string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += l.batchSize {
		end := min(start+l.batchSize, len(rows))
		params := map[string]any{"project": project, "batch": rows[start:end]}
		if err := l.run(ctx, cypher, params); err != nil {
			return err
		}
	}
	return nil
}

func classRows(classes []ClassNode) []map[string]any {
	rows := make([]map[string]any, 0, len(classes))
	for _, c := range classes {
		rows = append(rows, map[string]any{
			"name": c.Name, "pkg": c.Package, "path": c.Path,
			"kind": c.Kind, "alias_of": c.AliasOf,
		})
	}
	return rows
}

func methodRows(methods []MethodNode) []map[string]any {
	rows := make([]map[string]any, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, map[string]any{
			"sig": m.Signature, "class": m.Class, "name": m.Name,
			"start": m.StartLine, "end": m.EndLine, "kind": m.Kind,
		})
	}
	return rows
}

func fieldRows(fields []FieldNode) []map[string]any {
	rows := make([]map[string]any, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, map[string]any{"sig": f.Signature, "type_class": f.TypeClass, "name": f.Name})
	}
	return rows
}

func edgeRows(edges []Edge) []map[string]any {
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]any{"from": e.From, "to": e.To})
	}
	return rows
}

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"javachain/internal/errors"
	"javachain/internal/signature"
)

// timeLayout has fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is one stored analysis run.
type Run struct {
	ID          string    `json:"runId"`
	Project     string    `json:"project"`
	CreatedAt   time.Time `json:"createdAt"`
	ClassCount  int       `json:"classCount"`
	MethodCount int       `json:"methodCount"`
	FieldCount  int       `json:"fieldCount"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveSnapshot stores snap as run runID of project in one transaction.
// Saving an existing run id replaces it.
func (db *DB) SaveSnapshot(ctx context.Context, runID, project string, snap *signature.Snapshot) error {
	start := time.Now()
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("failed to replace run: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (run_id, project, created_at, class_count, method_count, field_count)
			VALUES (?, ?, ?, ?, ?, ?)
		`, runID, project, time.Now().UTC().Format(timeLayout),
			len(snap.Classes), len(snap.Methods), len(snap.Fields)); err != nil {
			return fmt.Errorf("failed to create run: %w", err)
		}
		if err := insertClasses(ctx, tx, runID, snap); err != nil {
			return err
		}
		if err := insertMethods(ctx, tx, runID, snap); err != nil {
			return err
		}
		return insertFields(ctx, tx, runID, snap)
	})
	if err != nil {
		return err
	}

	db.logger.Info("Saved snapshot",
		"run", runID,
		"project", project,
		"classes", len(snap.Classes),
		"methods", len(snap.Methods),
		"duration", time.Since(start).Milliseconds(),
	)
	return nil
}

func insertClasses(ctx context.Context, tx *sql.Tx, runID string, snap *signature.Snapshot) error {
	classStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classes (run_id, name, source, path, kind, alias_of, simple_names_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare class insert: %w", err)
	}
	defer classStmt.Close()

	memberStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO class_members (run_id, class, member_kind, signature, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare member insert: %w", err)
	}
	defer memberStmt.Close()

	for _, name := range snap.ClassKeys() {
		c := snap.Classes[name]
		simple, err := json.Marshal(c.SimpleName)
		if err != nil {
			return fmt.Errorf("failed to encode simple names of %s: %w", name, err)
		}
		if _, err := classStmt.ExecContext(ctx, runID, name, c.Source, c.Path, string(c.Kind), c.AliasOf, string(simple)); err != nil {
			return fmt.Errorf("failed to insert class %s: %w", name, err)
		}
		for _, m := range []struct {
			kind string
			sigs []string
		}{{"field", c.Fields}, {"method", c.Methods}} {
			for i, sig := range m.sigs {
				if _, err := memberStmt.ExecContext(ctx, runID, name, m.kind, sig, i); err != nil {
					return fmt.Errorf("failed to insert member of %s: %w", name, err)
				}
			}
		}
	}
	return nil
}

func insertMethods(ctx context.Context, tx *sql.Tx, runID string, snap *signature.Snapshot) error {
	methodStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO methods (run_id, signature, class, source, start_line, end_line, kind)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare method insert: %w", err)
	}
	defer methodStmt.Close()

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO method_edges (run_id, method, edge_kind, target, position)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, sig := range snap.MethodKeys() {
		m := snap.Methods[sig]
		if _, err := methodStmt.ExecContext(ctx, runID, sig, m.Class, m.Source, m.StartLine, m.EndLine, string(m.Kind)); err != nil {
			return fmt.Errorf("failed to insert method %s: %w", sig, err)
		}
		for _, e := range []struct {
			kind    string
			targets []string
		}{{"calls", m.Calls}, {"uses_field", m.UsedFields}} {
			for i, target := range e.targets {
				if _, err := edgeStmt.ExecContext(ctx, runID, sig, e.kind, target, i); err != nil {
					return fmt.Errorf("failed to insert edge of %s: %w", sig, err)
				}
			}
		}
	}
	return nil
}

func insertFields(ctx context.Context, tx *sql.Tx, runID string, snap *signature.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fields (run_id, signature, type_class, name, source, kind)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare field insert: %w", err)
	}
	defer stmt.Close()

	for _, sig := range snap.FieldKeys() {
		f := snap.Fields[sig]
		if _, err := stmt.ExecContext(ctx, runID, sig, f.TypeClass, f.Name, f.Source, string(f.Kind)); err != nil {
			return fmt.Errorf("failed to insert field %s: %w", sig, err)
		}
	}
	return nil
}

// LoadSnapshot reads run runID back. An unknown run is SNAPSHOT_MISSING.
func (db *DB) LoadSnapshot(ctx context.Context, runID string) (*signature.Snapshot, error) {
	if _, err := db.Run(ctx, runID); err != nil {
		return nil, err
	}

	snap := signature.NewSnapshot()
	if err := db.loadClasses(ctx, runID, snap); err != nil {
		return nil, err
	}
	if err := db.loadMethods(ctx, runID, snap); err != nil {
		return nil, err
	}
	if err := db.loadFields(ctx, runID, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (db *DB) loadClasses(ctx context.Context, runID string, snap *signature.Snapshot) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, source, path, kind, alias_of, simple_names_json
		FROM classes WHERE run_id = ?
	`, runID)
	if err != nil {
		return fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c := &signature.ClassSignature{Fields: []string{}, Methods: []string{}}
		var kind, simple string
		if err := rows.Scan(&c.Name, &c.Source, &c.Path, &kind, &c.AliasOf, &simple); err != nil {
			return fmt.Errorf("failed to scan class: %w", err)
		}
		c.Kind = signature.Kind(kind)
		if err := json.Unmarshal([]byte(simple), &c.SimpleName); err != nil {
			return errors.NewChainError(errors.SnapshotCorrupt, "cannot decode simple names of "+c.Name, err, nil)
		}
		if c.SimpleName == nil {
			c.SimpleName = map[string]string{}
		}
		snap.Classes[c.Name] = c
	}
	if err := rows.Err(); err != nil {
		return err
	}

	members, err := db.conn.QueryContext(ctx, `
		SELECT class, member_kind, signature
		FROM class_members WHERE run_id = ?
		ORDER BY class, member_kind, position
	`, runID)
	if err != nil {
		return fmt.Errorf("failed to query class members: %w", err)
	}
	defer members.Close()

	for members.Next() {
		var class, kind, sig string
		if err := members.Scan(&class, &kind, &sig); err != nil {
			return fmt.Errorf("failed to scan class member: %w", err)
		}
		c, ok := snap.Classes[class]
		if !ok {
			continue
		}
		if kind == "field" {
			c.Fields = append(c.Fields, sig)
		} else {
			c.Methods = append(c.Methods, sig)
		}
	}
	return members.Err()
}

func (db *DB) loadMethods(ctx context.Context, runID string, snap *signature.Snapshot) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT signature, class, source, start_line, end_line, kind
		FROM methods WHERE run_id = ?
	`, runID)
	if err != nil {
		return fmt.Errorf("failed to query methods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m := &signature.MethodSignature{UsedFields: []string{}, Calls: []string{}}
		var sig, kind string
		if err := rows.Scan(&sig, &m.Class, &m.Source, &m.StartLine, &m.EndLine, &kind); err != nil {
			return fmt.Errorf("failed to scan method: %w", err)
		}
		m.Kind = signature.Kind(kind)
		snap.Methods[sig] = m
	}
	if err := rows.Err(); err != nil {
		return err
	}

	edges, err := db.conn.QueryContext(ctx, `
		SELECT method, edge_kind, target
		FROM method_edges WHERE run_id = ?
		ORDER BY method, edge_kind, position
	`, runID)
	if err != nil {
		return fmt.Errorf("failed to query method edges: %w", err)
	}
	defer edges.Close()

	for edges.Next() {
		var method, kind, target string
		if err := edges.Scan(&method, &kind, &target); err != nil {
			return fmt.Errorf("failed to scan method edge: %w", err)
		}
		m, ok := snap.Methods[method]
		if !ok {
			continue
		}
		if kind == "calls" {
			m.Calls = append(m.Calls, target)
		} else {
			m.UsedFields = append(m.UsedFields, target)
		}
	}
	return edges.Err()
}

func (db *DB) loadFields(ctx context.Context, runID string, snap *signature.Snapshot) error {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT signature, type_class, name, source, kind
		FROM fields WHERE run_id = ?
	`, runID)
	if err != nil {
		return fmt.Errorf("failed to query fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		f := &signature.FieldSignature{}
		var kind string
		if err := rows.Scan(&f.Signature, &f.TypeClass, &f.Name, &f.Source, &kind); err != nil {
			return fmt.Errorf("failed to scan field: %w", err)
		}
		f.Kind = signature.Kind(kind)
		snap.Fields[f.Signature] = f
	}
	return rows.Err()
}

// Run returns the stored run with id runID.
func (db *DB) Run(ctx context.Context, runID string) (*Run, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT run_id, project, created_at, class_count, method_count, field_count
		FROM runs WHERE run_id = ?
	`, runID)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewChainError(errors.SnapshotMissing, "no stored run "+runID, nil, nil)
	}
	return run, err
}

// LatestRun returns the most recent run of project.
func (db *DB) LatestRun(ctx context.Context, project string) (*Run, error) {
	runs, err := db.Runs(ctx, project, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, errors.NewChainError(errors.SnapshotMissing, "no stored run for project "+project, nil, nil)
	}
	return &runs[0], nil
}

// Runs lists the runs of project, newest first. limit <= 0 lists all.
func (db *DB) Runs(ctx context.Context, project string, limit int) ([]Run, error) {
	query := `
		SELECT run_id, project, created_at, class_count, method_count, field_count
		FROM runs WHERE project = ?
		ORDER BY created_at DESC, rowid DESC
	`
	args := []any{project}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and everything stored under it.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (*Run, error) {
	var run Run
	var createdAt string
	if err := s.Scan(&run.ID, &run.Project, &createdAt, &run.ClassCount, &run.MethodCount, &run.FieldCount); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for run %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	return &run, nil
}

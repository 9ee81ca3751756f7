package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(context.Background(), func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}

		creators := []func(*sql.Tx) error{
			createRunsTable,
			createClassesTable,
			createClassMembersTable,
			createMethodsTable,
			createMethodEdgesTable,
			createFieldsTable,
		}
		for _, create := range creators {
			if err := create(tx); err != nil {
				return err
			}
		}

		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", "version", currentSchemaVersion)
		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", "version", version)
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations",
		"from_version", version,
		"to_version", currentSchemaVersion,
	)

	// A database without a version table predates the schema; rebuild it.
	if version == 0 {
		return db.initializeSchema()
	}
	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	var tableName string
	err := db.conn.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createRunsTable creates the runs table, one row per analysis run.
func createRunsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			project TEXT NOT NULL,
			created_at TEXT NOT NULL,
			class_count INTEGER NOT NULL,
			method_count INTEGER NOT NULL,
			field_count INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_runs_project_created ON runs(project, created_at)"); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func createClassesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS classes (
			run_id TEXT NOT NULL,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('direct', 'impl_alias')),
			alias_of TEXT NOT NULL DEFAULT '',
			simple_names_json TEXT NOT NULL,

			PRIMARY KEY (run_id, name),
			FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create classes table: %w", err)
	}
	return nil
}

// createClassMembersTable keeps each class's ordered field and method
// lists. Field signatures are keyed by type, not by declaring class, so
// membership cannot be derived from the fields table.
func createClassMembersTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS class_members (
			run_id TEXT NOT NULL,
			class TEXT NOT NULL,
			member_kind TEXT NOT NULL CHECK(member_kind IN ('field', 'method')),
			signature TEXT NOT NULL,
			position INTEGER NOT NULL,

			PRIMARY KEY (run_id, class, member_kind, position),
			FOREIGN KEY (run_id, class) REFERENCES classes(run_id, name) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create class_members table: %w", err)
	}
	return nil
}

func createMethodsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS methods (
			run_id TEXT NOT NULL,
			signature TEXT NOT NULL,
			class TEXT NOT NULL,
			source TEXT NOT NULL,
			start_line INTEGER NOT NULL,
			end_line INTEGER NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('direct', 'impl_alias')),

			PRIMARY KEY (run_id, signature),
			FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create methods table: %w", err)
	}
	return nil
}

// createMethodEdgesTable stores both ordered method lists: calls to other
// methods and used fields.
func createMethodEdgesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS method_edges (
			run_id TEXT NOT NULL,
			method TEXT NOT NULL,
			edge_kind TEXT NOT NULL CHECK(edge_kind IN ('calls', 'uses_field')),
			target TEXT NOT NULL,
			position INTEGER NOT NULL,

			PRIMARY KEY (run_id, method, edge_kind, position),
			FOREIGN KEY (run_id, method) REFERENCES methods(run_id, signature) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create method_edges table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_method_edges_target ON method_edges(run_id, edge_kind, target)",
	}
	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

func createFieldsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS fields (
			run_id TEXT NOT NULL,
			signature TEXT NOT NULL,
			type_class TEXT NOT NULL,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			kind TEXT NOT NULL CHECK(kind IN ('direct', 'impl_alias')),

			PRIMARY KEY (run_id, signature),
			FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create fields table: %w", err)
	}
	return nil
}

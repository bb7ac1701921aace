package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "maps: mind map records with access secrets",
		SQL: `
CREATE TABLE maps (
    id                  TEXT PRIMARY KEY,
    admin_id            TEXT NOT NULL,
    modification_secret TEXT NOT NULL,
    options             TEXT NOT NULL DEFAULT '{}',
    created_at          INTEGER NOT NULL,
    updated_at          INTEGER NOT NULL
);

CREATE INDEX idx_maps_updated ON maps(updated_at);
`,
	},
	{
		Version:     2,
		Description: "nodes: per-map tree nodes with sibling order",
		SQL: `
CREATE TABLE nodes (
    map_id       TEXT NOT NULL,
    id           TEXT NOT NULL,
    parent_id    TEXT,
    order_number INTEGER NOT NULL DEFAULT 0,
    detached     INTEGER NOT NULL DEFAULT 0,
    content      TEXT,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL,

    PRIMARY KEY (map_id, id),
    FOREIGN KEY (map_id) REFERENCES maps(id) ON DELETE CASCADE,
    FOREIGN KEY (map_id, parent_id) REFERENCES nodes(map_id, id) ON DELETE CASCADE,

    -- A detached node never has a parent.
    CHECK (NOT (detached = 1 AND parent_id IS NOT NULL))
);

CREATE INDEX idx_nodes_order   ON nodes(map_id, order_number);
CREATE INDEX idx_nodes_parent  ON nodes(map_id, parent_id);
CREATE INDEX idx_nodes_updated ON nodes(map_id, updated_at);
`,
	},
}

func (db *DB) migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		applied, err := db.migrationApplied(m.Version)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if applied {
			continue
		}
		if err := db.applyMigration(m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
	}
	return nil
}

func (db *DB) migrationApplied(version int) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", version).Scan(&count)
	return count > 0, err
}

// applyMigration runs one migration's DDL and records it, in one transaction.
func (db *DB) applyMigration(m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
		m.Version, m.Description,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}

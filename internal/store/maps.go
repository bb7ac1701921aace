package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Map is the persisted container for one mind map: identity, access
// secrets, the opaque display options blob, and the map-level
// last-modified timestamp. Node edits do not touch UpdatedAt; only
// changes to the map record itself (e.g. options) do.
type Map struct {
	ID                 string
	AdminID            string
	ModificationSecret string
	Options            json.RawMessage
	CreatedAt          int64
	UpdatedAt          int64
}

// MapSummary is one row of the grouped map/node aggregate used for
// operator listings.
type MapSummary struct {
	ID         string
	UpdatedAt  int64
	NodeCount  int
	NewestNode *int64 // nil when the map has no nodes
}

// NewMap constructs an unsaved Map with fresh identity, secrets, and
// current timestamps. Both secrets are revealed to the creator once and
// never exposed on read paths afterwards.
func NewMap() *Map {
	now := time.Now().UnixMilli()
	return &Map{
		ID:                 uuid.NewString(),
		AdminID:            uuid.NewString(),
		ModificationSecret: uuid.NewString(),
		Options:            json.RawMessage(`{}`),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// CreateMap persists a fresh Map with no nodes attached.
func (db *DB) CreateMap() (*Map, error) {
	m := NewMap()
	if _, err := db.Exec(`
		INSERT INTO maps (id, admin_id, modification_secret, options, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.AdminID, m.ModificationSecret, string(m.Options), m.CreatedAt, m.UpdatedAt); err != nil {
		return nil, fmt.Errorf("create map: %w", err)
	}
	return m, nil
}

// CreateMapWithRoot persists a fresh Map together with its root node in a
// single transaction. The root is forced parentless and attached; its
// timestamps are aligned with the map's.
func (db *DB) CreateMapWithRoot(root *Node) (*Map, *Node, error) {
	m := NewMap()

	root.MapID = m.ID
	root.ParentID = ""
	root.Detached = false
	root.CreatedAt = m.CreatedAt
	root.UpdatedAt = m.UpdatedAt
	if root.ID == "" {
		root.ID = uuid.NewString()
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, nil, fmt.Errorf("begin create map: %w", err)
	}

	if _, err := tx.Exec(`
		INSERT INTO maps (id, admin_id, modification_secret, options, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.AdminID, m.ModificationSecret, string(m.Options), m.CreatedAt, m.UpdatedAt); err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("create map: %w", err)
	}

	if err := insertNode(tx, root); err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("create root node: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit create map: %w", err)
	}
	return m, root, nil
}

// FindMap returns a map by its ID, or nil if not found.
func (db *DB) FindMap(id string) (*Map, error) {
	var m Map
	var options string
	err := db.QueryRow(`
		SELECT id, admin_id, modification_secret, options, created_at, updated_at
		FROM maps WHERE id = ?
	`, id).Scan(&m.ID, &m.AdminID, &m.ModificationSecret, &options, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find map: %w", err)
	}
	m.Options = json.RawMessage(options)
	return &m, nil
}

// UpdateMapOptions replaces the options blob and refreshes the map-level
// last-modified timestamp. Returns nil if the map does not exist.
func (db *DB) UpdateMapOptions(id string, options json.RawMessage) (*Map, error) {
	if len(options) == 0 {
		options = json.RawMessage(`{}`)
	}
	now := time.Now().UnixMilli()
	res, err := db.Exec(`
		UPDATE maps SET options = ?, updated_at = ? WHERE id = ?
	`, string(options), now, id)
	if err != nil {
		return nil, fmt.Errorf("update map options: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return nil, nil
	}
	return db.FindMap(id)
}

// DeleteMap removes the map row. Its nodes are removed by the cascading
// foreign key. Returns false when no such map existed.
func (db *DB) DeleteMap(id string) (bool, error) {
	res, err := db.Exec("DELETE FROM maps WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete map: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// CountMaps returns the number of stored maps.
func (db *DB) CountMaps() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM maps").Scan(&n)
	return n, err
}

// ListMapSummaries returns one row per map with its node count and newest
// node modification, oldest map first.
func (db *DB) ListMapSummaries() ([]MapSummary, error) {
	rows, err := db.Query(`
		SELECT m.id, m.updated_at, COUNT(n.id), MAX(n.updated_at)
		FROM maps m
		LEFT JOIN nodes n ON n.map_id = m.id
		GROUP BY m.id
		ORDER BY m.created_at, m.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list map summaries: %w", err)
	}
	defer rows.Close()

	var out []MapSummary
	for rows.Next() {
		var s MapSummary
		var newest sql.NullInt64
		if err := rows.Scan(&s.ID, &s.UpdatedAt, &s.NodeCount, &newest); err != nil {
			return nil, fmt.Errorf("scan map summary: %w", err)
		}
		if newest.Valid {
			s.NewestNode = &newest.Int64
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Invariant rejections. These are explicit outcomes, not storage failures:
// callers can branch on them to tell a rejected write from a broken store.
var (
	// ErrEmptyNodeID rejects a node submitted without a client-assigned ID.
	ErrEmptyNodeID = errors.New("node id required")

	// ErrDetachedParent rejects a node flagged detached while referencing
	// a parent.
	ErrDetachedParent = errors.New("detached node cannot have a parent")

	// ErrRootDetach rejects detaching a map's root node.
	ErrRootDetach = errors.New("root node cannot be detached")

	// ErrRootReparent rejects giving the map's root node a parent, which
	// would leave the map rootless.
	ErrRootReparent = errors.New("root node cannot be given a parent")

	// ErrSecondRoot rejects a change that would leave a second parentless,
	// attached node in the map.
	ErrSecondRoot = errors.New("map already has a root node")

	// ErrSelfParent rejects a node referencing itself as parent.
	ErrSelfParent = errors.New("node cannot be its own parent")
)

// Node is one persisted element of a map's tree. ID is assigned by the
// client and unique only within the owning map. ParentID is empty for the
// root and for detached nodes. Content carries the client's payload
// (position, text, styling) and is opaque to this layer.
type Node struct {
	ID          string
	MapID       string
	ParentID    string
	OrderNumber int64
	Detached    bool
	Content     json.RawMessage
	CreatedAt   int64
	UpdatedAt   int64
}

// NodeUpdate carries a partial node change. Nil fields are left unchanged;
// a pointer to the zero value clears the field (e.g. ParentID pointing at
// "" clears the parent).
type NodeUpdate struct {
	ParentID    *string
	OrderNumber *int64
	Detached    *bool
	Content     json.RawMessage
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertNode(ex execer, n *Node) error {
	_, err := ex.Exec(`
		INSERT INTO nodes (map_id, id, parent_id, order_number, detached, content, created_at, updated_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), ?, ?)
	`, n.MapID, n.ID, n.ParentID, n.OrderNumber, boolToInt(n.Detached), string(n.Content), n.CreatedAt, n.UpdatedAt)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FindAllNodes returns every node for a map in sibling order. The ID
// tiebreak keeps the order deterministic when order numbers collide.
func (db *DB) FindAllNodes(mapID string) ([]Node, error) {
	rows, err := db.Query(`
		SELECT map_id, id, parent_id, order_number, detached, content, created_at, updated_at
		FROM nodes WHERE map_id = ?
		ORDER BY order_number, id
	`, mapID)
	if err != nil {
		return nil, fmt.Errorf("find all nodes: %w", err)
	}
	defer rows.Close()

	return scanNodes(rows)
}

// FindNode returns a node by its map and node ID, or nil if not found.
func (db *DB) FindNode(mapID, nodeID string) (*Node, error) {
	var n Node
	var parent, content sql.NullString
	var detached int
	err := db.QueryRow(`
		SELECT map_id, id, parent_id, order_number, detached, content, created_at, updated_at
		FROM nodes WHERE map_id = ? AND id = ?
	`, mapID, nodeID).Scan(&n.MapID, &n.ID, &parent, &n.OrderNumber, &detached, &content, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find node: %w", err)
	}
	n.ParentID = parent.String
	n.Detached = detached != 0
	if content.Valid {
		n.Content = json.RawMessage(content.String)
	}
	return &n, nil
}

// AddNode inserts a node into a map. Creation is idempotent: if a node
// with the same ID already exists for the map, the stored node is returned
// with created=false and nothing is written, so retried client submissions
// are safe. A node that is both detached and parented is rejected with
// ErrDetachedParent; a parentless attached candidate is rejected with
// ErrSecondRoot since the map's root exists from creation. An unknown
// parent fails the referential constraint and surfaces as a storage error.
func (db *DB) AddNode(mapID string, n *Node) (*Node, bool, error) {
	if n.ID == "" {
		return nil, false, ErrEmptyNodeID
	}
	if n.Detached && n.ParentID != "" {
		return nil, false, ErrDetachedParent
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, false, fmt.Errorf("begin add node: %w", err)
	}
	defer tx.Rollback()

	// The candidate's own id is excluded so re-adding the root itself
	// stays on the idempotent path.
	if n.ParentID == "" && !n.Detached {
		var roots int
		if err := tx.QueryRow(`
			SELECT COUNT(*) FROM nodes
			WHERE map_id = ? AND parent_id IS NULL AND detached = 0 AND id <> ?
		`, mapID, n.ID).Scan(&roots); err != nil {
			return nil, false, fmt.Errorf("add node: count roots: %w", err)
		}
		if roots > 0 {
			return nil, false, ErrSecondRoot
		}
	}

	now := time.Now().UnixMilli()
	n.MapID = mapID
	n.CreatedAt = now
	n.UpdatedAt = now

	// DO NOTHING instead of find-then-insert: concurrent adds with the
	// same id both land here, and the loser falls through to the re-read
	// rather than tripping the primary key.
	res, err := tx.Exec(`
		INSERT INTO nodes (map_id, id, parent_id, order_number, detached, content, created_at, updated_at)
		VALUES (?, ?, NULLIF(?, ''), ?, ?, NULLIF(?, ''), ?, ?)
		ON CONFLICT (map_id, id) DO NOTHING
	`, n.MapID, n.ID, n.ParentID, n.OrderNumber, boolToInt(n.Detached), string(n.Content), n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("add node: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit add node: %w", err)
	}

	if rows, _ := res.RowsAffected(); rows == 0 {
		existing, err := db.FindNode(mapID, n.ID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return n, true, nil
}

// UpdateNode merges the given fields into an existing node and refreshes
// its last-modified timestamp. Returns nil if the node does not exist.
// Changes that would break the tree shape are rejected: a detached node
// with a parent (ErrDetachedParent), detaching the root (ErrRootDetach),
// giving the root a parent (ErrRootReparent), orphaning a non-root into a
// second root (ErrSecondRoot), and self-parenting (ErrSelfParent).
func (db *DB) UpdateNode(mapID, nodeID string, upd NodeUpdate) (*Node, error) {
	existing, err := db.FindNode(mapID, nodeID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	merged := *existing
	if upd.ParentID != nil {
		merged.ParentID = *upd.ParentID
	}
	if upd.OrderNumber != nil {
		merged.OrderNumber = *upd.OrderNumber
	}
	if upd.Detached != nil {
		merged.Detached = *upd.Detached
	}
	if upd.Content != nil {
		merged.Content = upd.Content
	}

	isRoot := existing.ParentID == "" && !existing.Detached
	switch {
	case merged.Detached && merged.ParentID != "":
		return nil, ErrDetachedParent
	case isRoot && merged.Detached:
		return nil, ErrRootDetach
	case isRoot && merged.ParentID != "":
		return nil, ErrRootReparent
	case !isRoot && merged.ParentID == "" && !merged.Detached:
		return nil, ErrSecondRoot
	case merged.ParentID == merged.ID:
		return nil, ErrSelfParent
	}

	merged.UpdatedAt = time.Now().UnixMilli()
	if _, err := db.Exec(`
		UPDATE nodes SET parent_id = NULLIF(?, ''), order_number = ?, detached = ?, content = NULLIF(?, ''), updated_at = ?
		WHERE map_id = ? AND id = ?
	`, merged.ParentID, merged.OrderNumber, boolToInt(merged.Detached), string(merged.Content), merged.UpdatedAt, mapID, nodeID); err != nil {
		return nil, fmt.Errorf("update node: %w", err)
	}
	return &merged, nil
}

// RemoveNode deletes a node if present; its descendants go with it via the
// cascading parent reference. Absence is not an error: the bool reports
// whether anything was removed.
func (db *DB) RemoveNode(mapID, nodeID string) (bool, error) {
	res, err := db.Exec("DELETE FROM nodes WHERE map_id = ? AND id = ?", mapID, nodeID)
	if err != nil {
		return false, fmt.Errorf("remove node: %w", err)
	}
	rows, _ := res.RowsAffected()
	return rows > 0, nil
}

// DeleteAllNodes removes every node belonging to a map.
func (db *DB) DeleteAllNodes(mapID string) error {
	if _, err := db.Exec("DELETE FROM nodes WHERE map_id = ?", mapID); err != nil {
		return fmt.Errorf("delete all nodes: %w", err)
	}
	return nil
}

// ReplaceNodes atomically swaps a map's node set for the given sequence:
// every existing node is deleted and the submitted nodes are inserted one
// at a time in the order given, inside a single transaction. A node whose
// parent has not been inserted yet fails the referential constraint and
// rolls the whole replace back, leaving the previous tree intact. The map
// record's last-modified is refreshed in the same transaction, so a replace
// that clears the map still counts as activity and restarts its retention
// window.
func (db *DB) ReplaceNodes(mapID string, nodes []Node) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM nodes WHERE map_id = ?", mapID); err != nil {
		tx.Rollback()
		return fmt.Errorf("replace: clear nodes: %w", err)
	}

	now := time.Now().UnixMilli()
	for i := range nodes {
		n := nodes[i]
		n.MapID = mapID
		n.CreatedAt = now
		n.UpdatedAt = now
		if err := insertNode(tx, &n); err != nil {
			tx.Rollback()
			return fmt.Errorf("replace: insert node %s: %w", n.ID, err)
		}
	}

	if _, err := tx.Exec("UPDATE maps SET updated_at = ? WHERE id = ?", now, mapID); err != nil {
		tx.Rollback()
		return fmt.Errorf("replace: touch map: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func scanNodes(rows *sql.Rows) ([]Node, error) {
	var nodes []Node
	for rows.Next() {
		var n Node
		var parent, content sql.NullString
		var detached int
		if err := rows.Scan(&n.MapID, &n.ID, &parent, &n.OrderNumber, &detached, &content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.ParentID = parent.String
		n.Detached = detached != 0
		if content.Valid {
			n.Content = json.RawMessage(content.String)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

package store

import (
	"fmt"
)

// outdatedMapsWhere selects maps whose most recent activity is strictly
// before a cutoff. Activity is the newest node modification, computed as
// one grouped aggregate over all nodes, or the map's own last-modified
// when it has no nodes. Keeping this a single set-based query bounds the
// cost of a sweep under large map counts.
const outdatedMapsWhere = `
	SELECT m.id
	FROM maps m
	LEFT JOIN (
		SELECT map_id, MAX(updated_at) AS last_change
		FROM nodes
		GROUP BY map_id
	) n ON n.map_id = m.id
	WHERE COALESCE(n.last_change, m.updated_at) < ?
`

// DeleteOutdatedMaps removes, in one batched statement, every map whose
// last activity is strictly before cutoff (unix millis). Nodes go with
// their maps via the cascading foreign key. Returns the number of maps
// removed; rerunning with no newly-qualifying maps removes nothing.
func (db *DB) DeleteOutdatedMaps(cutoff int64) (int, error) {
	res, err := db.Exec("DELETE FROM maps WHERE id IN ("+outdatedMapsWhere+")", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete outdated maps: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// OutdatedMapIDs returns the IDs DeleteOutdatedMaps would remove at the
// given cutoff, without deleting anything.
func (db *DB) OutdatedMapIDs(cutoff int64) ([]string, error) {
	rows, err := db.Query(outdatedMapsWhere, cutoff)
	if err != nil {
		return nil, fmt.Errorf("outdated map ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan outdated map id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

package engine

import (
	"fmt"

	"github.com/mapgrove/mapgrove/internal/store"
)

// Replace swaps a map's stored tree for the submitted node sequence. The
// batch is validated before storage is touched and applied in a single
// transaction while the map's lock is held, so a failed replace leaves the
// previous tree intact and overlapping replaces of the same map run one at a
// time. On success the now-current view of the map is returned.
func (e *Engine) Replace(mapID string, nodes []store.Node) (*ClientMap, error) {
	if err := ValidateBatch(nodes); err != nil {
		return nil, err
	}

	lk := e.locks.acquire(mapID)
	defer e.locks.release(mapID, lk)

	m, err := e.DB.FindMap(mapID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMapNotFound
	}

	if err := e.DB.ReplaceNodes(mapID, nodes); err != nil {
		return nil, fmt.Errorf("replace nodes of map %s: %w", mapID, err)
	}

	// Reload rather than reuse: the replace refreshed the map record's
	// last-modified, which feeds the view's expiry.
	view, err := e.Export(mapID)
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, ErrMapNotFound
	}
	return view, nil
}

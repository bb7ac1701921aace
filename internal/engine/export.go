package engine

import (
	"encoding/json"
	"time"

	"github.com/mapgrove/mapgrove/internal/store"
)

// ClientNode is the external representation of a stored node. Timestamps go
// out as RFC 3339 rather than the store's unix milliseconds.
type ClientNode struct {
	ID          string          `json:"id"`
	ParentID    string          `json:"parentId,omitempty"`
	OrderNumber int64           `json:"orderNumber"`
	Detached    bool            `json:"detached"`
	Content     json.RawMessage `json:"content,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ClientMap is the external representation of a map: metadata, the ordered
// node list, and the computed expiry. The adminId and modificationSecret are
// deliberately absent; they are only handed out at creation.
type ClientMap struct {
	ID              string          `json:"id"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastModified    time.Time       `json:"lastModified"`
	DeletedAt       time.Time       `json:"deletedAt"`
	DeleteAfterDays int             `json:"deleteAfterDays"`
	Options         json.RawMessage `json:"options"`
	Nodes           []ClientNode    `json:"nodes"`
}

// NodeView converts a stored node to its external form.
func NodeView(n store.Node) ClientNode {
	return ClientNode{
		ID:          n.ID,
		ParentID:    n.ParentID,
		OrderNumber: n.OrderNumber,
		Detached:    n.Detached,
		Content:     n.Content,
		CreatedAt:   time.UnixMilli(n.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(n.UpdatedAt).UTC(),
	}
}

// Export assembles the client view of a map: metadata, nodes in stored
// order, and the expiry computed from the newest change. Returns (nil, nil)
// when the map does not exist.
func (e *Engine) Export(mapID string) (*ClientMap, error) {
	m, err := e.DB.FindMap(mapID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	nodes, err := e.DB.FindAllNodes(mapID)
	if err != nil {
		return nil, err
	}
	return e.clientView(m, nodes), nil
}

func (e *Engine) clientView(m *store.Map, nodes []store.Node) *ClientMap {
	var newest *int64
	views := make([]ClientNode, 0, len(nodes))
	for _, n := range nodes {
		if newest == nil || n.UpdatedAt > *newest {
			v := n.UpdatedAt
			newest = &v
		}
		views = append(views, NodeView(n))
	}

	// The advertised lastModified tracks the same instant the expiry is
	// computed from, so deletedAt is always lastModified plus the window.
	base := m.UpdatedAt
	if newest != nil {
		base = *newest
	}

	return &ClientMap{
		ID:              m.ID,
		CreatedAt:       time.UnixMilli(m.CreatedAt).UTC(),
		LastModified:    time.UnixMilli(base).UTC(),
		DeletedAt:       DeletedAt(m.UpdatedAt, newest, e.WindowDays),
		DeleteAfterDays: e.WindowDays,
		Options:         m.Options,
		Nodes:           views,
	}
}

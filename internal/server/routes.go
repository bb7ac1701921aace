package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mapgrove/mapgrove/internal/engine"
	"github.com/mapgrove/mapgrove/internal/store"
)

// nodePayload is the wire form of a node submitted by a client. Timestamps
// are assigned server-side and never accepted from the wire.
type nodePayload struct {
	ID          string          `json:"id"`
	ParentID    string          `json:"parentId"`
	OrderNumber int64           `json:"orderNumber"`
	Detached    bool            `json:"detached"`
	Content     json.RawMessage `json:"content"`
}

func (p nodePayload) toNode() store.Node {
	return store.Node{
		ID:          p.ID,
		ParentID:    p.ParentID,
		OrderNumber: p.OrderNumber,
		Detached:    p.Detached,
		Content:     p.Content,
	}
}

func (s *Server) handleCreateMap(w http.ResponseWriter, r *http.Request) {
	// The body is optional: clients may seed the root node's id and
	// content, or post nothing and take the generated defaults.
	var req struct {
		RootNode nodePayload `json:"rootNode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	m, view, err := s.engine.CreateEmptyMap(req.RootNode.toNode())
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"map":                view,
		"adminId":            m.AdminID,
		"modificationSecret": m.ModificationSecret,
	})
}

func (s *Server) handleGetMap(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")

	view, err := s.engine.Export(mapID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if view == nil {
		http.Error(w, `{"error":"map not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleDeleteMap(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")

	var req struct {
		AdminID string `json:"adminId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	switch err := s.engine.DeleteMap(mapID, req.AdminID); {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, engine.ErrMapNotFound):
		http.Error(w, `{"error":"map not found"}`, http.StatusNotFound)
	case errors.Is(err, engine.ErrAdminMismatch):
		http.Error(w, `{"error":"admin id mismatch"}`, http.StatusForbidden)
	default:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
	}
}

func (s *Server) handleUpdateOptions(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")

	var req struct {
		Options json.RawMessage `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	m, err := s.db.UpdateMapOptions(mapID, req.Options)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, `{"error":"map not found"}`, http.StatusNotFound)
		return
	}

	view, err := s.engine.Export(mapID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleGetNodes(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")

	m, err := s.db.FindMap(mapID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, `{"error":"map not found"}`, http.StatusNotFound)
		return
	}

	nodes, err := s.db.FindAllNodes(mapID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	views := make([]engine.ClientNode, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, engine.NodeView(n))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (s *Server) handleReplaceNodes(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")

	var req struct {
		Nodes []nodePayload `json:"nodes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	nodes := make([]store.Node, 0, len(req.Nodes))
	for _, p := range req.Nodes {
		nodes = append(nodes, p.toNode())
	}

	view, err := s.engine.Replace(mapID, nodes)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrMapNotFound):
		http.Error(w, `{"error":"map not found"}`, http.StatusNotFound)
		return
	case engine.IsRejection(err):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	default:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")

	var req nodePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	m, err := s.db.FindMap(mapID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if m == nil {
		http.Error(w, `{"error":"map not found"}`, http.StatusNotFound)
		return
	}

	if !s.parentExists(w, mapID, req.ParentID) {
		return
	}

	node := req.toNode()
	stored, created, err := s.db.AddNode(mapID, &node)
	switch {
	case err == nil:
	case engine.IsRejection(err):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	default:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if created {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(engine.NodeView(*stored))
}

func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	nodeID := chi.URLParam(r, "nodeID")

	var req struct {
		ParentID    *string         `json:"parentId"`
		OrderNumber *int64          `json:"orderNumber"`
		Detached    *bool           `json:"detached"`
		Content     json.RawMessage `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	if req.ParentID != nil && !s.parentExists(w, mapID, *req.ParentID) {
		return
	}

	upd := store.NodeUpdate{
		ParentID:    req.ParentID,
		OrderNumber: req.OrderNumber,
		Detached:    req.Detached,
		Content:     req.Content,
	}

	node, err := s.db.UpdateNode(mapID, nodeID, upd)
	switch {
	case err == nil:
	case engine.IsRejection(err):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	default:
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if node == nil {
		http.Error(w, `{"error":"node not found"}`, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.NodeView(*node))
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	nodeID := chi.URLParam(r, "nodeID")

	removed, err := s.db.RemoveNode(mapID, nodeID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, `{"error":"node not found"}`, http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parentExists verifies a referenced parent is present in the map before a
// single-node write, turning what would surface as a foreign key failure
// into a client error. Writes the response itself and returns false when the
// parent is missing.
func (s *Server) parentExists(w http.ResponseWriter, mapID, parentID string) bool {
	if parentID == "" {
		return true
	}
	p, err := s.db.FindNode(mapID, parentID)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return false
	}
	if p == nil {
		http.Error(w, `{"error":"parent node not found"}`, http.StatusBadRequest)
		return false
	}
	return true
}

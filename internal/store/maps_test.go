package store

import (
	"encoding/json"
	"testing"
)

func TestCreateMap(t *testing.T) {
	db := testDB(t)

	m, err := db.CreateMap()
	if err != nil {
		t.Fatalf("CreateMap: %v", err)
	}
	if m.ID == "" || m.AdminID == "" || m.ModificationSecret == "" {
		t.Error("expected id and secrets to be generated")
	}
	if m.ID == m.AdminID || m.AdminID == m.ModificationSecret {
		t.Error("expected distinct identifiers")
	}
	if string(m.Options) != "{}" {
		t.Errorf("options = %s, want {}", m.Options)
	}
	if m.CreatedAt == 0 || m.UpdatedAt != m.CreatedAt {
		t.Errorf("timestamps = %d/%d, want equal and non-zero", m.CreatedAt, m.UpdatedAt)
	}
}

func TestCreateMapWithRoot(t *testing.T) {
	db := testDB(t)

	// Client-supplied shape is forced into a legal root.
	root := Node{ID: "my-root", ParentID: "should-be-cleared", Detached: true}
	m, stored, err := db.CreateMapWithRoot(&root)
	if err != nil {
		t.Fatalf("CreateMapWithRoot: %v", err)
	}
	if stored.ID != "my-root" {
		t.Errorf("root ID = %q, want my-root", stored.ID)
	}
	if stored.ParentID != "" || stored.Detached {
		t.Errorf("root ParentID=%q Detached=%v, want parentless and attached", stored.ParentID, stored.Detached)
	}
	if stored.CreatedAt != m.CreatedAt {
		t.Error("expected root timestamps aligned with the map")
	}

	nodes, err := db.FindAllNodes(m.ID)
	if err != nil {
		t.Fatalf("FindAllNodes: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected exactly the root node, got %d", len(nodes))
	}
}

func TestCreateMapWithRootGeneratesID(t *testing.T) {
	db := testDB(t)

	_, stored, err := db.CreateMapWithRoot(&Node{})
	if err != nil {
		t.Fatalf("CreateMapWithRoot: %v", err)
	}
	if stored.ID == "" {
		t.Error("expected a generated root id")
	}
}

func TestFindMap(t *testing.T) {
	db := testDB(t)

	// Not found
	m, err := db.FindMap("nonexistent")
	if err != nil {
		t.Fatalf("FindMap: %v", err)
	}
	if m != nil {
		t.Error("expected nil for nonexistent map")
	}

	created, _ := db.CreateMap()
	found, err := db.FindMap(created.ID)
	if err != nil {
		t.Fatalf("FindMap: %v", err)
	}
	if found == nil {
		t.Fatal("expected map, got nil")
	}
	if found.AdminID != created.AdminID {
		t.Errorf("AdminID = %q, want %q", found.AdminID, created.AdminID)
	}
}

func TestUpdateMapOptions(t *testing.T) {
	db := testDB(t)

	m, _ := db.CreateMap()

	// Age the record so the refresh is observable.
	if _, err := db.Exec("UPDATE maps SET updated_at = 1000 WHERE id = ?", m.ID); err != nil {
		t.Fatalf("age map: %v", err)
	}

	opts := json.RawMessage(`{"fontMaxSize":28}`)
	updated, err := db.UpdateMapOptions(m.ID, opts)
	if err != nil {
		t.Fatalf("UpdateMapOptions: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated map, got nil")
	}
	if string(updated.Options) != `{"fontMaxSize":28}` {
		t.Errorf("options = %s, want the new blob", updated.Options)
	}
	if updated.UpdatedAt <= 1000 {
		t.Errorf("updated_at = %d, want refreshed past 1000", updated.UpdatedAt)
	}
}

func TestUpdateMapOptionsAbsent(t *testing.T) {
	db := testDB(t)

	m, err := db.UpdateMapOptions("nonexistent", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("UpdateMapOptions: %v", err)
	}
	if m != nil {
		t.Error("expected nil for nonexistent map")
	}
}

func TestUpdateMapOptionsEmptyDefaults(t *testing.T) {
	db := testDB(t)

	m, _ := db.CreateMap()
	updated, err := db.UpdateMapOptions(m.ID, nil)
	if err != nil {
		t.Fatalf("UpdateMapOptions: %v", err)
	}
	if string(updated.Options) != "{}" {
		t.Errorf("options = %s, want {}", updated.Options)
	}
}

func TestDeleteMapAbsent(t *testing.T) {
	db := testDB(t)

	deleted, err := db.DeleteMap("nonexistent")
	if err != nil {
		t.Fatalf("DeleteMap: %v", err)
	}
	if deleted {
		t.Error("expected deleted=false for absent map")
	}
}

func TestListMapSummaries(t *testing.T) {
	db := testDB(t)

	empty, _ := db.CreateMap()
	populated, root, _ := db.CreateMapWithRoot(&Node{ID: "root"})
	db.AddNode(populated.ID, &Node{ID: "child", ParentID: root.ID, OrderNumber: 1})

	sums, err := db.ListMapSummaries()
	if err != nil {
		t.Fatalf("ListMapSummaries: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(sums))
	}

	byID := map[string]MapSummary{}
	for _, s := range sums {
		byID[s.ID] = s
	}

	if s := byID[empty.ID]; s.NodeCount != 0 || s.NewestNode != nil {
		t.Errorf("empty map summary = %d nodes, newest %v; want 0 and nil", s.NodeCount, s.NewestNode)
	}
	if s := byID[populated.ID]; s.NodeCount != 2 || s.NewestNode == nil {
		t.Errorf("populated map summary = %d nodes, newest %v; want 2 and non-nil", s.NodeCount, s.NewestNode)
	}
}

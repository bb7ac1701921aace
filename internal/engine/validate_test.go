package engine

import (
	"errors"
	"testing"

	"github.com/mapgrove/mapgrove/internal/store"
)

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name  string
		nodes []store.Node
		want  error // nil means the batch is accepted
	}{
		{"empty batch", nil, nil},
		{"single root", []store.Node{
			{ID: "r"},
		}, nil},
		{"root with children", []store.Node{
			{ID: "r"},
			{ID: "a", ParentID: "r"},
			{ID: "b", ParentID: "a"},
		}, nil},
		{"detached alongside root", []store.Node{
			{ID: "r"},
			{ID: "d", Detached: true},
			{ID: "dk", ParentID: "d"},
		}, nil},
		{"missing id", []store.Node{
			{ID: "r"},
			{ID: "", ParentID: "r"},
		}, store.ErrEmptyNodeID},
		{"duplicate id", []store.Node{
			{ID: "r"},
			{ID: "a", ParentID: "r"},
			{ID: "a", ParentID: "r"},
		}, ErrDuplicateNode},
		{"unknown parent", []store.Node{
			{ID: "r"},
			{ID: "a", ParentID: "ghost"},
		}, ErrUnknownParent},
		{"parent appears after child", []store.Node{
			{ID: "r"},
			{ID: "a", ParentID: "b"},
			{ID: "b", ParentID: "r"},
		}, ErrUnknownParent},
		{"self reference", []store.Node{
			{ID: "r"},
			{ID: "a", ParentID: "a"},
		}, ErrUnknownParent},
		{"detached with parent", []store.Node{
			{ID: "r"},
			{ID: "d", ParentID: "r", Detached: true},
		}, store.ErrDetachedParent},
		{"no root", []store.Node{
			{ID: "d1", Detached: true},
			{ID: "d2", Detached: true},
		}, ErrNoRoot},
		{"two roots", []store.Node{
			{ID: "r1"},
			{ID: "r2"},
		}, ErrMultipleRoots},
	}

	for _, tt := range tests {
		err := ValidateBatch(tt.nodes)
		if tt.want == nil {
			if err != nil {
				t.Errorf("%s: unexpected error: %v", tt.name, err)
			}
			continue
		}
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
		}
	}
}

func TestIsRejection(t *testing.T) {
	if !IsRejection(ErrNoRoot) {
		t.Error("expected batch errors to count as rejections")
	}
	if !IsRejection(store.ErrRootDetach) {
		t.Error("expected invariant errors to count as rejections")
	}
	if IsRejection(errors.New("disk on fire")) {
		t.Error("expected arbitrary errors not to count as rejections")
	}
	if IsRejection(nil) {
		t.Error("nil is not a rejection")
	}
}

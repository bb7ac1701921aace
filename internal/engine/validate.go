package engine

import (
	"errors"
	"fmt"

	"github.com/mapgrove/mapgrove/internal/store"
)

// Batch rejections. A submitted node sequence that trips any of these is
// refused wholesale; the stored tree is left untouched.
var (
	ErrDuplicateNode = errors.New("duplicate node id in batch")
	ErrUnknownParent = errors.New("parent does not precede node in batch")
	ErrNoRoot        = errors.New("batch contains no root node")
	ErrMultipleRoots = errors.New("batch contains more than one root node")
)

// ValidateBatch checks a client-submitted node sequence before it replaces a
// map's stored tree. Order matters: a parent must appear earlier in the
// sequence than any node referencing it, which also rules out cycles. An
// empty batch is legal and clears the map. A non-empty batch must contain
// exactly one root, a node with no parent that is not detached.
func ValidateBatch(nodes []store.Node) error {
	seen := make(map[string]struct{}, len(nodes))
	roots := 0

	for i := range nodes {
		n := &nodes[i]
		if n.ID == "" {
			return fmt.Errorf("node %d: %w", i, store.ErrEmptyNodeID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %s: %w", n.ID, ErrDuplicateNode)
		}
		if n.Detached && n.ParentID != "" {
			return fmt.Errorf("node %s: %w", n.ID, store.ErrDetachedParent)
		}
		if n.ParentID != "" {
			if _, ok := seen[n.ParentID]; !ok {
				return fmt.Errorf("node %s references %s: %w", n.ID, n.ParentID, ErrUnknownParent)
			}
		}
		if n.ParentID == "" && !n.Detached {
			roots++
		}
		seen[n.ID] = struct{}{}
	}

	if len(nodes) > 0 {
		if roots == 0 {
			return ErrNoRoot
		}
		if roots > 1 {
			return ErrMultipleRoots
		}
	}
	return nil
}

// IsRejection reports whether err is a validation or invariant rejection, as
// opposed to a storage failure. Rejections are the client's fault.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrDuplicateNode,
		ErrUnknownParent,
		ErrNoRoot,
		ErrMultipleRoots,
		store.ErrEmptyNodeID,
		store.ErrDetachedParent,
		store.ErrRootDetach,
		store.ErrRootReparent,
		store.ErrSecondRoot,
		store.ErrSelfParent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

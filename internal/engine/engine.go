package engine

import (
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mapgrove/mapgrove/internal/store"
)

// Lifecycle rejections surfaced to callers. The HTTP layer maps these to
// status codes; anything else coming out of the engine is a storage failure.
var (
	ErrMapNotFound   = errors.New("map not found")
	ErrAdminMismatch = errors.New("admin id mismatch")
)

// Engine coordinates map lifecycle on top of the store: creation, authorized
// deletion, full-tree replacement, client view export, and the periodic
// expiry sweep.
type Engine struct {
	DB *store.DB

	// WindowDays is the retention window. A map whose newest change is
	// older than this many calendar days is eligible for deletion.
	WindowDays int

	sweeps singleflight.Group
	locks  mapLocks
	stopCh chan struct{}
}

// New creates an engine backed by db with the given retention window.
func New(db *store.DB, windowDays int) *Engine {
	return &Engine{
		DB:         db,
		WindowDays: windowDays,
		stopCh:     make(chan struct{}),
	}
}

// CreateEmptyMap stores a fresh map holding a single root node and returns
// the stored record alongside its exported view. The record carries the
// adminId and modificationSecret; creation is the only time they leave the
// engine.
func (e *Engine) CreateEmptyMap(root store.Node) (*store.Map, *ClientMap, error) {
	m, _, err := e.DB.CreateMapWithRoot(&root)
	if err != nil {
		return nil, nil, fmt.Errorf("create map: %w", err)
	}
	view, err := e.Export(m.ID)
	if err != nil {
		return nil, nil, err
	}
	return m, view, nil
}

// DeleteMap removes a map and its nodes when adminID matches the one issued
// at creation. Absent maps and mismatched credentials are distinct errors so
// callers can tell gone from forbidden.
func (e *Engine) DeleteMap(mapID, adminID string) error {
	m, err := e.DB.FindMap(mapID)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrMapNotFound
	}
	if m.AdminID != adminID {
		return ErrAdminMismatch
	}
	if _, err := e.DB.DeleteMap(mapID); err != nil {
		return fmt.Errorf("delete map %s: %w", mapID, err)
	}
	return nil
}

// Sweep deletes every map whose newest change predates the retention window,
// measured back from now, and returns the number of maps removed. Concurrent
// callers share a single underlying delete.
func (e *Engine) Sweep(now time.Time) (int, error) {
	v, err, _ := e.sweeps.Do("sweep", func() (any, error) {
		cutoff := now.UTC().AddDate(0, 0, -e.WindowDays).UnixMilli()
		return e.DB.DeleteOutdatedMaps(cutoff)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// StartSweepTimer runs a sweep immediately and then every interval until
// Stop is called.
func (e *Engine) StartSweepTimer(interval time.Duration) {
	e.runSweep(time.Now())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case now := <-ticker.C:
				e.runSweep(now)
			case <-e.stopCh:
				return
			}
		}
	}()
}

func (e *Engine) runSweep(now time.Time) {
	n, err := e.Sweep(now)
	if err != nil {
		log.Printf("sweep error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweep: removed %d expired maps", n)
	}
}

// Stop shuts down the engine's background goroutines.
func (e *Engine) Stop() {
	close(e.stopCh)
}

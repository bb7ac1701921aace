package engine

import "sync"

// mapLocks hands out one mutex per map id so tree replacements on the same
// map run one at a time while different maps proceed in parallel. Entries
// are refcounted and dropped once the last holder releases, keeping the
// table from growing with every map ever touched.
type mapLocks struct {
	mu      sync.Mutex
	entries map[string]*mapLock
}

type mapLock struct {
	mu   sync.Mutex
	refs int
}

func (l *mapLocks) acquire(id string) *mapLock {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[string]*mapLock)
	}
	e := l.entries[id]
	if e == nil {
		e = &mapLock{}
		l.entries[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return e
}

func (l *mapLocks) release(id string, e *mapLock) {
	e.mu.Unlock()

	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, id)
	}
	l.mu.Unlock()
}

package storage

import "sync"

// DepartmentLocks hands out one mutex per department label.
// Hold it across load, duplicate search and save so two submissions to the
// same department cannot overwrite each other's update. It only serializes
// callers inside one process.
type DepartmentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewDepartmentLocks creates an empty lock set
func NewDepartmentLocks() *DepartmentLocks {
	return &DepartmentLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until the department's lock is held and returns its unlock func
func (l *DepartmentLocks) Lock(label string) (unlock func()) {
	l.mu.Lock()
	m, ok := l.locks[label]
	if !ok {
		m = &sync.Mutex{}
		l.locks[label] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

package documents

import "sync"

// lockTable provides non-blocking per-document mutual exclusion. Acquiring a
// held lock fails immediately instead of waiting, so a second extraction on
// the same document is rejected while unrelated documents proceed in parallel.
type lockTable struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// TryAcquire takes the lock for id, reporting false if it is already held.
func (l *lockTable) TryAcquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]struct{})
	}
	if _, ok := l.held[id]; ok {
		return false
	}
	l.held[id] = struct{}{}
	return true
}

// Release frees the lock for id. Releasing an unheld lock is a no-op.
func (l *lockTable) Release(id string) {
	l.mu.Lock()
	delete(l.held, id)
	l.mu.Unlock()
}

// Held reports whether the lock for id is currently taken.
func (l *lockTable) Held(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[id]
	return ok
}

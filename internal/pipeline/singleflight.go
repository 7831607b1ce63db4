package pipeline

import "sync"

// profileLocks serializes crawl runs per profile. Overlapping runs for the
// same profile would race on the crawl cursor and on alert synthesis; runs
// for different profiles stay fully independent.
type profileLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

func newProfileLocks() *profileLocks {
	return &profileLocks{held: make(map[string]bool)}
}

// TryAcquire claims the profile's run slot. It never blocks; a second
// caller for the same profile is rejected instead of queued.
func (l *profileLocks) TryAcquire(profileID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[profileID] {
		return false
	}
	l.held[profileID] = true
	return true
}

func (l *profileLocks) Release(profileID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, profileID)
}

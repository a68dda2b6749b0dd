package service

import "sync"

// pendingStore is the awaiting-rejection-reason state, one entry per
// reviewer. Explicitly owned and mutex-guarded; never package-level.
type pendingStore struct {
	mu     sync.Mutex
	byUser map[int64]string
}

func newPendingStore() *pendingStore {
	return &pendingStore{byUser: make(map[int64]string)}
}

func (p *pendingStore) set(reviewerID int64, recordID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser[reviewerID] = recordID
}

func (p *pendingStore) get(reviewerID int64) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	recordID, ok := p.byUser[reviewerID]
	return recordID, ok
}

func (p *pendingStore) clear(reviewerID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byUser, reviewerID)
}

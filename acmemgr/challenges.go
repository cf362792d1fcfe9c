package acmemgr

import "sync"

// ChallengeSet is the shared pending-challenge table: token → key
// authorization. The order coordinator writes while provisioning; the
// HTTP challenge responder reads while serving provider validation
// requests on a different goroutine. Entries stay available for the
// whole validation window, which is asynchronous and
// provider-initiated.
type ChallengeSet struct {
	mu      sync.RWMutex
	pending map[string]string
}

// NewChallengeSet creates an empty pending-challenge table.
func NewChallengeSet() *ChallengeSet {
	return &ChallengeSet{pending: make(map[string]string)}
}

// Put registers a key authorization under its token.
func (s *ChallengeSet) Put(token, keyAuth string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[token] = keyAuth
}

// Lookup returns the key authorization for token, if pending.
func (s *ChallengeSet) Lookup(token string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keyAuth, ok := s.pending[token]
	return keyAuth, ok
}

// Clear removes all entries. Called unconditionally once order polling
// completes so stale tokens are never servable after validation ends.
func (s *ChallengeSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = make(map[string]string)
}

// Len returns the number of pending challenges.
func (s *ChallengeSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

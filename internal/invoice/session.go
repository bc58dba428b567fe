package invoice

import "sync"

// Sessions is the editor side table: the last value set per record key.
// Keeping it beside the records rather than inside them leaves the record's
// public shape free of editor state. Safe for concurrent use.
type Sessions struct {
	mu     sync.RWMutex
	values map[string]ValueSet
}

// NewSessions returns an empty side table.
func NewSessions() *Sessions {
	return &Sessions{values: make(map[string]ValueSet)}
}

// Get returns a copy of the session for key, or nil if none is open.
func (s *Sessions) Get(key string) *ValueSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil
	}
	c := v.Clone()
	return &c
}

// Put stores a copy of v as the session for key.
func (s *Sessions) Put(key string, v ValueSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = v.Clone()
}

// Delete discards the session for key.
func (s *Sessions) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

package handler

import (
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/kiranshivaraju/qualitylens/internal/orchestrator"
)

// DefaultMaxSessions is used when NewSessions is given a non-positive limit.
const DefaultMaxSessions = 1000

// Sessions keeps one conversation memory per session key. At most
// maxSessions memories are kept; the least recently used one is evicted
// to make room for a new key.
type Sessions struct {
	mu       sync.Mutex
	capacity int
	byKey    *simplelru.LRU[string, *orchestrator.Memory]
}

// NewSessions creates a session table whose memories hold capacity
// exchanges.
func NewSessions(capacity, maxSessions int) *Sessions {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	// NewLRU only fails for a non-positive size.
	byKey, _ := simplelru.NewLRU[string, *orchestrator.Memory](maxSessions, nil)
	return &Sessions{capacity: capacity, byKey: byKey}
}

// Memory returns the memory of key, creating it on first use.
func (s *Sessions) Memory(key string) *orchestrator.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.byKey.Get(key); ok {
		return m
	}
	m := orchestrator.NewMemory(s.capacity)
	s.byKey.Add(key, m)
	return m
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byKey.Len()
}

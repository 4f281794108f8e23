package orchestrator

import "sync"

// DefaultMemoryCapacity is used when NewMemory is given a non-positive size.
const DefaultMemoryCapacity = 5

// Exchange is one remembered (query, answer) pair.
type Exchange struct {
	Query   string
	Summary string
}

// Memory is a bounded conversation history. When full, adding an exchange
// evicts the oldest one. It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	buf   []Exchange
	start int
	size  int
}

// NewMemory creates a Memory holding at most capacity exchanges.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{buf: make([]Exchange, capacity)}
}

// Add records an exchange.
func (m *Memory) Add(query, summary string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := Exchange{Query: query, Summary: summary}
	if m.size < len(m.buf) {
		m.buf[(m.start+m.size)%len(m.buf)] = e
		m.size++
		return
	}
	m.buf[m.start] = e
	m.start = (m.start + 1) % len(m.buf)
}

// Last returns the most recent exchange.
func (m *Memory) Last() (Exchange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.size == 0 {
		return Exchange{}, false
	}
	return m.buf[(m.start+m.size-1)%len(m.buf)], true
}

// Len returns the number of remembered exchanges.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.size
}

// Exchanges returns the history, oldest first.
func (m *Memory) Exchanges() []Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Exchange, m.size)
	for i := range out {
		out[i] = m.buf[(m.start+i)%len(m.buf)]
	}
	return out
}

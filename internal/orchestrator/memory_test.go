package orchestrator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_EvictsOldest(t *testing.T) {
	m := NewMemory(2)
	_, ok := m.Last()
	assert.False(t, ok)

	m.Add("q1", "s1")
	m.Add("q2", "s2")
	m.Add("q3", "s3")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []Exchange{{"q2", "s2"}, {"q3", "s3"}}, m.Exchanges())
	last, ok := m.Last()
	require.True(t, ok)
	assert.Equal(t, "q3", last.Query)
}

func TestMemory_DefaultCapacity(t *testing.T) {
	m := NewMemory(0)
	for i := range 10 {
		m.Add(fmt.Sprint(i), "")
	}
	assert.Equal(t, DefaultMemoryCapacity, m.Len())
	assert.Equal(t, "5", m.Exchanges()[0].Query)
}

func TestMemory_ConcurrentAdd(t *testing.T) {
	m := NewMemory(4)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Add(fmt.Sprint(i), "")
		}()
	}
	wg.Wait()
	assert.Equal(t, 4, m.Len())
}

package identity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Both allocators must produce distinct ids under concurrent submission.
func TestAllocatorsUniqueUnderConcurrency(t *testing.T) {
	t.Parallel()

	allocators := map[string]Allocator{
		"uuid":     UUID{},
		"sequence": &Sequence{},
	}

	for name, alloc := range allocators {
		alloc := alloc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			const n = 1000
			var mu sync.Mutex
			seen := make(map[string]bool, n)

			var wg sync.WaitGroup
			wg.Add(n)
			for i := 0; i < n; i++ {
				go func() {
					defer wg.Done()
					id := string(alloc.NewID())
					mu.Lock()
					seen[id] = true
					mu.Unlock()
				}()
			}
			wg.Wait()

			assert.Len(t, seen, n, "expected %d distinct ids", n)
		})
	}
}

func TestSequenceIsMonotonic(t *testing.T) {
	t.Parallel()

	var s Sequence
	first := s.NewID()
	second := s.NewID()
	assert.Equal(t, "1", string(first))
	assert.Equal(t, "2", string(second))
}

package testutil

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_LowBits(t *testing.T) {
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", ID(1).String())
	assert.Equal(t, "00000000-0000-0000-0000-0000000000ff", ID(255).String())
	assert.Equal(t, uuid.Nil, ID(0))
}

func TestSequentialIDs_StartsAtOne(t *testing.T) {
	ids := NewSequentialIDs(0)

	assert.Equal(t, ID(1), ids.NewID())
	assert.Equal(t, ID(2), ids.NewID())
	assert.Equal(t, ID(3), ids.NewID())
}

func TestSequentialIDs_CustomStart(t *testing.T) {
	ids := NewSequentialIDs(10)
	assert.Equal(t, ID(10), ids.NewID())
	assert.Equal(t, ID(11), ids.NewID())
}

func TestSequentialIDs_Concurrent(t *testing.T) {
	ids := NewSequentialIDs(1)
	const goroutines = 50

	results := make(chan uuid.UUID, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ids.NewID()
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uuid.UUID]bool)
	for id := range results {
		require.False(t, seen[id], "identifier %s generated twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines)
}

func TestFixedIDs_ReturnsInOrder(t *testing.T) {
	a := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	b := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	ids := NewFixedIDs(a, b)

	assert.Equal(t, a, ids.NewID())
	assert.Equal(t, b, ids.NewID())
}

func TestFixedIDs_PanicsWhenExhausted(t *testing.T) {
	ids := NewFixedIDs(ID(1))
	ids.NewID()

	assert.PanicsWithValue(t, "FixedIDs: all identifiers exhausted", func() {
		ids.NewID()
	})
}

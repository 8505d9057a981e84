package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushBelowCapacity(t *testing.T) {
	b := New[int](10)

	for i := 0; i < 5; i++ {
		b.Push(i)
	}

	assert.Equal(t, 5, b.Len())
	assert.Equal(t, 10, b.Cap())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, b.Snapshot())
}

// Inserting capacity+50 entries must retain exactly the newest capacity
// entries with the earliest 50 evicted.
func TestEvictionKeepsNewest(t *testing.T) {
	const capacity = 100
	b := New[int](capacity)

	for i := 0; i < capacity+50; i++ {
		b.Push(i)
	}

	require.Equal(t, capacity, b.Len())

	snap := b.Snapshot()
	assert.Equal(t, 50, snap[0], "oldest 50 entries should be evicted")
	assert.Equal(t, capacity+49, snap[len(snap)-1])

	present := make(map[int]bool, len(snap))
	for _, v := range snap {
		present[v] = true
	}
	for i := 0; i < 50; i++ {
		assert.False(t, present[i], "entry %d should have been evicted", i)
	}
}

func TestAt(t *testing.T) {
	b := New[string](3)
	b.Push("a")
	b.Push("b")
	b.Push("c")
	b.Push("d") // evicts "a"

	assert.Equal(t, "b", b.At(0))
	assert.Equal(t, "d", b.At(2))
	assert.Panics(t, func() { b.At(3) })
}

func TestDropWhile(t *testing.T) {
	b := New[int](10)
	for i := 0; i < 8; i++ {
		b.Push(i)
	}

	dropped := b.DropWhile(func(v int) bool { return v < 5 })

	assert.Equal(t, 5, dropped)
	assert.Equal(t, []int{5, 6, 7}, b.Snapshot())

	// Pushing after a trim still wraps correctly.
	for i := 8; i < 16; i++ {
		b.Push(i)
	}
	assert.Equal(t, 10, b.Len())
	assert.Equal(t, 6, b.At(0))
}

func TestDropWhileAll(t *testing.T) {
	b := New[int](4)
	b.Push(1)
	b.Push(2)

	dropped := b.DropWhile(func(int) bool { return true })

	assert.Equal(t, 2, dropped)
	assert.Equal(t, 0, b.Len())
}

func TestClear(t *testing.T) {
	b := New[int](4)
	b.Push(1)
	b.Push(2)
	b.Clear()

	assert.Equal(t, 0, b.Len())
	b.Push(9)
	assert.Equal(t, []int{9}, b.Snapshot())
}

func TestCapacityOfOne(t *testing.T) {
	b := New[int](1)
	b.Push(1)
	b.Push(2)

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, 2, b.At(0))
}

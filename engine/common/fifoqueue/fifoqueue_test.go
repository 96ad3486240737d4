package fifoqueue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFifoQueue_Order checks that elements are popped in the order they were pushed.
func TestFifoQueue_Order(t *testing.T) {
	queue, err := NewFifoQueue[int]()
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		require.True(t, queue.Push(i))
	}
	require.Equal(t, 100, queue.Len())

	head, ok := queue.Front()
	require.True(t, ok)
	require.Equal(t, 0, head)

	for i := 0; i < 100; i++ {
		element, ok := queue.Pop()
		require.True(t, ok)
		require.Equal(t, i, element)
	}

	_, ok = queue.Pop()
	require.False(t, ok)
	_, ok = queue.Front()
	require.False(t, ok)
}

// TestFifoQueue_Capacity checks that elements beyond the capacity are rejected
// and accepted again once there is room.
func TestFifoQueue_Capacity(t *testing.T) {
	queue, err := NewFifoQueue[string](WithCapacity(2))
	require.NoError(t, err)
	assert.Equal(t, 2, queue.Capacity())

	assert.True(t, queue.Push("a"))
	assert.True(t, queue.Push("b"))
	assert.False(t, queue.Push("c"))
	assert.Equal(t, 2, queue.Len())

	element, ok := queue.Pop()
	require.True(t, ok)
	assert.Equal(t, "a", element)
	assert.True(t, queue.Push("c"))
}

func TestFifoQueue_InvalidOptions(t *testing.T) {
	_, err := NewFifoQueue[int](WithCapacity(0))
	assert.Error(t, err)

	_, err = NewFifoQueue[int](WithLengthObserver(nil))
	assert.Error(t, err)
}

// TestFifoQueue_LengthObserver checks that the observer sees every length change.
func TestFifoQueue_LengthObserver(t *testing.T) {
	var lengths []int
	queue, err := NewFifoQueue[int](WithCapacity(2), WithLengthObserver(func(l int) { lengths = append(lengths, l) }))
	require.NoError(t, err)

	queue.Push(1)
	queue.Push(2)
	queue.Push(3) // rejected, no change
	queue.Pop()
	queue.Pop()
	queue.Pop() // empty, no change

	assert.Equal(t, []int{1, 2, 1, 0}, lengths)
}

// TestFifoQueue_Concurrent pushes from many goroutines and checks nothing is lost.
func TestFifoQueue_Concurrent(t *testing.T) {
	queue, err := NewFifoQueue[int]()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				queue.Push(j)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1000, queue.Len())
}

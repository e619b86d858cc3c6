package match

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestQueue_FirstEnqueueWaits(t *testing.T) {
	q := NewQueue()
	res := q.Enqueue(101)
	assert.False(t, res.Paired)
	assert.Equal(t, int64(101), q.Waiting())
}

func TestQueue_SecondEnqueuePairs(t *testing.T) {
	q := NewQueue()
	_ = q.Enqueue(101)

	res := q.Enqueue(202)
	assert.True(t, res.Paired)
	assert.Equal(t, int64(101), res.Opponent)
	assert.Equal(t, NoneWaiting, q.Waiting(), "pairing must clear the slot")
}

func TestQueue_ThirdEnqueueStartsFreshCycle(t *testing.T) {
	q := NewQueue()
	_ = q.Enqueue(101)
	_ = q.Enqueue(202)

	res := q.Enqueue(303)
	assert.False(t, res.Paired)
	assert.Equal(t, int64(303), q.Waiting())
}

func TestQueue_SelfEnqueueDoesNotPair(t *testing.T) {
	q := NewQueue()
	_ = q.Enqueue(101)

	res := q.Enqueue(101)
	assert.False(t, res.Paired, "a connection must never pair with itself")
	assert.Equal(t, int64(101), q.Waiting())
}

func TestQueue_Remove(t *testing.T) {
	q := NewQueue()
	_ = q.Enqueue(101)

	assert.True(t, q.Remove(101))
	assert.Equal(t, NoneWaiting, q.Waiting())

	assert.False(t, q.Remove(101))
	assert.False(t, q.Remove(999))
}

func TestQueue_ConcurrentEnqueue(t *testing.T) {
	q := NewQueue()
	const n = 100

	var mu sync.Mutex
	pairs := 0

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if q.Enqueue(int64(i + 1)).Paired {
				mu.Lock()
				pairs++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// n distinct ids produce exactly n/2 pairs and an empty slot.
	assert.Equal(t, n/2, pairs)
	assert.Equal(t, NoneWaiting, q.Waiting())
}

// Property: after any sequence of enqueues of distinct ids, every pairing
// returns the most recently waiting id and the slot alternates between
// occupied and empty.
func TestPropertyQueueAlternates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		q := NewQueue()
		numOps := rapid.IntRange(1, 40).Draw(t, "num_ops")

		waiting := NoneWaiting
		for i := 0; i < numOps; i++ {
			id := int64(i + 1)
			res := q.Enqueue(id)
			if waiting == NoneWaiting {
				if res.Paired {
					t.Fatalf("enqueue into empty slot must not pair")
				}
				waiting = id
			} else {
				if !res.Paired {
					t.Fatalf("enqueue into occupied slot must pair")
				}
				if res.Opponent != waiting {
					t.Fatalf("paired with %d, want %d", res.Opponent, waiting)
				}
				waiting = NoneWaiting
			}
			if q.Waiting() != waiting {
				t.Fatalf("slot is %d, want %d", q.Waiting(), waiting)
			}
		}
	})
}

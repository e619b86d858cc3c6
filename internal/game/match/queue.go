// Package match provides the single-slot matchmaking queue that pairs two
// waiting connections into a game room.
package match

import "sync"

// NoneWaiting is the sentinel slot value meaning no connection is queued.
const NoneWaiting int64 = -1

// Result describes the outcome of an Enqueue call.
type Result struct {
	// Paired is true when the enqueue completed a pair.
	Paired bool
	// Opponent is the previously waiting connection id when Paired is true.
	Opponent int64
}

// Queue holds at most one waiting connection id. All methods are safe for
// concurrent use.
type Queue struct {
	mu      sync.Mutex
	waiting int64
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{waiting: NoneWaiting}
}

// Enqueue offers a connection for pairing.
//
// Postcondition: If the slot was empty, id now waits and the result is not
// Paired. If a different id was waiting, the slot is cleared and the result
// carries that id as the opponent. Enqueuing the id that is already waiting
// is a no-op: a connection never pairs with itself.
func (q *Queue) Enqueue(id int64) Result {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting == NoneWaiting || q.waiting == id {
		q.waiting = id
		return Result{}
	}

	opponent := q.waiting
	q.waiting = NoneWaiting
	return Result{Paired: true, Opponent: opponent}
}

// Remove clears the slot if the given id is the one waiting.
//
// Postcondition: Returns true if id was waiting and has been removed.
func (q *Queue) Remove(id int64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.waiting != id {
		return false
	}
	q.waiting = NoneWaiting
	return true
}

// Waiting returns the currently queued connection id, or NoneWaiting.
func (q *Queue) Waiting() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.waiting
}

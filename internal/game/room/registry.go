// Package room tracks active two-player game rooms and resolves a connection
// id to the room it occupies.
package room

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNoRoom is returned when a connection id resolves to no active room.
var ErrNoRoom = errors.New("no room for player")

// ErrNotInRoom is returned when an opponent lookup is made for a connection
// id that is in neither slot of the given room.
var ErrNotInRoom = errors.New("player not in room")

// Room pairs exactly two connection ids for one match.
type Room struct {
	// ID uniquely identifies the room for logging and diagnostics.
	ID uuid.UUID
	// PlayerA is the connection id that was waiting in the queue.
	PlayerA int64
	// PlayerB is the connection id whose enqueue completed the pair.
	PlayerB int64
}

// Opponent returns the other player's connection id.
//
// Postcondition: Returns the opposing slot, or ErrNotInRoom if id matches
// neither slot. The result is never a guessed substitute.
func (r *Room) Opponent(id int64) (int64, error) {
	switch id {
	case r.PlayerA:
		return r.PlayerB, nil
	case r.PlayerB:
		return r.PlayerA, nil
	}
	return 0, fmt.Errorf("%w: connection %d not in room %s", ErrNotInRoom, id, r.ID)
}

// Registry tracks all active rooms, indexed by the connection ids that occupy
// them. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	byPlayer map[int64]*Room
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byPlayer: make(map[int64]*Room)}
}

// Create allocates a room for the two connection ids in the order given.
//
// Precondition: a and b must be distinct live connection ids.
// Postcondition: Both ids resolve to the returned room via FindByPlayer.
func (g *Registry) Create(a, b int64) *Room {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := &Room{ID: uuid.New(), PlayerA: a, PlayerB: b}
	g.byPlayer[a] = r
	g.byPlayer[b] = r
	return r
}

// FindByPlayer resolves a connection id to its active room.
//
// Postcondition: Returns the room, or ErrNoRoom if id occupies none.
func (g *Registry) FindByPlayer(id int64) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.byPlayer[id]
	if !ok {
		return nil, fmt.Errorf("%w: connection %d", ErrNoRoom, id)
	}
	return r, nil
}

// RemoveByPlayer evicts the room occupied by the given connection id.
//
// Postcondition: Returns the evicted room and true, or nil and false if the
// id occupied no room. After eviction neither participant resolves to it.
// A slot that has since been reassigned to a different room is left intact.
func (g *Registry) RemoveByPlayer(id int64) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byPlayer[id]
	if !ok {
		return nil, false
	}
	if g.byPlayer[r.PlayerA] == r {
		delete(g.byPlayer, r.PlayerA)
	}
	if g.byPlayer[r.PlayerB] == r {
		delete(g.byPlayer, r.PlayerB)
	}
	return r, true
}

// Count returns the number of active rooms.
func (g *Registry) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[uuid.UUID]bool, len(g.byPlayer))
	for _, r := range g.byPlayer {
		seen[r.ID] = true
	}
	return len(seen)
}

// Package matchmaking holds the quick-play FIFO queue and the table of
// in-flight session creations that may still be cancelled.
package matchmaking

import (
	"slices"
	"sync"
)

// Queue is a strict FIFO of players waiting for a quick pairing.
// A player appears at most once. All methods are safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	waiting []string
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends player to the tail.
//
// Postcondition: Returns false and leaves the queue unchanged if player is already waiting.
func (q *Queue) Enqueue(player string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if slices.Contains(q.waiting, player) {
		return false
	}
	q.waiting = append(q.waiting, player)
	return true
}

// Pop removes and returns the head.
//
// Postcondition: Returns ("", false) when the queue is empty.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.waiting) == 0 {
		return "", false
	}
	head := q.waiting[0]
	q.waiting = slices.Delete(q.waiting, 0, 1)
	return head, true
}

// Remove drops player from wherever it waits and reports whether it was present.
func (q *Queue) Remove(player string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := slices.Index(q.waiting, player)
	if i < 0 {
		return false
	}
	q.waiting = slices.Delete(q.waiting, i, i+1)
	return true
}

// Contains reports whether player is waiting.
func (q *Queue) Contains(player string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Contains(q.waiting, player)
}

// Len returns the number of waiting players.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

// Snapshot returns the waiting players head first.
func (q *Queue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.waiting)
}

package matchmaking

import "sync"

// PendingTable maps a player to the session they created and may still cancel.
// A player holds at most one entry; recording a second creation replaces the first.
// All methods are safe for concurrent use.
type PendingTable struct {
	mu      sync.Mutex
	byOwner map[string]string
}

// NewPendingTable creates an empty PendingTable.
func NewPendingTable() *PendingTable {
	return &PendingTable{byOwner: make(map[string]string)}
}

// Record remembers that owner created sessionID.
func (p *PendingTable) Record(owner, sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byOwner[owner] = sessionID
}

// Lookup returns the session owner is creating.
//
// Postcondition: Returns ("", false) when owner has no pending creation.
func (p *PendingTable) Lookup(owner string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id, ok := p.byOwner[owner]
	return id, ok
}

// Clear drops owner's entry and reports whether one existed.
func (p *PendingTable) Clear(owner string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.byOwner[owner]
	delete(p.byOwner, owner)
	return ok
}

// ClearSession drops every entry pointing at sessionID.
func (p *PendingTable) ClearSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for owner, id := range p.byOwner {
		if id == sessionID {
			delete(p.byOwner, owner)
		}
	}
}

// Len returns the number of pending creations.
func (p *PendingTable) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byOwner)
}

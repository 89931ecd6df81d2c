package protocol

import (
	"sync"

	"github.com/Tyrowin/roomrelay/internal/rooms"
)

// Table maps connection handles to their live participant.
type Table struct {
	mu     sync.RWMutex
	byConn map[string]*rooms.Participant
}

func NewTable() *Table {
	return &Table{byConn: make(map[string]*rooms.Participant)}
}

// Add registers p for connID. It reports false when the connection already
// has a participant.
func (t *Table) Add(connID string, p *rooms.Participant) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byConn[connID]; exists {
		return false
	}
	t.byConn[connID] = p
	return true
}

func (t *Table) Lookup(connID string) (*rooms.Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.byConn[connID]
	return p, ok
}

// Remove takes the participant out of the table. Only one of several
// concurrent callers gets it back, which makes teardown run once.
func (t *Table) Remove(connID string) (*rooms.Participant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.byConn[connID]
	if ok {
		delete(t.byConn, connID)
	}
	return p, ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.byConn)
}

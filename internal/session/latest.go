package session

import "sync"

// Ticket identifies one issued request for a view.
type Ticket struct {
	seq uint64
	Key string
}

// Latest lets only the most recently issued request apply its result.
// Older results that finish late are dropped instead of overwriting fresher state.
type Latest struct {
	mu  sync.Mutex
	seq uint64
	key string
}

// Begin issues a ticket for key and supersedes every earlier ticket.
func (l *Latest) Begin(key string) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	l.key = key
	return Ticket{seq: l.seq, Key: key}
}

// Commit runs apply only if t is still the latest ticket. It reports whether apply ran.
func (l *Latest) Commit(t Ticket, apply func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.seq != l.seq || t.Key != l.key {
		return false
	}
	apply()
	return true
}

func (l *Latest) Current() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.key
}

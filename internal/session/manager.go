package session

import (
	"sync"
	"time"

	"github.com/fjod/go_storefront/internal/cart"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTTL is how long an idle session lives before it ends.
	DefaultTTL = 30 * time.Minute

	// CleanupInterval is how often the background cleanup runs
	CleanupInterval = 30 * time.Second
)

// SubscriberFactory builds the cart subscriber attached to a new session.
type SubscriberFactory func(sessionID string) cart.Subscriber

type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Subscribers     SubscriberFactory
	Logger          *zap.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Manager keeps the live sessions in memory.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl         time.Duration
	interval    time.Duration
	subscribers SubscriberFactory
	log         *zap.Logger
	now         func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewManager(opts Options) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = CleanupInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Manager{
		sessions:    make(map[string]*Session),
		ttl:         opts.TTL,
		interval:    opts.CleanupInterval,
		subscribers: opts.Subscribers,
		log:         opts.Logger,
		now:         opts.Now,
		stopCleanup: make(chan struct{}),
	}
}

// Start runs the background expiry loop until Close is called.
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.cleanupLoop()
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	s.touch(m.now())
	return s, true
}

// GetOrCreate returns the session for id, or a new one under a fresh id when id is unknown.
// The boolean reports whether a session was created.
func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := m.Get(id); ok {
			return s, false
		}
	}

	s := newSession(uuid.NewString(), m.now())
	if m.subscribers != nil {
		if sub := m.subscribers(s.ID); sub != nil {
			s.detach = s.Cart.Subscribe(sub)
		}
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.log.Debug("session started", zap.String("session_id", s.ID))
	return s, true
}

// End destroys the session and its cart. Unknown ids are ignored.
func (m *Manager) End(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return false
	}

	s.end()
	m.log.Debug("session ended", zap.String("session_id", id))
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// cleanupLoop periodically ends idle sessions
func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireSessions()
		case <-m.stopCleanup:
			return
		}
	}
}

// expireSessions ends every session idle for longer than the TTL
func (m *Manager) expireSessions() int {
	now := m.now()

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.end()
	}
	if len(expired) > 0 {
		m.log.Info("expired idle sessions", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// Close stops the background cleanup and waits for it to finish
func (m *Manager) Close() error {
	m.stopOnce.Do(func() { close(m.stopCleanup) })
	m.wg.Wait()
	return nil
}

package session

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryOption configures the in-memory store.
type MemoryOption func(*MemoryStore)

// WithCleanupInterval sets how often expired sessions are evicted.
// Zero disables the background janitor.
// Default: 1 minute.
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(m *MemoryStore) {
		m.cleanupInterval = d
	}
}

// WithMaxSessions caps the number of stored sessions.
// When the cap is reached the least recently used session is evicted.
// Zero means unlimited.
func WithMaxSessions(n int) MemoryOption {
	return func(m *MemoryStore) {
		m.maxSessions = n
	}
}

// MemoryStore is the process-wide session table.
// Entries are kept in LRU order; the most recently used session sits at the
// front of the list.
type MemoryStore struct {
	items           map[string]*list.Element
	order           *list.List
	done            chan struct{}
	cleanupInterval time.Duration
	maxSessions     int
	mu              sync.Mutex
	closed          bool
}

// NewMemoryStore creates an in-memory session store.
//
// Example:
//
//	store := session.NewMemoryStore(
//	    session.WithCleanupInterval(time.Minute),
//	    session.WithMaxSessions(10000),
//	)
//	defer store.Close()
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		items:           make(map[string]*list.Element),
		order:           list.New(),
		done:            make(chan struct{}),
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	m.put(s.Token, s.Clone())
	return nil
}

func (m *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[token]
	if !ok {
		return nil, ErrNotFound
	}

	sess := elem.Value.(*Session)
	if sess.IsExpired() {
		m.remove(elem)
		return nil, ErrExpired
	}

	m.order.MoveToFront(elem)
	return sess.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, s *Session) error {
	if s == nil || s.Token == "" {
		return ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	// The stored copy lives under the previous token until the rotation
	// lands. If it is gone, the session was deleted and stays deleted.
	key := s.Token
	if prev := s.PreviousToken(); prev != "" {
		key = prev
	}
	elem, ok := m.items[key]
	if !ok {
		return ErrNotFound
	}
	if key != s.Token {
		m.remove(elem)
	}

	m.put(s.Token, s.Clone())
	s.ClearPreviousToken()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if elem, ok := m.items[token]; ok {
		m.remove(elem)
	}
	return nil
}

func (m *MemoryStore) Touch(_ context.Context, token string, lastActiveAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[token]
	if !ok {
		return ErrNotFound
	}

	elem.Value.(*Session).LastActiveAt = lastActiveAt
	m.order.MoveToFront(elem)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. Close is idempotent.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	return nil
}

// put inserts or replaces an entry. Caller must hold the mutex.
func (m *MemoryStore) put(token string, s *Session) {
	if elem, ok := m.items[token]; ok {
		elem.Value = s
		m.order.MoveToFront(elem)
		return
	}

	if m.maxSessions > 0 && len(m.items) >= m.maxSessions {
		if oldest := m.order.Back(); oldest != nil {
			m.remove(oldest)
		}
	}

	m.items[token] = m.order.PushFront(s)
}

// remove drops an entry. Caller must hold the mutex.
func (m *MemoryStore) remove(elem *list.Element) {
	sess := elem.Value.(*Session)
	delete(m.items, sess.Token)
	m.order.Remove(elem)
}

func (m *MemoryStore) janitor() {
	ticker := time.NewTicker(m.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *MemoryStore) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for elem := m.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*Session).ExpiresAt) {
			m.remove(elem)
		}
		elem = prev
	}
}

var _ Store = (*MemoryStore)(nil)

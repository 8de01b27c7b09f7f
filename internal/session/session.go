// Package session keeps one dataset per browser session in memory.
//
// Sessions are identified by a uuid stored in a cookie. The store is a plain
// mutex-guarded map; a background sweeper evicts sessions idle longer than
// the TTL so abandoned uploads do not accumulate.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"datascope/internal/dataset"
)

// CookieName is the session cookie the HTTP layer reads and sets.
const CookieName = "datascope_session"

// DefaultTTL is how long an idle session survives before eviction.
const DefaultTTL = 30 * time.Minute

// Session holds the per-user working state. A new upload replaces the
// dataset wholesale; there is no undo or versioning.
//
// The dataset itself is not safe for concurrent use, so callers hold the
// session lock around any access to Dataset. The HTTP layer keeps it for
// the duration of each request, serializing requests per session.
type Session struct {
	ID       string
	Dataset  *dataset.Dataset
	lastSeen time.Time

	mu sync.Mutex
}

// Lock serializes access to the session's dataset.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session lock.
func (s *Session) Unlock() { s.mu.Unlock() }

// Store is a TTL-bounded in-memory session map. Safe for concurrent use.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewStore creates a store and starts its background sweeper.
//
// Edge cases:
//   - ttl <= 0 falls back to DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Close stops the sweeper. Call once at shutdown.
func (s *Store) Close() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *Store) sweep() {
	defer close(s.doneCh)

	// Sweeping at a quarter of the TTL keeps eviction latency bounded
	// without waking up constantly.
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			s.evictIdle()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) evictIdle() {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
		}
	}
}

// Get returns the session for id and refreshes its idle timer.
// Returns false for unknown or already-evicted ids.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

// Create allocates a new session with a fresh uuid.
func (s *Store) Create() *Session {
	sess := &Session{
		ID:       uuid.NewString(),
		lastSeen: s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// GetOrCreate returns the session for id, or a new one when id is empty or
// unknown. The second return reports whether a new session was created, so
// the HTTP layer knows to set the cookie.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	return s.Create(), true
}

// SetDataset replaces the session's dataset. Any previous dataset is
// dropped; callers should treat uploads as destructive.
func (s *Store) SetDataset(id string, ds *dataset.Dataset) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return false
	}
	sess.Dataset = ds
	sess.lastSeen = s.now()
	return true
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

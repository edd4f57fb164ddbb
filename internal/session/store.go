package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snarg/eras-engine/internal/eras"
)

// DefaultTTL is how long an idle session is kept before the sweeper
// reclaims it.
const DefaultTTL = 1 * time.Hour

const sweepInterval = 5 * time.Minute

// Store is the process's only shared mutable state: a map of session id
// to session, guarded by a single lock per operation, plus a background
// sweeper that evicts sessions idle past the TTL.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	log      zerolog.Logger

	stop chan struct{}
	done chan struct{}
}

// NewStore creates an empty session store. Call Run to start the TTL
// sweeper; call Stop to halt it.
func NewStore(ttl time.Duration, log zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		log:      log.With().Str("component", "session.store").Logger(),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Create registers a new session with a fresh opaque id and the given
// parsed events, and returns it.
func (s *Store) Create(events []eras.Event) *Session {
	id := uuid.NewString()
	sess := New(id, events, time.Now())

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	return sess
}

// Get returns a snapshot of the session, touching its last-accessed
// time so it survives the next sweep.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	sess.LastAccessed = time.Now()
	return sess.clone(), nil
}

// Mutate applies fn to the stored session under the store lock and
// returns the updated snapshot. fn runs synchronously; it must not block
// or call back into the store.
func (s *Store) Mutate(id string, fn func(sess *Session)) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	fn(sess)
	sess.LastAccessed = time.Now()
	return sess.clone(), nil
}

// UpdateProgress compare-and-sets the session's progress. A transition
// into StageError is always accepted, since error is a valid terminal
// state from any stage. Otherwise the update is dropped (not an error)
// if it would move percent backwards, so a slow or re-ordered progress
// report from the pipeline worker can never regress what readers see.
func (s *Store) UpdateProgress(id string, stage Stage, percent int, message string) error {
	_, err := s.Mutate(id, func(sess *Session) {
		if stage != StageError && percent < sess.Progress.Percent {
			return
		}
		sess.Progress = Progress{Stage: stage, Percent: percent, Message: message}
	})
	return err
}

// Delete removes a session immediately. Neither the HTTP handlers nor the
// TTL sweeper call it; the sweeper removes expired entries itself.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()
	return n
}

// Run starts the TTL sweeper loop. It blocks until Stop is called, so
// callers run it in its own goroutine.
func (s *Store) Run() {
	defer close(s.done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// Stop halts the sweeper loop and waits for it to exit.
func (s *Store) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var expired []string
	for id, sess := range s.sessions {
		if sess.LastAccessed.Before(cutoff) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if len(expired) > 0 {
		s.log.Info().Int("expired", len(expired)).Msg("swept idle sessions")
	}
}

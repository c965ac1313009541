package assessment

import (
	"errors"
	"sync"
	"time"

	"github.com/interna-ai/assessment-service/internal/model"
	"github.com/interna-ai/assessment-service/internal/utils"
)

// retention is how long a session stays addressable after its deadline so
// the candidate can still fetch a result. After that the janitor drops it.
const retention = 30 * time.Minute

// ErrNoQuestions is returned when an offering has no question bank.
var ErrNoQuestions = errors.New("offering has no assessment questions")

// Store keeps in-flight sessions in memory. Sessions are deliberately not
// durable: closing the tab abandons the exam and a restart begins a fresh
// one, so process-local state is the honest representation. A janitor
// goroutine sweeps sessions that outlived their deadline plus retention.
type Store struct {
	cfg Config

	mu       sync.RWMutex
	sessions map[string]*Session

	stop chan struct{}
	once sync.Once

	now func() time.Time // overridable in tests
}

// NewStore creates a Store and starts its janitor.
func NewStore(cfg Config) *Store {
	s := &Store{
		cfg:      cfg,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
		now:      time.Now,
	}
	go s.janitor()
	return s
}

// Create builds a new session over the given question set and registers it
// under a random id.
func (s *Store) Create(offeringID string, userID *uint64, questions []model.Question) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	id, err := utils.RandomHex(16)
	if err != nil {
		return nil, err
	}
	sess := newSession(id, offeringID, userID, questions, s.cfg, s.now)

	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()
	return sess, nil
}

// Get returns the session with the given id, if it is still retained.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Close stops the janitor. Safe to call more than once.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) janitor() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-t.C:
			s.sweep()
		}
	}
}

// sweep settles timers on overdue sessions and drops the ones past
// retention. Settling here means a timed-out session reaches FINISHED even
// if the client never touches it again.
func (s *Store) sweep() {
	cutoff := s.now().Add(-retention)
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.mu.Lock()
		sess.settleTimerLocked()
		expired := sess.deadline.Before(cutoff)
		sess.mu.Unlock()
		if expired {
			delete(s.sessions, id)
		}
	}
}

package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nekogravitycat/stay-search-backend/internal/listing"
)

// State is the visible state of a search session.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateSettled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateSettled:
		return "settled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Searcher is the part of Service a session drives.
type Searcher interface {
	Search(ctx context.Context, f FilterSet, domain listing.Domain) (*ResultSet, error)
}

// Snapshot is a consistent copy of a session's visible state.
type Snapshot struct {
	ID string
	// Seq is the sequence number of the most recently started search.
	Seq   uint64
	State State
	// Pending is true while a scheduled search waits out the debounce window.
	Pending bool
	// Result is the last committed result; it survives later failures.
	Result    *ResultSet
	ResultSeq uint64
	Err       error
	UpdatedAt time.Time
}

// Session runs searches for one client and commits only the result of the
// most recently started one, whatever order they complete in.
type Session struct {
	ID string

	searcher Searcher
	debounce time.Duration
	logger   *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	seq       uint64
	state     State
	result    *ResultSet
	resultSeq uint64
	err       error
	timer     *time.Timer
	timerGen  uint64
	pending   bool
	closed    bool
	updatedAt time.Time
	lastUsed  time.Time
}

func NewSession(id string, searcher Searcher, debounce time.Duration, logger *logrus.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	return &Session{
		ID:        id,
		searcher:  searcher,
		debounce:  debounce,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		updatedAt: now,
		lastUsed:  now,
	}
}

// Run searches immediately. If a newer search started before this one
// finished, the outcome is discarded and ErrStaleResult is returned.
// A failed search leaves the previous result visible.
func (s *Session) Run(ctx context.Context, f FilterSet, domain listing.Domain) (*ResultSet, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionNotFound
	}
	s.seq++
	seq := s.seq
	s.state = StateSearching
	s.touch()
	s.mu.Unlock()

	rs, err := s.searcher.Search(ctx, f, domain)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq || s.closed {
		return nil, ErrStaleResult
	}
	s.updatedAt = time.Now()
	if err != nil {
		s.state = StateFailed
		s.err = err
		return nil, err
	}
	s.state = StateSettled
	s.result = rs
	s.resultSeq = seq
	s.err = nil
	return rs, nil
}

// Schedule validates f and runs it once the debounce window passes without
// another call. Validation errors are returned at once and nothing is scheduled.
func (s *Session) Schedule(f FilterSet, domain listing.Domain) error {
	if !domain.Valid() {
		return ErrInvalidDomain
	}
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionNotFound
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerGen++
	gen := s.timerGen
	s.pending = true
	s.touch()
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(gen, f, domain) })
	return nil
}

func (s *Session) fire(gen uint64, f FilterSet, domain listing.Domain) {
	s.mu.Lock()
	// A later Schedule or Close supersedes this timer.
	if gen != s.timerGen || s.closed {
		s.mu.Unlock()
		return
	}
	s.pending = false
	s.timer = nil
	s.mu.Unlock()

	_, err := s.Run(s.ctx, f, domain)
	switch {
	case err == nil:
	case errors.Is(err, ErrStaleResult), errors.Is(err, context.Canceled):
		s.logger.WithField("session", s.ID).Debug("scheduled search discarded")
	default:
		s.logger.WithError(err).WithField("session", s.ID).Warn("scheduled search failed")
	}
}

// Snapshot returns the current visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return Snapshot{
		ID:        s.ID,
		Seq:       s.seq,
		State:     s.state,
		Pending:   s.pending,
		Result:    s.result,
		ResultSeq: s.resultSeq,
		Err:       s.err,
		UpdatedAt: s.updatedAt,
	}
}

// Close cancels any pending or in-flight scheduled search.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pending = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cancel()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// touch must be called with mu held.
func (s *Session) touch() {
	s.lastUsed = time.Now()
}

// Registry keeps sessions by ID and evicts idle ones. It holds at most
// maxSessions at once; zero means no limit.
type Registry struct {
	searcher    Searcher
	debounce    time.Duration
	ttl         time.Duration
	maxSessions int
	logger      *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(searcher Searcher, debounce, ttl time.Duration, maxSessions int, logger *logrus.Logger) *Registry {
	return &Registry{
		searcher:    searcher,
		debounce:    debounce,
		ttl:         ttl,
		maxSessions: maxSessions,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// Create opens a new session. A full registry first evicts sessions idle past
// the TTL and returns ErrTooManySessions when that frees nothing.
func (r *Registry) Create() (*Session, error) {
	if r.full() {
		r.Sweep(time.Now())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxSessions > 0 && len(r.sessions) >= r.maxSessions {
		r.logger.WithField("limit", r.maxSessions).Warn("search session limit reached")
		return nil, ErrTooManySessions
	}
	s := NewSession(uuid.NewString(), r.searcher, r.debounce, r.logger)
	r.sessions[s.ID] = s
	return s, nil
}

func (r *Registry) full() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxSessions > 0 && len(r.sessions) >= r.maxSessions
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes and removes sessions unused since now minus the TTL.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		r.logger.WithField("count", len(expired)).Debug("evicted idle search sessions")
	}
	return len(expired)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

func (r *Registry) closeAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

package resolver

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	da "github.com/lintang-b-s/minimap/pkg/datastructure"
	"github.com/lintang-b-s/minimap/pkg/util"
)

// Session holds one pending disambiguation: both endpoints of a route request, at least one
// of them with several candidates.
type Session struct {
	Token     string
	Start     *da.PlaceQuery
	End       *da.PlaceQuery
	Strategy  da.Strategy
	Failures  int
	ExpiresAt time.Time
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Start = clonePlaceQuery(s.Start)
	cp.End = clonePlaceQuery(s.End)
	return &cp
}

func clonePlaceQuery(pq *da.PlaceQuery) *da.PlaceQuery {
	cp := *pq
	cp.Candidates = append([]da.CandidateLocation(nil), pq.Candidates...)
	return &cp
}

// SelectionError is returned by Choose while the retry budget is not used up. Session is a
// snapshot the caller can re-prompt with.
type SelectionError struct {
	Session   *Session
	Remaining int
	err       error
}

func (e *SelectionError) Error() string {
	return e.err.Error()
}

func (e *SelectionError) Unwrap() error {
	return e.err
}

// Sessions is the in-process store of pending disambiguations. safe for concurrent use.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	budget   int
	now      func() time.Time
}

func NewSessions(ttl time.Duration, budget int) *Sessions {
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		budget:   budget,
		now:      time.Now,
	}
}

// Begin stores the pending queries and returns a snapshot carrying the session token.
// single-candidate queries are resolved on the spot.
func (s *Sessions) Begin(start, end *da.PlaceQuery, strategy da.Strategy) *Session {
	for _, pq := range []*da.PlaceQuery{start, end} {
		if len(pq.Candidates) == 1 {
			pq.Selected = 0
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()

	sess := &Session{
		Token:     uuid.NewString(),
		Start:     clonePlaceQuery(start),
		End:       clonePlaceQuery(end),
		Strategy:  strategy,
		ExpiresAt: s.now().Add(s.ttl),
	}
	s.sessions[sess.Token] = sess
	return sess.clone()
}

// Choose applies 1-based selections to a pending session. an empty choice keeps an endpoint that is
// already resolved. every failed attempt consumes one unit of the retry budget, the session is
// dropped once the budget is gone or after a successful choice.
func (s *Sessions) Choose(token, startChoice, endChoice string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || !s.now().Before(sess.ExpiresAt) {
		delete(s.sessions, token)
		return nil, util.WrapErrorf(da.ErrInvalidSelection, util.ErrBadParamInput,
			"unknown or expired session token, start a new search")
	}

	errStart := choose(sess.Start, startChoice)
	errEnd := choose(sess.End, endChoice)
	if err := errors.Join(errStart, errEnd); err != nil {
		sess.Failures++
		if sess.Failures >= s.budget {
			delete(s.sessions, token)
			return nil, util.WrapErrorf(da.ErrSelectionExhausted, util.ErrBadParamInput,
				"%v: no attempts left, start a new search", err)
		}
		return nil, &SelectionError{
			Session:   sess.clone(),
			Remaining: s.budget - sess.Failures,
			err:       util.WrapErrorf(da.ErrInvalidSelection, util.ErrUnprocessable, "%v", err),
		}
	}

	delete(s.sessions, token)
	return sess, nil
}

func choose(pq *da.PlaceQuery, choice string) error {
	if strings.TrimSpace(choice) == "" {
		if pq.IsResolved() {
			return nil
		}
		return util.WrapErrorf(da.ErrInvalidSelection, util.ErrUnprocessable,
			"a selection is required for %q", pq.Query)
	}

	idx, err := selectIndex(len(pq.Candidates), choice)
	if err != nil {
		return util.WrapErrorf(da.ErrInvalidSelection, util.ErrUnprocessable, "%q: %v", pq.Query, err)
	}
	pq.Selected = idx
	return nil
}

// Len is the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	return len(s.sessions)
}

func (s *Sessions) pruneLocked() {
	now := s.now()
	for token, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Package session keeps the per-browser view state. A view is identified by a
// cookie; it owns at most one mounted patient detail controller, mirroring a
// single page application that shows one patient at a time.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/ui/patientdetail"
)

const (
	CookieName = "patientor_view"
	contextKey = "view_session"
)

// ControllerFactory builds the detail controller of a view publishing to the
// given topic id.
type ControllerFactory func(topicID string) *patientdetail.Controller

// Session is one browser view. ID is the cookie value and never leaves the
// cookie; TopicID names the view's live event topic and is safe to embed in
// pages.
type Session struct {
	ID      string
	TopicID string

	factory  ControllerFactory
	mu       sync.Mutex
	lastSeen time.Time
	detail   *patientdetail.Controller
}

// Detail returns the view's detail controller, creating it on first use.
func (s *Session) Detail() *patientdetail.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.detail == nil {
		s.detail = s.factory(s.TopicID)
	}
	return s.detail
}

// LeaveDetail unmounts the detail controller, as navigating away does.
func (s *Session) LeaveDetail() {
	s.mu.Lock()
	d := s.detail
	s.detail = nil
	s.mu.Unlock()

	if d != nil {
		d.Unmount()
	}
}

// Store holds the live sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idleTTL  time.Duration
	now      func() time.Time
	factory  ControllerFactory
	logger   zerolog.Logger
}

func NewStore(idleTTL time.Duration, factory ControllerFactory, logger zerolog.Logger) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		idleTTL:  idleTTL,
		now:      time.Now,
		factory:  factory,
		logger:   logger.With().Str("component", "session").Logger(),
	}
}

// Acquire returns the session for id, creating a new one when id is empty,
// malformed or unknown. created reports whether a new session was made.
func (st *Store) Acquire(id string) (sess *Session, created bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if _, err := uuid.Parse(id); err == nil {
		if sess, ok := st.sessions[id]; ok {
			sess.mu.Lock()
			sess.lastSeen = now
			sess.mu.Unlock()
			return sess, false
		}
	}

	sess = &Session{ID: uuid.NewString(), TopicID: uuid.NewString(), factory: st.factory, lastSeen: now}
	st.sessions[sess.ID] = sess
	return sess, true
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Middleware attaches the view session to every request and sets the cookie
// when a new one was created.
func (st *Store) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if cookie, err := c.Cookie(CookieName); err == nil {
				id = cookie.Value
			}
			sess, created := st.Acquire(id)
			if created {
				c.SetCookie(&http.Cookie{
					Name:     CookieName,
					Value:    sess.ID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(contextKey, sess)
			return next(c)
		}
	}
}

// FromContext returns the session attached by Middleware.
func FromContext(c echo.Context) (*Session, bool) {
	sess, ok := c.Get(contextKey).(*Session)
	return sess, ok
}

// StartCleanup evicts idle sessions until ctx is done.
func (st *Store) StartCleanup(ctx context.Context) {
	interval := st.idleTTL / 2
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.cleanup()
			}
		}
	}()
}

// cleanup removes sessions idle longer than the TTL and unmounts their
// controllers.
func (st *Store) cleanup() int {
	cutoff := st.now().Add(-st.idleTTL)

	st.mu.Lock()
	var evicted []*Session
	for id, sess := range st.sessions {
		sess.mu.Lock()
		idle := sess.lastSeen.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			evicted = append(evicted, sess)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, sess := range evicted {
		sess.LeaveDetail()
	}
	if len(evicted) > 0 {
		st.logger.Debug().Int("evicted", len(evicted)).Msg("evicted idle view sessions")
	}
	return len(evicted)
}

// Close unmounts every session.
func (st *Store) Close() {
	st.mu.Lock()
	all := make([]*Session, 0, len(st.sessions))
	for id, sess := range st.sessions {
		all = append(all, sess)
		delete(st.sessions, id)
	}
	st.mu.Unlock()

	for _, sess := range all {
		sess.LeaveDetail()
	}
}

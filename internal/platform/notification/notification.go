// Package notification holds the single transient error message shown over a
// page. A notice hides itself after a fixed time-to-live; showing a new notice
// replaces the old one and re-arms the timer.
package notification

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a notice stays visible when no TTL is configured.
const DefaultTTL = 5 * time.Second

// Notice is a visible message and the moment it was raised.
type Notice struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Timer is the handle returned by an AfterFunc.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithClock overrides the source of notice timestamps.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// WithAfterFunc overrides the timer used to hide notices.
func WithAfterFunc(af AfterFunc) Option {
	return func(n *Notifier) { n.afterFunc = af }
}

// WithOnChange registers fn to be called after every visibility change. fn
// receives nil when the notice is hidden. Calls are serialized in the order
// the changes happened, on the caller's goroutine or the timer's. fn must not
// call back into the Notifier.
func WithOnChange(fn func(*Notice)) Option {
	return func(n *Notifier) { n.onChange = fn }
}

// Notifier shows at most one Notice at a time.
type Notifier struct {
	// emitMu is held from a state change until its OnChange call returns.
	emitMu sync.Mutex

	mu        sync.Mutex
	ttl       time.Duration
	now       func() time.Time
	afterFunc AfterFunc
	onChange  func(*Notice)

	current *Notice
	timer   Timer
	seq     uint64
	closed  bool
}

// New returns a Notifier that hides each notice after ttl. A non-positive ttl
// falls back to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	n := &Notifier{
		ttl:       ttl,
		now:       time.Now,
		afterFunc: stdAfterFunc,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// TTL returns the configured display duration.
func (n *Notifier) TTL() time.Duration { return n.ttl }

// Show replaces any visible notice with message and arms a fresh timer. After
// Close, Show records nothing and returns the zero Notice.
func (n *Notifier) Show(message string) Notice {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return Notice{}
	}
	n.stopLocked()
	notice := Notice{ID: uuid.NewString(), Message: message, Timestamp: n.now()}
	n.current = &notice
	seq := n.seq
	n.timer = n.afterFunc(n.ttl, func() { n.expire(seq) })
	n.mu.Unlock()

	n.notify(&notice)
	return notice
}

// Current returns the visible notice, if any.
func (n *Notifier) Current() (Notice, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notice{}, false
	}
	return *n.current, true
}

// Clear hides the visible notice immediately.
func (n *Notifier) Clear() {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	visible := n.current != nil
	n.stopLocked()
	n.current = nil
	n.mu.Unlock()

	if visible {
		n.notify(nil)
	}
}

// Close cancels any pending timer and drops the visible notice without
// reporting a change. The Notifier is unusable afterwards.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stopLocked()
	n.current = nil
	n.closed = true
}

// stopLocked cancels the pending timer. Bumping seq turns a timer that has
// already fired but not yet taken the lock into a no-op.
func (n *Notifier) stopLocked() {
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.seq++
}

func (n *Notifier) expire(seq uint64) {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()

	n.mu.Lock()
	if n.closed || seq != n.seq || n.current == nil {
		n.mu.Unlock()
		return
	}
	n.current = nil
	n.timer = nil
	n.mu.Unlock()

	n.notify(nil)
}

func (n *Notifier) notify(notice *Notice) {
	if n.onChange != nil {
		n.onChange(notice)
	}
}

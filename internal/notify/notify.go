// Package notify implements the single-slot notification presenter: one
// notification is visible at a time, the rest wait in submission order.
//
// Transitions are time based (display timeout, exit grace) and are evaluated
// lazily whenever the presenter is touched, so a presenter needs no goroutine.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/itchan-dev/postsweb/internal/domain"
)

const (
	DefaultTimeout = 5 * time.Second
	DefaultGrace   = 300 * time.Millisecond
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Sequence hands out notification ids. Each presenter owns one.
type Sequence interface {
	Next() domain.NotificationId
}

// Counter is a monotonic Sequence starting at 1.
type Counter struct {
	n atomic.Uint64
}

func (c *Counter) Next() domain.NotificationId {
	return c.n.Add(1)
}

type Options struct {
	Timeout  time.Duration // 0 disables auto-dismiss
	Grace    time.Duration
	Clock    Clock
	Sequence Sequence
	// OnPresent runs, in presentation order, with the presenter locked. It must
	// not call back into the presenter.
	OnPresent func(domain.Notification)
}

type slot int

const (
	slotEmpty slot = iota
	slotVisible
	slotExiting
)

type Presenter struct {
	mu    sync.Mutex
	opts  Options
	queue []domain.Notification // queue[0] occupies the slot unless it is empty
	slot  slot
	since time.Time // when the slot entered its current state
}

func New(opts Options) *Presenter {
	if opts.Clock == nil {
		opts.Clock = ClockFunc(time.Now)
	}
	if opts.Sequence == nil {
		opts.Sequence = &Counter{}
	}
	if opts.Grace < 0 {
		opts.Grace = 0
	}
	return &Presenter{opts: opts}
}

// Notify enqueues a notification and presents it at once if the slot is free.
func (p *Presenter) Notify(title, description string) domain.Notification {
	return p.enqueue(title, description, domain.NotificationDefault)
}

// NotifyError is Notify with the destructive variant.
func (p *Presenter) NotifyError(title, description string) domain.Notification {
	return p.enqueue(title, description, domain.NotificationDestructive)
}

func (p *Presenter) enqueue(title, description string, variant domain.NotificationVariant) domain.Notification {
	p.mu.Lock()
	n := domain.Notification{
		ID:          p.opts.Sequence.Next(),
		Title:       title,
		Description: description,
		Variant:     variant,
	}
	p.queue = append(p.queue, n)
	p.advance(p.opts.Clock.Now())
	p.mu.Unlock()
	return n
}

// Current returns the visible notification, if any.
func (p *Presenter) Current() (domain.Notification, bool) {
	s := p.Snapshot()
	if s.Notification == nil || !s.Open {
		return domain.Notification{}, false
	}
	return *s.Notification, true
}

// Dismiss starts the exit of the visible notification with the given id.
// The next one is presented once the grace delay has passed.
func (p *Presenter) Dismiss(id domain.NotificationId) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.opts.Clock.Now()
	p.advance(now)
	if p.slot != slotVisible || p.queue[0].ID != id {
		return false
	}
	p.slot = slotExiting
	p.since = now
	p.advance(now)
	return true
}

// Snapshot describes the slot for rendering.
type Snapshot struct {
	Notification *domain.Notification // in the slot, visible or exiting
	Open         bool                 // false while the exit runs
	Queued       int                  // waiting behind the slot
	RefreshIn    time.Duration        // until the next timed transition, 0 if none
}

func (p *Presenter) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.opts.Clock.Now()
	p.advance(now)

	var s Snapshot
	if p.slot != slotEmpty {
		n := p.queue[0]
		s.Notification = &n
		s.Open = p.slot == slotVisible
		s.Queued = len(p.queue) - 1
		s.RefreshIn = p.deadline().Sub(now)
		if s.RefreshIn < 0 {
			s.RefreshIn = 0
		}
	}
	return s
}

// Pending counts notifications not yet fully removed, the slot included.
func (p *Presenter) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.advance(p.opts.Clock.Now())
	return len(p.queue)
}

// deadline is when the slot changes on its own; zero time when it never does.
func (p *Presenter) deadline() time.Time {
	switch p.slot {
	case slotVisible:
		if p.opts.Timeout > 0 {
			return p.since.Add(p.opts.Timeout)
		}
	case slotExiting:
		return p.since.Add(p.opts.Grace)
	}
	return time.Time{}
}

// advance runs every transition due at now. Must hold p.mu.
// Transition times are taken from the deadlines, not from now, so a presenter
// observed late still replays the same timeline.
func (p *Presenter) advance(now time.Time) {
	at := now
	for {
		switch p.slot {
		case slotEmpty:
			if len(p.queue) == 0 {
				return
			}
			p.slot = slotVisible
			p.since = at
			if p.opts.OnPresent != nil {
				p.opts.OnPresent(p.queue[0])
			}
		case slotVisible:
			if p.opts.Timeout <= 0 || now.Before(p.deadline()) {
				return
			}
			at = p.deadline()
			p.slot = slotExiting
			p.since = at
		case slotExiting:
			if now.Before(p.deadline()) {
				return
			}
			at = p.deadline()
			p.queue[0] = domain.Notification{}
			p.queue = p.queue[1:]
			p.slot = slotEmpty
		}
	}
}

package upload

import (
	"sync"

	"github.com/design-review/backend/internal/models"
)

// Subscription receives tracker events until closed. Events for one file
// arrive in the order they happened.
//
// Publishing never waits on a subscriber. While a subscriber lags, queued
// progress updates for a file collapse into the latest one; the first event
// of each status and every terminal event are always delivered.
type Subscription struct {
	C <-chan Event

	ch      chan Event
	quit    chan struct{}
	wake    chan struct{}
	once    sync.Once
	tracker *Tracker

	mu      sync.Mutex
	pending []queued
	last    map[string]int               // file id -> index of its newest pending event
	seen    map[string]models.FileStatus // file id -> last status queued
}

type queued struct {
	ev   Event
	lead bool // first event of a status
}

// Subscribe registers a new observer. buffer sizes C; anything beyond it is
// queued and coalesced per file.
func (t *Tracker) Subscribe(buffer int) *Subscription {
	ch := make(chan Event, buffer)
	s := &Subscription{
		C:       ch,
		ch:      ch,
		quit:    make(chan struct{}),
		wake:    make(chan struct{}, 1),
		tracker: t,
		last:    make(map[string]int),
		seen:    make(map[string]models.FileStatus),
	}

	t.mu.Lock()
	t.subs[s] = struct{}{}
	t.mu.Unlock()

	go s.forward()
	return s
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.tracker.mu.Lock()
		delete(s.tracker.subs, s)
		s.tracker.mu.Unlock()
		close(s.quit)
	})
}

// Done is closed when the tracker shuts down.
func (s *Subscription) Done() <-chan struct{} {
	return s.tracker.done
}

func (s *Subscription) enqueue(ev Event) {
	id, status := ev.File.ID, ev.File.Status

	s.mu.Lock()
	lead := s.seen[id] != status
	if status.Terminal() {
		delete(s.seen, id)
	} else {
		s.seen[id] = status
	}

	if i, ok := s.last[id]; ok && !lead && !s.pending[i].lead {
		s.pending[i].ev = ev
	} else {
		s.last[id] = len(s.pending)
		s.pending = append(s.pending, queued{ev: ev, lead: lead})
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return Event{}, false
	}
	ev := s.pending[0].ev
	s.pending[0] = queued{}
	s.pending = s.pending[1:]
	for id, i := range s.last {
		if i == 0 {
			delete(s.last, id)
		} else {
			s.last[id] = i - 1
		}
	}
	return ev, true
}

// forward moves queued events into C until the subscription or the tracker
// is closed.
func (s *Subscription) forward() {
	for {
		ev, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			case <-s.tracker.done:
				return
			}
		}

		select {
		case s.ch <- ev:
		case <-s.quit:
			return
		case <-s.tracker.done:
			return
		}
	}
}

func (t *Tracker) publish(ev Event) {
	t.mu.RLock()
	subs := make([]*Subscription, 0, len(t.subs))
	for s := range t.subs {
		subs = append(subs, s)
	}
	t.mu.RUnlock()

	for _, s := range subs {
		s.enqueue(ev)
	}
}

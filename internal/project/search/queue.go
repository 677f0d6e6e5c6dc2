package search

import (
	"context"
	"sync"
)

// Sink receives search events on the consumer's goroutine.
type Sink interface {
	// OnProjectMatch delivers one project's complete results.
	OnProjectMatch(id SearchID, pm ProjectMatch)

	// OnSearchCompleted is called exactly once per search, last.
	OnSearchCompleted(id SearchID, summary Summary)
}

// EventKind distinguishes queued events.
type EventKind int

const (
	// EventProjectMatch carries a ProjectMatch.
	EventProjectMatch EventKind = iota

	// EventCompleted carries the final Summary.
	EventCompleted
)

// Event is one queued search notification.
type Event struct {
	Kind    EventKind
	ID      SearchID
	Project ProjectMatch
	Summary Summary
}

// Deliver hands e to the matching Sink method.
func (e Event) Deliver(sink Sink) {
	switch e.Kind {
	case EventProjectMatch:
		sink.OnProjectMatch(e.ID, e.Project)
	case EventCompleted:
		sink.OnSearchCompleted(e.ID, e.Summary)
	}
}

// Queue is an unbounded FIFO of events between the search worker and the
// consumer. Push never blocks. Queue is safe for concurrent use.
type Queue struct {
	mu      sync.Mutex
	events  []Event
	current SearchID
	ready   chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// C returns a channel that receives a value when events may be pending.
// A consumer select loop waits on C and then calls Drain.
func (q *Queue) C() <-chan struct{} {
	return q.ready
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// setCurrent marks id as the latest search. Events from older searches are
// dropped from then on.
func (q *Queue) setCurrent(id SearchID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.current = id
	kept := q.events[:0]
	for _, e := range q.events {
		if e.ID == id {
			kept = append(kept, e)
		}
	}
	clear(q.events[len(kept):])
	q.events = kept
}

// Push appends e and signals the consumer.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain delivers every pending event of the current search to sink, in
// order, on the calling goroutine. It returns the number delivered.
func (q *Queue) Drain(sink Sink) int {
	q.mu.Lock()
	pending := q.events
	q.events = nil
	current := q.current
	q.mu.Unlock()

	n := 0
	for _, e := range pending {
		if e.ID != current {
			continue
		}
		e.Deliver(sink)
		n++
	}
	return n
}

// Next blocks until an event of the current search is available or ctx is
// done.
func (q *Queue) Next(ctx context.Context) (Event, error) {
	for {
		if e, ok := q.pop(); ok {
			return e, nil
		}
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-q.ready:
		}
	}
}

func (q *Queue) pop() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.events) > 0 {
		e := q.events[0]
		q.events[0] = Event{}
		q.events = q.events[1:]
		if e.ID == q.current {
			if len(q.events) > 0 {
				q.signal()
			}
			return e, true
		}
	}
	return Event{}, false
}

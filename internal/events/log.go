package events

import "sync"

// Set is the read side of an event log. Rules evaluate against a Set.
type Set interface {
	// Has reports whether an event of the given kind and subject has been posted.
	Has(kind Kind, subject string) bool

	// First returns the earliest event of the given kind and subject.
	First(kind Kind, subject string) (TaskEvent, bool)

	// OfKind returns every event of the given kind in posting order.
	OfKind(kind Kind) []TaskEvent
}

type indexKey struct {
	kind    Kind
	subject string
}

// Log is an append-only, ordered collection of events, indexed by kind and subject.
// It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	ordered []TaskEvent
	seen    map[TaskEvent]struct{}
	index   map[indexKey][]TaskEvent
	byKind  map[Kind][]TaskEvent
}

// NewLog returns a log holding the given events.
func NewLog(initial ...TaskEvent) *Log {
	l := &Log{
		seen:   make(map[TaskEvent]struct{}),
		index:  make(map[indexKey][]TaskEvent),
		byKind: make(map[Kind][]TaskEvent),
	}
	for _, e := range initial {
		l.Add(e)
	}
	return l
}

// Add appends e. It returns false, leaving the log unchanged, if an identical event
// was posted before.
func (l *Log) Add(e TaskEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, dup := l.seen[e]; dup {
		return false
	}
	l.seen[e] = struct{}{}
	l.ordered = append(l.ordered, e)

	key := indexKey{kind: e.Kind(), subject: e.Subject()}
	l.index[key] = append(l.index[key], e)
	l.byKind[e.Kind()] = append(l.byKind[e.Kind()], e)
	return true
}

func (l *Log) Has(kind Kind, subject string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.index[indexKey{kind: kind, subject: subject}]) > 0
}

func (l *Log) First(kind Kind, subject string) (TaskEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	matches := l.index[indexKey{kind: kind, subject: subject}]
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0], true
}

func (l *Log) OfKind(kind Kind) []TaskEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]TaskEvent(nil), l.byKind[kind]...)
}

// Events returns a copy of every event in posting order.
func (l *Log) Events() []TaskEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]TaskEvent(nil), l.ordered...)
}

// Len returns the number of events posted.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ordered)
}

// Find returns the earliest event of type E with the given subject.
func Find[E TaskEvent](s Set, subject string) (E, bool) {
	var zero E
	e, ok := s.First(zero.Kind(), subject)
	if !ok {
		return zero, false
	}
	typed, ok := e.(E)
	return typed, ok
}

// All returns every event of type E in posting order.
func All[E TaskEvent](s Set) []E {
	var zero E
	found := s.OfKind(zero.Kind())
	out := make([]E, 0, len(found))
	for _, e := range found {
		if typed, ok := e.(E); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Package eventlog keeps the bounded, newest-first activity log shown in the
// deck's log panel, CLI and feed.
package eventlog

import (
	"fmt"
	"sync"
	"time"

	"github.com/deemkeen/deckhand/domain"
)

const DefaultCapacity = 50

type Log struct {
	mu          sync.Mutex
	entries     []domain.LogEntry // newest first
	capacity    int
	now         func() time.Time
	subscribers map[int]func(domain.LogEntry)
	nextSub     int
}

func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{
		entries:     make([]domain.LogEntry, 0, capacity),
		capacity:    capacity,
		now:         time.Now,
		subscribers: make(map[int]func(domain.LogEntry)),
	}
}

func (l *Log) Capacity() int {
	return l.capacity
}

// Add prepends an entry, dropping the oldest once capacity is reached.
// Subscribers are called after the lock is released, in insertion order.
func (l *Log) Add(message string, severity domain.Severity) domain.LogEntry {
	l.mu.Lock()
	entry := domain.LogEntry{Message: message, Severity: severity, Time: l.now()}

	if len(l.entries) < l.capacity {
		l.entries = append(l.entries, domain.LogEntry{})
	}
	copy(l.entries[1:], l.entries[:len(l.entries)-1])
	l.entries[0] = entry

	subs := make([]func(domain.LogEntry), 0, len(l.subscribers))
	for i := 0; i < l.nextSub; i++ {
		if fn, ok := l.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range subs {
		fn(entry)
	}
	return entry
}

func (l *Log) Info(format string, args ...any) domain.LogEntry {
	return l.Add(fmt.Sprintf(format, args...), domain.SeverityInfo)
}

func (l *Log) Error(format string, args ...any) domain.LogEntry {
	return l.Add(fmt.Sprintf(format, args...), domain.SeverityError)
}

func (l *Log) Broadcast(format string, args ...any) domain.LogEntry {
	return l.Add(fmt.Sprintf(format, args...), domain.SeverityBroadcast)
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []domain.LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Latest returns up to n newest entries.
func (l *Log) Latest(n int) []domain.LogEntry {
	entries := l.Entries()
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe registers fn for every new entry and returns its cancel func.
func (l *Log) Subscribe(fn func(domain.LogEntry)) func() {
	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subscribers[id] = fn
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subscribers, id)
			l.mu.Unlock()
		})
	}
}

package eventlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/deemkeen/deckhand/domain"
)

func TestNewDefaultsCapacity(t *testing.T) {
	l := New(0)
	if l.Capacity() != DefaultCapacity {
		t.Errorf("Expected capacity %d, got %d", DefaultCapacity, l.Capacity())
	}
}

func TestNewestFirst(t *testing.T) {
	l := New(50)
	l.Info("first")
	l.Error("second")
	l.Broadcast("third")

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "third" || entries[2].Message != "first" {
		t.Errorf("Expected newest first, got %q .. %q", entries[0].Message, entries[2].Message)
	}
	if entries[0].Severity != domain.SeverityBroadcast {
		t.Errorf("Expected broadcast severity, got %s", entries[0].Severity)
	}
	if entries[1].Severity != domain.SeverityError {
		t.Errorf("Expected error severity, got %s", entries[1].Severity)
	}
}

func TestCapacityBound(t *testing.T) {
	for _, capacity := range []int{50, 75, 100} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			l := New(capacity)

			for i := 0; i <= capacity; i++ {
				l.Info("entry %d", i)
			}

			entries := l.Entries()
			if len(entries) != capacity {
				t.Fatalf("Expected %d entries, got %d", capacity, len(entries))
			}
			if entries[0].Message != fmt.Sprintf("entry %d", capacity) {
				t.Errorf("Expected newest entry first, got %q", entries[0].Message)
			}
			for _, e := range entries {
				if e.Message == "entry 0" {
					t.Error("Oldest entry should have been dropped")
				}
			}
			if entries[len(entries)-1].Message != "entry 1" {
				t.Errorf("Expected entry 1 to be oldest, got %q", entries[len(entries)-1].Message)
			}
		})
	}
}

func TestTimestampsFromClock(t *testing.T) {
	l := New(50)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	e := l.Info("tick")
	if !e.Time.Equal(fixed) {
		t.Errorf("Expected %v, got %v", fixed, e.Time)
	}
}

func TestLatest(t *testing.T) {
	l := New(50)
	for i := 0; i < 10; i++ {
		l.Info("e%d", i)
	}

	latest := l.Latest(3)
	if len(latest) != 3 {
		t.Fatalf("Expected 3, got %d", len(latest))
	}
	if latest[0].Message != "e9" {
		t.Errorf("Expected e9, got %s", latest[0].Message)
	}

	if len(l.Latest(100)) != 10 {
		t.Error("Latest should return everything when n exceeds length")
	}
}

func TestEntriesIsCopy(t *testing.T) {
	l := New(50)
	l.Info("original")

	entries := l.Entries()
	entries[0].Message = "mutated"

	if l.Entries()[0].Message != "original" {
		t.Error("Entries should return a copy")
	}
}

func TestSubscribe(t *testing.T) {
	l := New(50)

	var got []string
	cancel := l.Subscribe(func(e domain.LogEntry) {
		got = append(got, e.Message)
	})

	l.Info("one")
	l.Info("two")
	cancel()
	cancel()
	l.Info("three")

	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("Unexpected subscriber calls: %v", got)
	}
}

func TestSubscriberMayReadLog(t *testing.T) {
	l := New(50)

	var seen int
	l.Subscribe(func(e domain.LogEntry) {
		seen = l.Len()
	})
	l.Info("x")

	if seen != 1 {
		t.Errorf("Expected subscriber to observe 1 entry, got %d", seen)
	}
}

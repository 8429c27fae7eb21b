// Package scheduler provides trial.Scheduler implementations: a bubbletea
// backed one for the interactive UI and a manual one driven by tests.
package scheduler

import (
	"sort"
	"time"

	"github.com/bnema/reaction-test-cli/internal/ports"
	"github.com/bnema/reaction-test-cli/internal/trial"
)

type manualEntry struct {
	id     uint64
	at     time.Time
	fire   func()
	active bool
}

// Manual is a deterministic scheduler and clock. Time only moves on Advance.
type Manual struct {
	now     time.Time
	nextID  uint64
	entries []*manualEntry
}

var (
	_ trial.Scheduler = (*Manual)(nil)
	_ ports.Clock     = (*Manual)(nil)
)

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) Schedule(d time.Duration, fire func()) trial.Cancel {
	m.nextID++
	entry := &manualEntry{id: m.nextID, at: m.now.Add(d), fire: fire, active: true}
	m.entries = append(m.entries, entry)

	return func() {
		entry.active = false
	}
}

// Advance moves the clock forward and runs every due callback in deadline order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)

	for {
		next := m.nextDue(target)
		if next == nil {
			break
		}
		m.now = next.at
		next.active = false
		next.fire()
	}

	m.now = target
	m.compact()
}

// Pending counts callbacks that are scheduled and not cancelled.
func (m *Manual) Pending() int {
	count := 0
	for _, entry := range m.entries {
		if entry.active {
			count++
		}
	}
	return count
}

// NextDeadline reports how long until the earliest pending callback.
func (m *Manual) NextDeadline() (time.Duration, bool) {
	var earliest *manualEntry
	for _, entry := range m.entries {
		if entry.active && (earliest == nil || entry.at.Before(earliest.at)) {
			earliest = entry
		}
	}
	if earliest == nil {
		return 0, false
	}
	return earliest.at.Sub(m.now), true
}

func (m *Manual) nextDue(target time.Time) *manualEntry {
	due := make([]*manualEntry, 0, len(m.entries))
	for _, entry := range m.entries {
		if entry.active && !entry.at.After(target) {
			due = append(due, entry)
		}
	}
	if len(due) == 0 {
		return nil
	}

	sort.SliceStable(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].id < due[j].id
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}

func (m *Manual) compact() {
	live := m.entries[:0]
	for _, entry := range m.entries {
		if entry.active {
			live = append(live, entry)
		}
	}
	m.entries = live
}

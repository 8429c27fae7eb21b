package scheduler

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bnema/reaction-test-cli/internal/trial"
)

// FireMsg is delivered to the bubbletea update loop when a delay elapses.
type FireMsg struct {
	id   uint64
	fire func()
}

// Tea schedules delays as tea.Tick commands so callbacks run inside Update.
// A bubbletea tick cannot be withdrawn once issued, so cancellation removes
// the id from the live set and Deliver drops the message when it arrives.
type Tea struct {
	nextID  uint64
	live    map[uint64]struct{}
	pending []tea.Cmd
}

var _ trial.Scheduler = (*Tea)(nil)

func NewTea() *Tea {
	return &Tea{live: map[uint64]struct{}{}}
}

func (s *Tea) Schedule(d time.Duration, fire func()) trial.Cancel {
	s.nextID++
	id := s.nextID
	s.live[id] = struct{}{}

	s.pending = append(s.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return FireMsg{id: id, fire: fire}
	}))

	return func() {
		delete(s.live, id)
	}
}

// Deliver runs the callback of a still-live delay and reports whether it ran.
func (s *Tea) Deliver(msg FireMsg) bool {
	if _, ok := s.live[msg.id]; !ok {
		return false
	}
	delete(s.live, msg.id)
	msg.fire()
	return true
}

// Cmd drains the ticks scheduled since the last call.
func (s *Tea) Cmd() tea.Cmd {
	if len(s.pending) == 0 {
		return nil
	}
	cmds := s.pending
	s.pending = nil
	return tea.Batch(cmds...)
}

func (s *Tea) Live() int {
	return len(s.live)
}

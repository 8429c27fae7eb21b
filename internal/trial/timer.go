// Package trial implements the single-trial reaction timer.
//
// A Timer walks Idle -> Waiting -> Armed -> Result for every trial slot.
// Waiting lasts a random delay; a press during it moves to TooSoon and the
// next press re-enters Waiting for the same slot. Only a press while Armed
// produces a time, reported through Callbacks.OnTrialComplete.
//
// The timer owns at most one scheduled delay. Every path that leaves Waiting
// cancels it, and each scheduled callback carries the generation it was
// issued for, so a delay that fires after being superseded does nothing.
// All methods must be called from a single event loop.
package trial

import (
	"math/rand"
	"time"

	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/bnema/reaction-test-cli/internal/ports"
)

type State int

const (
	StateIdle State = iota
	StateWaiting
	StateArmed
	StateTooSoon
	StateResult
	// StateExited follows the first acknowledgment of a result.
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateArmed:
		return "armed"
	case StateTooSoon:
		return "too_soon"
	case StateResult:
		return "result"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Cancel releases a scheduled delay. Calling it more than once is allowed.
type Cancel func()

// Scheduler runs fire once after d on the caller's event loop.
type Scheduler interface {
	Schedule(d time.Duration, fire func()) Cancel
}

type DelaySource interface {
	Next() time.Duration
}

// UniformDelay draws delays uniformly from [Min, Max].
type UniformDelay struct {
	Min  time.Duration
	Max  time.Duration
	Rand *rand.Rand
}

func NewUniformDelay(r *rand.Rand) UniformDelay {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return UniformDelay{Min: domain.MinDelay, Max: domain.MaxDelay, Rand: r}
}

func (u UniformDelay) Next() time.Duration {
	span := u.Max - u.Min
	if span <= 0 {
		return u.Min
	}
	return u.Min + time.Duration(u.Rand.Float64()*float64(span))
}

type Callbacks struct {
	OnTrialComplete      func(elapsedMs float64)
	OnResultAcknowledged func()
}

type Snapshot struct {
	State         State
	Round         int
	Trial         int
	Delay         time.Duration
	LastElapsedMs float64
}

type Timer struct {
	scheduler Scheduler
	clock     ports.Clock
	delays    DelaySource
	callbacks Callbacks

	state      State
	round      int
	trial      int
	delay      time.Duration
	onset      time.Time
	elapsedMs  float64
	cancel     Cancel
	generation uint64
}

type Option func(*Timer)

func WithClock(clock ports.Clock) Option {
	return func(t *Timer) {
		if clock != nil {
			t.clock = clock
		}
	}
}

func WithDelaySource(delays DelaySource) Option {
	return func(t *Timer) {
		if delays != nil {
			t.delays = delays
		}
	}
}

func New(scheduler Scheduler, callbacks Callbacks, opts ...Option) *Timer {
	t := &Timer{
		scheduler: scheduler,
		clock:     ports.SystemClock{},
		callbacks: callbacks,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.delays == nil {
		t.delays = NewUniformDelay(nil)
	}

	return t
}

// Start begins measuring the given slot. Moving to a different slot discards
// whatever the timer was doing and re-enters Waiting; repeating the current
// slot once it has started is ignored.
func (t *Timer) Start(round, trial int) {
	if t.state != StateIdle && round == t.round && trial == t.trial {
		return
	}

	t.round = round
	t.trial = trial
	t.elapsedMs = 0
	t.enterWaiting()
}

// Press delivers one participant input.
func (t *Timer) Press() {
	switch t.state {
	case StateWaiting:
		t.release()
		t.state = StateTooSoon
	case StateArmed:
		elapsed := t.clock.Now().Sub(t.onset)
		if elapsed < 0 {
			elapsed = 0
		}
		t.elapsedMs = float64(elapsed) / float64(time.Millisecond)
		t.state = StateResult
		if t.callbacks.OnTrialComplete != nil {
			t.callbacks.OnTrialComplete(t.elapsedMs)
		}
	case StateTooSoon:
		t.enterWaiting()
	case StateResult:
		t.state = StateExited
		if t.callbacks.OnResultAcknowledged != nil {
			t.callbacks.OnResultAcknowledged()
		}
	}
}

// Stop tears the timer down and cancels any pending delay.
func (t *Timer) Stop() {
	t.release()
	t.state = StateIdle
}

func (t *Timer) State() State {
	return t.state
}

func (t *Timer) Snapshot() Snapshot {
	return Snapshot{
		State:         t.state,
		Round:         t.round,
		Trial:         t.trial,
		Delay:         t.delay,
		LastElapsedMs: t.elapsedMs,
	}
}

func (t *Timer) enterWaiting() {
	t.release()
	generation := t.generation

	t.delay = t.delays.Next()
	t.state = StateWaiting
	t.cancel = t.scheduler.Schedule(t.delay, func() {
		t.arm(generation)
	})
}

func (t *Timer) arm(generation uint64) {
	if generation != t.generation || t.state != StateWaiting {
		return
	}

	t.cancel = nil
	t.onset = t.clock.Now()
	t.state = StateArmed
}

// release cancels the live delay, if any, and invalidates every callback
// issued before this point.
func (t *Timer) release() {
	t.generation++
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

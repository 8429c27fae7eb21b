package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/bnema/reaction-test-cli/internal/domain"
	"github.com/bnema/reaction-test-cli/internal/ports"
)

var ErrInvalidTransition = errors.New("invalid phase transition")

type Phase string

const (
	PhaseIdentification Phase = "identification"
	PhaseConsent        Phase = "consent"
	PhasePreRound       Phase = "pre_round"
	PhaseActiveTrial    Phase = "active_trial"
	PhasePostRound      Phase = "post_round"
	PhaseSummary        Phase = "summary"
	PhaseOverview       Phase = "overview"
	PhaseDetail         Phase = "detail"
)

// Position is the round/trial pair the orchestrator is currently on.
type Position struct {
	Round int
	Trial int
}

// Orchestrator owns the session lifecycle: the current phase, the round and
// trial counters, the participant's session and the full history. Every
// mutation of a session is followed by a snapshot save of the whole history.
type Orchestrator struct {
	repo  ports.SessionRepository
	clock ports.Clock
	ids   ports.SessionIDGenerator
	log   *zap.Logger
	rand  *rand.Rand

	phase         Phase
	previousPhase Phase
	sessions      []domain.Session
	currentID     domain.SessionID
	detailID      domain.SessionID
	position      Position
}

func NewOrchestrator(repo ports.SessionRepository, clock ports.Clock, ids ports.SessionIDGenerator, log *zap.Logger) *Orchestrator {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if ids == nil {
		ids = NewSessionIDGenerator(clock)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Orchestrator{
		repo:     repo,
		clock:    clock,
		ids:      ids,
		log:      log,
		rand:     rand.New(rand.NewSource(clock.Now().UnixNano())),
		phase:    PhaseIdentification,
		position: Position{Round: 1, Trial: 1},
	}
}

// Load reads the stored history. Sessions the repository could still read
// are kept when it reports a partial failure; otherwise a read failure leaves
// an empty history. The example session is always present afterwards.
func (o *Orchestrator) Load(ctx context.Context) {
	sessions, err := o.repo.LoadAll(ctx)
	if err != nil {
		if len(sessions) > 0 {
			o.log.Warn("session history partially unreadable", zap.Int("readable", len(sessions)), zap.Error(err))
		} else {
			o.log.Warn("session history unavailable, starting empty", zap.Error(err))
		}
	}

	valid := make([]domain.Session, 0, len(sessions)+1)
	for _, session := range sessions {
		if err := session.Validate(); err != nil {
			o.log.Warn("dropping stored session", zap.String("session_id", string(session.ID)), zap.Error(err))
			continue
		}
		valid = append(valid, session.Clone())
	}

	if indexOf(valid, domain.ExampleSessionID) < 0 {
		valid = append(valid, domain.NewExampleSession(o.clock.Now(), o.rand))
	}

	o.sessions = valid
	o.log.Debug("session history loaded", zap.Int("sessions", len(valid)))
}

func (o *Orchestrator) Phase() Phase {
	return o.phase
}

func (o *Orchestrator) Position() Position {
	return o.position
}

// Sessions returns copies of every known session in stored order.
func (o *Orchestrator) Sessions() []domain.Session {
	out := make([]domain.Session, 0, len(o.sessions))
	for _, session := range o.sessions {
		out = append(out, session.Clone())
	}
	return out
}

func (o *Orchestrator) Session(id domain.SessionID) (domain.Session, error) {
	i := indexOf(o.sessions, id)
	if i < 0 {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	return o.sessions[i].Clone(), nil
}

// Current returns the participant session being run, if any.
func (o *Orchestrator) Current() (domain.Session, bool) {
	i := indexOf(o.sessions, o.currentID)
	if i < 0 {
		return domain.Session{}, false
	}
	return o.sessions[i].Clone(), true
}

func (o *Orchestrator) ShowConsent() error {
	if o.phase != PhaseIdentification {
		return o.transitionErr(PhaseConsent)
	}
	o.previousPhase = o.phase
	o.phase = PhaseConsent
	return nil
}

func (o *Orchestrator) LeaveConsent() error {
	if o.phase != PhaseConsent {
		return o.transitionErr(PhaseIdentification)
	}
	o.previousPhase = ""
	o.phase = PhaseIdentification
	return nil
}

// Identify creates the participant's session and moves to the first briefing.
func (o *Orchestrator) Identify(ctx context.Context, name string, sex domain.Sex) (domain.Session, error) {
	if o.phase != PhaseIdentification {
		return domain.Session{}, o.transitionErr(PhasePreRound)
	}

	session, err := domain.NewSession(o.ids.NewSessionID(), domain.User{Name: name, Sex: sex}, o.clock.Now())
	if err != nil {
		return domain.Session{}, err
	}

	if i := indexOf(o.sessions, session.ID); i >= 0 {
		o.sessions[i] = session
	} else {
		o.sessions = append(o.sessions, session)
	}
	o.currentID = session.ID
	o.position = Position{Round: 1, Trial: 1}
	o.phase = PhasePreRound

	o.log.Info("session created",
		zap.String("session_id", string(session.ID)),
		zap.String("sex", string(session.User.Sex)),
	)

	if err := o.persist(ctx); err != nil {
		return session.Clone(), err
	}
	return session.Clone(), nil
}

func (o *Orchestrator) StartRound() error {
	if o.phase != PhasePreRound {
		return o.transitionErr(PhaseActiveTrial)
	}
	o.phase = PhaseActiveTrial
	return nil
}

// RecordTrial stores the measured time for the current position.
func (o *Orchestrator) RecordTrial(ctx context.Context, elapsedMs float64) error {
	if o.phase != PhaseActiveTrial {
		return o.transitionErr(PhaseActiveTrial)
	}

	session, err := o.current()
	if err != nil {
		return err
	}
	if err := session.RecordTrial(o.position.Round, o.position.Trial, elapsedMs); err != nil {
		return fmt.Errorf("record trial: %w", err)
	}

	o.log.Info("trial recorded",
		zap.String("session_id", string(session.ID)),
		zap.Int("round", o.position.Round),
		zap.Int("trial", o.position.Trial),
		zap.Float64("elapsed_ms", elapsedMs),
	)

	return o.persist(ctx)
}

// AcknowledgeResult advances past a recorded trial: to the next trial, to the
// post-round briefing, or, after the final trial, to the completed summary.
func (o *Orchestrator) AcknowledgeResult(ctx context.Context) error {
	if o.phase != PhaseActiveTrial {
		return o.transitionErr(PhaseActiveTrial)
	}

	session, err := o.current()
	if err != nil {
		return err
	}
	if !o.slotRecorded(*session) {
		return fmt.Errorf("%w: round %d trial %d has no result", ErrInvalidTransition, o.position.Round, o.position.Trial)
	}

	switch {
	case o.position.Trial < domain.TrialsPerRound:
		o.position.Trial++
		return nil
	case o.position.Round < domain.TotalRounds:
		o.phase = PhasePostRound
		return nil
	default:
		return o.complete(ctx, session)
	}
}

func (o *Orchestrator) StartNextRound() error {
	if o.phase != PhasePostRound || o.position.Round >= domain.TotalRounds {
		return o.transitionErr(PhasePreRound)
	}
	o.position = Position{Round: o.position.Round + 1, Trial: 1}
	o.phase = PhasePreRound
	return nil
}

// Continue resumes an active session at its first unrecorded trial. A session
// that is fully recorded but never stamped is completed on the spot.
func (o *Orchestrator) Continue(ctx context.Context, id domain.SessionID) error {
	i := indexOf(o.sessions, id)
	if i < 0 {
		o.log.Warn("continue requested for unknown session", zap.String("session_id", string(id)))
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	session := &o.sessions[i]
	if session.Completed() {
		return fmt.Errorf("continue session %s: %w", id, domain.ErrSessionCompleted)
	}

	o.currentID = session.ID
	progress := domain.Locate(*session)
	if progress.Complete {
		o.position = Position{Round: progress.Round, Trial: progress.Trial}
		return o.complete(ctx, session)
	}

	o.position = Position{Round: progress.Round, Trial: progress.Trial}
	o.previousPhase = PhaseOverview
	o.phase = PhasePreRound

	o.log.Info("session resumed",
		zap.String("session_id", string(id)),
		zap.Int("round", progress.Round),
		zap.Int("trial", progress.Trial),
	)
	return nil
}

// Reset prepares for the next participant.
func (o *Orchestrator) Reset() {
	o.currentID = ""
	o.detailID = ""
	o.previousPhase = ""
	o.position = Position{Round: 1, Trial: 1}
	o.phase = PhaseIdentification
}

func (o *Orchestrator) OpenOverview() error {
	if o.phase == PhaseActiveTrial || o.phase == PhaseOverview || o.phase == PhaseDetail {
		return o.transitionErr(PhaseOverview)
	}
	o.previousPhase = o.phase
	o.detailID = ""
	o.phase = PhaseOverview
	return nil
}

func (o *Orchestrator) CloseOverview() error {
	if o.phase != PhaseOverview {
		return o.transitionErr(o.previousPhase)
	}
	o.phase = o.previousPhase
	if o.phase == "" {
		o.phase = PhaseIdentification
	}
	o.previousPhase = ""
	return nil
}

func (o *Orchestrator) OpenDetail(id domain.SessionID) error {
	if o.phase != PhaseOverview {
		return o.transitionErr(PhaseDetail)
	}
	if indexOf(o.sessions, id) < 0 {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	o.detailID = id
	o.phase = PhaseDetail
	return nil
}

func (o *Orchestrator) CloseDetail() error {
	if o.phase != PhaseDetail {
		return o.transitionErr(PhaseOverview)
	}
	o.detailID = ""
	o.phase = PhaseOverview
	return nil
}

// Detail returns the session opened with OpenDetail.
func (o *Orchestrator) Detail() (domain.Session, error) {
	if o.detailID == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return o.Session(o.detailID)
}

func (o *Orchestrator) complete(ctx context.Context, session *domain.Session) error {
	if err := session.Complete(o.clock.Now()); err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	o.phase = PhaseSummary

	o.log.Info("session completed",
		zap.String("session_id", string(session.ID)),
		zap.Duration("duration", session.EndTime.Sub(session.StartTime)),
	)

	return o.persist(ctx)
}

func (o *Orchestrator) current() (*domain.Session, error) {
	i := indexOf(o.sessions, o.currentID)
	if i < 0 {
		return nil, fmt.Errorf("%w: no active session", domain.ErrSessionNotFound)
	}
	return &o.sessions[i], nil
}

func (o *Orchestrator) slotRecorded(session domain.Session) bool {
	for _, round := range session.Rounds {
		if round.RoundNumber != o.position.Round {
			continue
		}
		for _, trial := range round.Trials {
			if trial.TrialNumber == o.position.Trial {
				return trial.Recorded()
			}
		}
	}
	return false
}

// persist writes a value snapshot of every real session. The example session
// stays in memory only.
func (o *Orchestrator) persist(ctx context.Context) error {
	snapshot := make([]domain.Session, 0, len(o.sessions))
	for _, session := range o.sessions {
		if domain.IsExampleSession(session.ID) {
			continue
		}
		snapshot = append(snapshot, session.Clone())
	}

	if err := o.repo.SaveAll(ctx, snapshot); err != nil {
		o.log.Error("save sessions failed", zap.Int("sessions", len(snapshot)), zap.Error(err))
		return fmt.Errorf("save sessions: %w", err)
	}
	return nil
}

func (o *Orchestrator) transitionErr(target Phase) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.phase, target)
}

func indexOf(sessions []domain.Session, id domain.SessionID) int {
	if id == "" {
		return -1
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return i
		}
	}
	return -1
}

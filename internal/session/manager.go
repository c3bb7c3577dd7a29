package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/services"
)

// QuestionSource loads validated question sets. *services.QuestionService
// implements it.
type QuestionSource interface {
	Quiz(ctx context.Context, sheet string) ([]models.QuestionRecord, error)
	Diagnosis(ctx context.Context, questionSheet, resultSheet string) (services.DiagnosisSet, error)
}

// Recorder stores closed sessions.
type Recorder interface {
	Record(ctx context.Context, rec models.PlayRecord) error
}

type Options struct {
	Timeout         time.Duration
	AnswerPacing    time.Duration
	DiagnosisPacing time.Duration
	NodeID          int64
	Recorder        Recorder
	Events          EventSink
	// Shuffle reorders quiz questions in place. Defaults to a random shuffle.
	Shuffle func([]models.QuestionRecord)
}

type tombstone struct {
	command string
	state   State
	expires time.Time
}

// Manager creates sessions and routes clicks to them.
type Manager struct {
	source     QuestionSource
	renderer   Renderer
	resolver   *services.Resolver
	supervisor *Supervisor
	ids        *snowflake.Node
	opts       Options
	log        *slog.Logger

	mu         sync.Mutex
	active     map[string]*Session
	byUser     map[int64]*Session
	tombstones map[string]tombstone

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

func NewManager(source QuestionSource, renderer Renderer, opts Options) (*Manager, error) {
	node, err := snowflake.NewNode(opts.NodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node: %w", err)
	}
	if opts.Shuffle == nil {
		opts.Shuffle = func(qs []models.QuestionRecord) {
			rand.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
		}
	}
	return &Manager{
		source:     source,
		renderer:   renderer,
		resolver:   services.NewResolver(),
		supervisor: NewSupervisor(opts.Timeout),
		ids:        node,
		opts:       opts,
		log:        logger.For("session"),
		active:     make(map[string]*Session),
		byUser:     make(map[int64]*Session),
		tombstones: make(map[string]tombstone),
		now:        time.Now,
		sleep:      sleepCtx,
	}, nil
}

// Prepared is a validated question set waiting to be launched.
type Prepared struct {
	Def  models.CommandDef
	flow flow
}

func (p *Prepared) Total() int {
	return p.flow.total()
}

// Load fetches and validates the command's questions. Failures
// (*sheets.DataFetchError, *models.MalformedRecordError) mean no session is
// created.
func (m *Manager) Load(ctx context.Context, def models.CommandDef) (*Prepared, error) {
	f, err := m.load(ctx, def)
	if err != nil {
		return nil, err
	}
	if f.total() == 0 {
		return nil, ErrNoQuestions
	}
	return &Prepared{Def: def, flow: f}, nil
}

// StartSession loads the command's questions and shows the first one in t.
func (m *Manager) StartSession(ctx context.Context, user User, def models.CommandDef, t Target) (*Session, error) {
	p, err := m.Load(ctx, def)
	if err != nil {
		return nil, err
	}
	return m.Launch(ctx, user, p, t)
}

// Launch creates a session from a prepared set and renders its first question
// into t. A user launching a new session abandons their previous one. A first
// render failure still returns the (abandoned) session.
func (m *Manager) Launch(ctx context.Context, user User, p *Prepared, t Target) (*Session, error) {
	if p == nil || p.flow == nil {
		return nil, ErrNoQuestions
	}
	def := p.Def
	s := &Session{
		ID:        m.ids.Generate().Base58(),
		User:      user,
		Def:       def,
		StartedAt: m.now(),
		flow:      p.flow,
		state:     AwaitingFirstRender,
		target:    t,
		renderer:  m.renderer,
		pacing:    m.opts.AnswerPacing,
		sleep:     m.sleep,
	}
	// A Prepared set is single use.
	p.flow = nil
	if def.Kind == models.KindDiagnosis {
		s.pacing = m.opts.DiagnosisPacing
	}
	s.log = m.log.With("session_id", s.ID, "user_id", user.ID, "command", def.Name)
	s.hooks = hooks{event: m.publish, close: m.onClose}
	s.sync()

	m.mu.Lock()
	prev := m.byUser[user.ID]
	m.active[s.ID] = s
	m.byUser[user.ID] = s
	m.mu.Unlock()

	// Armed once registered, so an early deadline still unregisters the session.
	m.supervisor.Arm(s)

	if prev != nil {
		prev.Abandon("replaced by a new session")
	}

	s.log.InfoContext(ctx, "session created", "kind", def.Kind, "questions", s.flow.total())
	if err := s.Start(ctx, t); err != nil {
		s.log.ErrorContext(ctx, "first render failed", "error", err)
		return s, err
	}
	return s, nil
}

func (m *Manager) load(ctx context.Context, def models.CommandDef) (flow, error) {
	switch def.Kind {
	case models.KindQuiz:
		qs, err := m.source.Quiz(ctx, def.QuestionsSheet)
		if err != nil {
			return nil, err
		}
		shuffled := append([]models.QuestionRecord(nil), qs...)
		m.opts.Shuffle(shuffled)
		return &quizFlow{questions: shuffled}, nil
	case models.KindDiagnosis:
		set, err := m.source.Diagnosis(ctx, def.QuestionsSheet, def.ResultsSheet)
		if err != nil {
			return nil, err
		}
		if len(set.Rules) == 0 {
			return nil, services.ErrNoCandidates
		}
		return &diagnosisFlow{
			questions: set.Questions,
			rules:     set.Rules,
			resolver:  m.resolver,
			tally:     make(map[string]int),
		}, nil
	}
	return nil, fmt.Errorf("unknown command kind %q", def.Kind)
}

// OnUserChoice routes a click to its session. Clicks for closed sessions get
// a *StaleSessionError carrying the command to restart with.
func (m *Manager) OnUserChoice(ctx context.Context, userID int64, t Target, sessionRef, token string) (Outcome, error) {
	s, err := m.lookup(sessionRef)
	if err != nil {
		return Outcome{}, err
	}
	if s.User.ID != userID {
		return Outcome{}, ErrNotOwner
	}
	return s.SubmitChoice(ctx, t, token)
}

// Advance runs the step that follows a successful OnUserChoice: the pacing
// delay, then the next question or the summary. Call it after the click has
// been acknowledged.
func (m *Manager) Advance(ctx context.Context, sessionRef string, o Outcome) error {
	s, ok := m.Get(sessionRef)
	if !ok {
		return nil
	}
	return s.Advance(ctx, o)
}

func (m *Manager) lookup(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.active[id]; ok {
		return s, nil
	}
	if ts, ok := m.tombstones[id]; ok && m.now().Before(ts.expires) {
		return nil, &StaleSessionError{SessionID: id, Command: ts.command, State: ts.state}
	}
	return nil, &StaleSessionError{SessionID: id, State: Abandoned}
}

// Get returns an open session by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.active[id]
	return s, ok
}

// Active lists open sessions, oldest first.
func (m *Manager) Active() []Snapshot {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.active))
	for _, s := range m.active {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Shutdown abandons every open session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.active))
	for _, s := range m.active {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Abandon("shutdown")
	}
}

// onClose runs with s.mu held.
func (m *Manager) onClose(s *Session) {
	now := m.now()

	m.mu.Lock()
	delete(m.active, s.ID)
	if m.byUser[s.User.ID] == s {
		delete(m.byUser, s.User.ID)
	}
	for id, ts := range m.tombstones {
		if !now.Before(ts.expires) {
			delete(m.tombstones, id)
		}
	}
	m.tombstones[s.ID] = tombstone{command: s.Def.Name, state: s.state, expires: now.Add(m.supervisor.Timeout())}
	m.mu.Unlock()

	if m.opts.Recorder == nil {
		return
	}
	rec, ok := s.record()
	if !ok {
		return
	}
	rec.CreatedAt = now
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.opts.Recorder.Record(ctx, rec); err != nil {
		s.log.Error("failed to record play", "error", err)
	}
}

func (m *Manager) publish(e Event) {
	if m.opts.Events != nil {
		m.opts.Events.Publish(e)
	}
}

// IsStale reports whether err means the click belongs to a closed session.
func IsStale(err error) (*StaleSessionError, bool) {
	var se *StaleSessionError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

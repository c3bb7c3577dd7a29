package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
)

type State int

const (
	AwaitingFirstRender State = iota
	Presenting
	Finalized
	TimedOut
	Abandoned
)

func (s State) String() string {
	switch s {
	case AwaitingFirstRender:
		return "awaiting_first_render"
	case Presenting:
		return "presenting"
	case Finalized:
		return "finalized"
	case TimedOut:
		return "timed_out"
	case Abandoned:
		return "abandoned"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Closed reports whether the session no longer accepts input.
func (s State) Closed() bool {
	return s >= Finalized
}

type User struct {
	ID   int64
	Name string
}

// Session is one user's run through a quiz or diagnosis. All transitions
// happen under mu, so events for one session are applied one at a time. mu is
// released while pacing between an answer and the next question.
type Session struct {
	ID        string
	User      User
	Def       models.CommandDef
	StartedAt time.Time

	mu       sync.Mutex
	flow     flow
	state    State
	index    int
	target   Target
	trail    []Entry
	summary  *Summary
	renderer Renderer
	pacing   time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	timer    Timer
	hooks    hooks
	log      *slog.Logger
	// pending is set between an applied choice and the Advance that shows
	// the next question or the summary.
	pending bool

	// pmu guards progress, a copy of the read-only view refreshed at every
	// transition so readers never wait on mu.
	pmu      sync.Mutex
	progress progress
}

type progress struct {
	snap   Snapshot
	state  State
	target Target
}

// hooks let the owner observe the session without the session knowing about it.
type hooks struct {
	event func(Event)
	close func(*Session)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start renders the first question into t. A render failure abandons the
// session and is returned wrapped in ErrRenderTargetGone.
func (s *Session) Start(ctx context.Context, t Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AwaitingFirstRender {
		return &StaleSessionError{SessionID: s.ID, Command: s.Def.Name, State: s.state}
	}
	s.index = 0
	s.state = Presenting
	s.target = t
	s.sync()

	if err := s.renderQuestion(ctx); err != nil {
		return err
	}
	s.emit(EventStarted)
	return nil
}

// SubmitChoice applies one click and renders its feedback. t is the message
// the click came from and becomes the session's render target. The next
// question or the summary is left to Advance.
func (s *Session) SubmitChoice(ctx context.Context, t Target, token string) (Outcome, error) {
	choice, err := ParseChoice(token)
	if err != nil {
		return Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending {
		return Outcome{}, ErrAlreadyAnswered
	}
	if s.state != Presenting {
		return Outcome{}, &StaleSessionError{SessionID: s.ID, Command: s.Def.Name, State: s.state}
	}
	if choice.Question != s.index {
		return Outcome{}, ErrAlreadyAnswered
	}

	view := s.view()
	entry, outcome, err := s.flow.apply(s.index, choice.Option)
	if err != nil {
		return Outcome{}, err
	}
	s.trail = append(s.trail, entry)
	if !t.IsZero() {
		s.target = t
	}
	s.log.DebugContext(ctx, "choice applied",
		"index", s.index, "option", choice.Option, "correct", outcome.IsCorrect, "code", outcome.Code)

	last := s.index+1 >= s.flow.total()
	outcome.Finished = last
	if last {
		// No further choice is accepted once the last one is in.
		s.state = Finalized
	} else {
		s.index++
	}
	s.pending = true
	s.sync()

	if err := s.render(ctx, func(ctx context.Context, t Target) (Target, error) {
		return s.renderer.RenderFeedback(ctx, t, view, outcome)
	}); err != nil {
		return outcome, err
	}
	s.emit(EventAnswered)
	return outcome, nil
}

// Advance waits out the pacing delay after o was applied, then renders the
// next question or the summary. It does nothing when the session has moved
// on in the meantime, e.g. it timed out during the delay.
func (s *Session) Advance(ctx context.Context, o Outcome) error {
	if err := s.sleep(ctx, s.pacing); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.pending {
		return nil
	}
	switch {
	case o.Finished && s.state == Finalized:
		s.pending = false
		return s.finalize(ctx)
	case !o.Finished && s.state == Presenting && s.index == o.Index+1:
		s.pending = false
		return s.renderQuestion(ctx)
	}
	return nil
}

// awaitingSummary reports a session whose last answer is in but whose summary
// has not been rendered yet.
func (s *Session) awaitingSummary() bool {
	return s.state == Finalized && s.pending
}

// OnTimeout ends a session that is still open and renders its partial
// progress. A session already past its last answer gets its summary instead.
// It reports whether it did anything; later calls are no-ops.
func (s *Session) OnTimeout(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.awaitingSummary() {
		s.pending = false
		_ = s.finalize(ctx)
		return true
	}
	if s.state.Closed() {
		return false
	}
	s.state = TimedOut
	s.pending = false
	s.sync()
	s.log.InfoContext(ctx, "session timed out", "answered", len(s.trail), "total", s.flow.total())

	report := s.timeoutReport()
	if err := s.render(ctx, func(ctx context.Context, t Target) (Target, error) {
		return s.renderer.RenderTimeout(ctx, t, report)
	}); err != nil {
		return true
	}
	s.emit(EventTimedOut)
	s.close()
	return true
}

// Abandon closes the session without rendering anything.
func (s *Session) Abandon(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Closed() && !s.awaitingSummary() {
		return
	}
	s.abandon(errors.New(reason))
}

func (s *Session) finalize(ctx context.Context) error {
	sum := Summary{
		SessionID: s.ID,
		Kind:      s.Def.Kind,
		Title:     s.Def.Title,
		UserName:  s.User.Name,
		Command:   s.Def.Name,
		Trail:     append([]Entry(nil), s.trail...),
	}
	if err := s.flow.summary(&sum); err != nil {
		s.log.ErrorContext(ctx, "summary failed", "error", err)
		s.abandon(err)
		return err
	}
	s.summary = &sum

	if err := s.render(ctx, func(ctx context.Context, t Target) (Target, error) {
		return s.renderer.RenderSummary(ctx, t, sum)
	}); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "session finished", "correct", sum.Correct, "total", sum.Total)
	s.emit(EventFinished)
	s.close()
	return nil
}

func (s *Session) renderQuestion(ctx context.Context) error {
	view := s.view()
	return s.render(ctx, func(ctx context.Context, t Target) (Target, error) {
		return s.renderer.RenderQuestion(ctx, t, view)
	})
}

// render runs fn against the current target and adopts the target it returns.
// The renderer has already tried its own fallback, so any error abandons the session.
func (s *Session) render(ctx context.Context, fn func(context.Context, Target) (Target, error)) error {
	t, err := fn(ctx, s.target)
	if err != nil {
		s.abandon(err)
		return fmt.Errorf("%w: %v", ErrRenderTargetGone, err)
	}
	s.target = t
	s.sync()
	return nil
}

func (s *Session) abandon(cause error) {
	s.state = Abandoned
	s.pending = false
	s.sync()
	s.log.Warn("session abandoned", "error", cause)
	s.emit(EventAbandoned)
	s.close()
}

func (s *Session) close() {
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.hooks.close != nil {
		s.hooks.close(s)
	}
}

func (s *Session) view() QuestionView {
	v := s.flow.view(s.index)
	v.SessionID = s.ID
	v.Kind = s.Def.Kind
	v.Title = s.Def.Title
	v.Correct = s.flow.score()
	return v
}

func (s *Session) timeoutReport() TimeoutReport {
	return TimeoutReport{
		SessionID: s.ID,
		Kind:      s.Def.Kind,
		Title:     s.Def.Title,
		Command:   s.Def.Name,
		Correct:   s.flow.score(),
		Answered:  len(s.trail),
		Total:     s.flow.total(),
	}
}

func (s *Session) emit(typ EventType) {
	if s.hooks.event == nil {
		return
	}
	s.hooks.event(Event{
		Type:      typ,
		SessionID: s.ID,
		UserID:    s.User.ID,
		UserName:  s.User.Name,
		Command:   s.Def.Name,
		Kind:      s.Def.Kind,
		Index:     s.index,
		Answered:  len(s.trail),
		Total:     s.flow.total(),
		Correct:   s.flow.score(),
		At:        time.Now(),
	})
}

// Snapshot is a read-only copy of a session's progress.
type Snapshot struct {
	ID        string      `json:"id"`
	UserID    int64       `json:"user_id"`
	UserName  string      `json:"user_name"`
	Command   string      `json:"command"`
	Title     string      `json:"title"`
	Kind      models.Kind `json:"kind"`
	State     string      `json:"state"`
	Index     int         `json:"index"`
	Answered  int         `json:"answered"`
	Total     int         `json:"total"`
	Correct   int         `json:"correct"`
	ChatID    int64       `json:"chat_id"`
	StartedAt time.Time   `json:"started_at"`
}

// Snapshot does not take mu, so it returns promptly while a render or the
// pacing delay is in progress.
func (s *Session) Snapshot() Snapshot {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	return s.progress.snap
}

func (s *Session) State() State {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	return s.progress.state
}

func (s *Session) Target() Target {
	s.pmu.Lock()
	defer s.pmu.Unlock()
	return s.progress.target
}

func (s *Session) Trail() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.trail...)
}

// sync publishes the current progress. Callers hold mu, or own the session
// before it is shared.
func (s *Session) sync() {
	p := progress{
		state:  s.state,
		target: s.target,
		snap: Snapshot{
			ID:        s.ID,
			UserID:    s.User.ID,
			UserName:  s.User.Name,
			Command:   s.Def.Name,
			Title:     s.Def.Title,
			Kind:      s.Def.Kind,
			State:     s.state.String(),
			Index:     s.index,
			Answered:  len(s.trail),
			Total:     s.flow.total(),
			Correct:   s.flow.score(),
			ChatID:    s.target.ChatID,
			StartedAt: s.StartedAt,
		},
	}
	s.pmu.Lock()
	s.progress = p
	s.pmu.Unlock()
}

// Record converts a closed session into a history row. ok is false for
// sessions that are still open or were abandoned.
func (s *Session) Record() (rec models.PlayRecord, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record()
}

func (s *Session) record() (models.PlayRecord, bool) {
	rec := models.PlayRecord{
		UserID:   s.User.ID,
		UserName: s.User.Name,
		ChatID:   s.target.ChatID,
		Command:  s.Def.Name,
		Title:    s.Def.Title,
		Kind:     s.Def.Kind,
		Correct:  s.flow.score(),
		Answered: len(s.trail),
		Total:    s.flow.total(),
	}
	switch s.state {
	case Finalized:
		rec.Status = models.PlayStatusFinished
	case TimedOut:
		rec.Status = models.PlayStatusTimedOut
	default:
		return models.PlayRecord{}, false
	}

	if s.summary != nil {
		rec.Percentage = s.summary.Percent
		if s.Def.Kind == models.KindQuiz {
			rec.Grade = s.summary.Grade.Label()
		}
		if d := s.summary.Diagnosis; d != nil {
			rec.ResultCode = d.Result.TypeCode
			rec.ResultName = d.Result.TypeName
		}
	} else if rec.Answered > 0 && s.Def.Kind == models.KindQuiz {
		rec.Percentage = rec.Correct * 100 / rec.Answered
	}
	return rec, true
}

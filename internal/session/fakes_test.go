package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/services"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

type call struct {
	kind   string
	target Target
}

type fakeRenderer struct {
	mu        sync.Mutex
	calls     []call
	questions []QuestionView
	outcomes  []Outcome
	summaries []Summary
	timeouts  []TimeoutReport
	nextMsg   int64
	// failOn makes the named render kind fail.
	failOn string
	// before runs ahead of every render, outside mu.
	before func(kind string)
}

func (r *fakeRenderer) record(kind string, t Target) (Target, error) {
	if r.before != nil {
		r.before(kind)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{kind: kind, target: t})
	if r.failOn == kind {
		return Target{}, errors.New("message to edit not found")
	}
	r.nextMsg++
	return Target{ChatID: t.ChatID, MessageID: 100 + r.nextMsg}, nil
}

func (r *fakeRenderer) RenderQuestion(_ context.Context, t Target, q QuestionView) (Target, error) {
	r.mu.Lock()
	r.questions = append(r.questions, q)
	r.mu.Unlock()
	return r.record("question", t)
}

func (r *fakeRenderer) RenderFeedback(_ context.Context, t Target, _ QuestionView, o Outcome) (Target, error) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
	return r.record("feedback", t)
}

func (r *fakeRenderer) RenderSummary(_ context.Context, t Target, s Summary) (Target, error) {
	r.mu.Lock()
	r.summaries = append(r.summaries, s)
	r.mu.Unlock()
	return r.record("summary", t)
}

func (r *fakeRenderer) RenderTimeout(_ context.Context, t Target, rep TimeoutReport) (Target, error) {
	r.mu.Lock()
	r.timeouts = append(r.timeouts, rep)
	r.mu.Unlock()
	return r.record("timeout", t)
}

func (r *fakeRenderer) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.kind
	}
	return out
}

type fakeSource struct {
	quiz      []models.QuestionRecord
	diagnosis services.DiagnosisSet
	err       error
}

func (f *fakeSource) Quiz(_ context.Context, sheet string) ([]models.QuestionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.quiz) == 0 {
		return nil, &sheets.DataFetchError{Sheet: sheet, Err: sheets.ErrNoRows}
	}
	return f.quiz, nil
}

func (f *fakeSource) Diagnosis(_ context.Context, q, _ string) (services.DiagnosisSet, error) {
	if f.err != nil {
		return services.DiagnosisSet{}, f.err
	}
	return f.diagnosis, nil
}

type fakeRecorder struct {
	mu      sync.Mutex
	records []models.PlayRecord
}

func (f *fakeRecorder) Record(_ context.Context, rec models.PlayRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return nil
}

type fakeSink struct {
	mu     sync.Mutex
	events []EventType
}

func (f *fakeSink) Publish(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e.Type)
}

func (f *fakeSink) types() []EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EventType(nil), f.events...)
}

// manualTimer fires only when the test calls fire.
type manualTimer struct {
	mu      sync.Mutex
	fn      func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (t *manualTimer) fire() {
	t.fn()
}

func quizQuestion(id string, correct int, opts ...string) models.QuestionRecord {
	q := models.QuestionRecord{ID: id, Prompt: "Q" + id, CorrectIndex: correct, Explanation: "because " + id}
	for i, o := range opts {
		q.Options = append(q.Options, models.Option{Label: models.OptionLetter(i), Text: o})
	}
	return q
}

type harness struct {
	mgr      *Manager
	renderer *fakeRenderer
	source   *fakeSource
	recorder *fakeRecorder
	sink     *fakeSink
	timers   []*manualTimer
	clock    time.Time
}

func newHarness(source *fakeSource) *harness {
	h := &harness{
		renderer: &fakeRenderer{},
		source:   source,
		recorder: &fakeRecorder{},
		sink:     &fakeSink{},
		clock:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	mgr, err := NewManager(source, h.renderer, Options{
		Timeout:  5 * time.Minute,
		NodeID:   1,
		Recorder: h.recorder,
		Events:   h.sink,
		Shuffle:  func([]models.QuestionRecord) {},
	})
	if err != nil {
		panic(err)
	}
	mgr.now = func() time.Time { return h.clock }
	mgr.sleep = func(context.Context, time.Duration) error { return nil }
	mgr.supervisor.afterFunc = func(_ time.Duration, f func()) Timer {
		t := &manualTimer{fn: f}
		h.timers = append(h.timers, t)
		return t
	}
	h.mgr = mgr
	return h
}

var (
	quizDef = models.CommandDef{Name: "music_quiz", Kind: models.KindQuiz, Title: "音楽クイズ", QuestionsSheet: "quiz"}
	diagDef = models.CommandDef{Name: "type_check", Kind: models.KindDiagnosis, Title: "タイプ診断", QuestionsSheet: "dq", ResultsSheet: "dr"}
	alice   = User{ID: 42, Name: "alice"}
	chat    = Target{ChatID: -100, MessageID: 1}
)

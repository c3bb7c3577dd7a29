package session

import (
	"context"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/services"
)

// Target is the message a session currently renders into. It changes when
// the user clicks (the click carries its message) and when the renderer has
// to send a new message instead of editing.
type Target struct {
	ChatID    int64
	MessageID int64
}

func (t Target) IsZero() bool {
	return t.ChatID == 0 && t.MessageID == 0
}

type OptionView struct {
	Choice   Choice
	Label    string
	Text     string
	ImageURL string
}

// QuestionView is everything needed to draw one prompt.
type QuestionView struct {
	SessionID string
	Kind      models.Kind
	Title     string
	Index     int
	Total     int
	Correct   int
	AxisName  string
	Prompt    string
	Options   []OptionView
	// LetterButtons is set when options carry images; buttons then show the
	// letter only and the option text goes in the album caption.
	LetterButtons bool
	ImageURL      string
	AudioURL      string
}

func (v QuestionView) HasMedia() bool {
	if v.AudioURL != "" || v.ImageURL != "" {
		return true
	}
	for _, o := range v.Options {
		if o.ImageURL != "" {
			return true
		}
	}
	return false
}

// Outcome is the result of one accepted choice.
type Outcome struct {
	Index       int
	Total       int
	Chosen      string
	IsCorrect   bool
	CorrectText string
	Explanation string
	Code        string
	Finished    bool
}

// Entry is one answered question in the review trail.
type Entry struct {
	Index       int
	Prompt      string
	Chosen      string
	Correct     string
	Explanation string
	IsCorrect   bool
	Code        string
}

type Summary struct {
	SessionID string
	Kind      models.Kind
	Title     string
	UserName  string
	Command   string
	Correct   int
	Total     int
	Percent   int
	Grade     services.Grade
	// Diagnosis is set for diagnosis sessions.
	Diagnosis *services.Resolution
	Tally     map[string]int
	Trail     []Entry
}

// TimeoutReport describes progress at the moment the deadline hit. Correct is
// out of Answered, not Total.
type TimeoutReport struct {
	SessionID string
	Kind      models.Kind
	Title     string
	Command   string
	Correct   int
	Answered  int
	Total     int
}

// Renderer draws sessions. Each call returns the target now showing the
// session, which may differ from the one passed in.
type Renderer interface {
	RenderQuestion(ctx context.Context, t Target, q QuestionView) (Target, error)
	RenderFeedback(ctx context.Context, t Target, q QuestionView, o Outcome) (Target, error)
	RenderSummary(ctx context.Context, t Target, s Summary) (Target, error)
	RenderTimeout(ctx context.Context, t Target, r TimeoutReport) (Target, error)
}

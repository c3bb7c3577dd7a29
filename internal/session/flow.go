package session

import (
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/services"
)

// flow holds the kind-specific questions and scoring of a session.
type flow interface {
	total() int
	view(i int) QuestionView
	apply(i, option int) (Entry, Outcome, error)
	score() int
	summary(s *Summary) error
}

type quizFlow struct {
	questions []models.QuestionRecord
	correct   int
}

func (f *quizFlow) total() int { return len(f.questions) }

func (f *quizFlow) view(i int) QuestionView {
	q := f.questions[i]
	letters := q.HasImages()
	opts := make([]OptionView, len(q.Options))
	for j, o := range q.Options {
		label := o.DisplayText()
		if letters {
			label = o.Label
		}
		opts[j] = OptionView{
			Choice:   Choice{Question: i, Option: j + 1},
			Label:    label,
			Text:     o.Text,
			ImageURL: o.ImageURL,
		}
	}
	return QuestionView{
		Index:         i,
		Total:         len(f.questions),
		Prompt:        q.Prompt,
		Options:       opts,
		LetterButtons: letters,
		AudioURL:      q.AudioURL,
	}
}

func (f *quizFlow) apply(i, option int) (Entry, Outcome, error) {
	q := f.questions[i]
	if option < 1 || option > len(q.Options) {
		return Entry{}, Outcome{}, ErrInvalidChoice
	}

	ok := option == q.CorrectIndex
	if ok {
		f.correct++
	}
	chosen, correct := q.OptionLabel(option), q.OptionLabel(q.CorrectIndex)
	e := Entry{
		Index:       i,
		Prompt:      q.Prompt,
		Chosen:      chosen,
		Correct:     correct,
		Explanation: q.Explanation,
		IsCorrect:   ok,
	}
	o := Outcome{
		Index:       i,
		Total:       len(f.questions),
		Chosen:      chosen,
		IsCorrect:   ok,
		CorrectText: correct,
		Explanation: q.Explanation,
	}
	return e, o, nil
}

func (f *quizFlow) score() int { return f.correct }

func (f *quizFlow) summary(s *Summary) error {
	s.Correct = f.correct
	s.Total = len(f.questions)
	s.Percent = services.Percentage(f.correct, s.Total)
	s.Grade = services.GradeFor(s.Percent)
	return nil
}

type diagnosisFlow struct {
	questions []models.DiagnosisQuestion
	rules     []services.Rule
	resolver  *services.Resolver
	tally     map[string]int
}

func (f *diagnosisFlow) total() int { return len(f.questions) }

func (f *diagnosisFlow) view(i int) QuestionView {
	q := f.questions[i]
	return QuestionView{
		Index:    i,
		Total:    len(f.questions),
		AxisName: q.AxisName,
		Prompt:   q.Prompt,
		Options: []OptionView{
			{Choice: Choice{Question: i, Option: 1}, Label: q.Option1, Text: q.Option1},
			{Choice: Choice{Question: i, Option: 2}, Label: q.Option2, Text: q.Option2},
		},
		ImageURL: q.ImageURL,
	}
}

func (f *diagnosisFlow) apply(i, option int) (Entry, Outcome, error) {
	if option != 1 && option != 2 {
		return Entry{}, Outcome{}, ErrInvalidChoice
	}
	q := f.questions[i]
	code := q.Code(option)
	f.tally[code]++

	chosen := q.OptionText(option)
	e := Entry{Index: i, Prompt: q.Prompt, Chosen: chosen, Code: code}
	o := Outcome{Index: i, Total: len(f.questions), Chosen: chosen, Code: code}
	return e, o, nil
}

func (f *diagnosisFlow) score() int { return 0 }

func (f *diagnosisFlow) summary(s *Summary) error {
	res, err := f.resolver.Resolve(f.tally, f.rules)
	if err != nil {
		return err
	}
	s.Total = len(f.questions)
	s.Diagnosis = &res
	s.Tally = make(map[string]int, len(f.tally))
	for k, v := range f.tally {
		s.Tally[k] = v
	}
	return nil
}

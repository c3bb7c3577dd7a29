package models

import (
	"fmt"
	"strconv"
)

// QuestionRecord is one quiz question parsed from a spreadsheet row.
// CorrectIndex is 1-based, as authored in the sheet.
type QuestionRecord struct {
	ID           string
	Prompt       string
	Options      []Option
	CorrectIndex int
	Explanation  string
	AudioURL     string
}

type quizRow struct {
	Prompt        string `col:"text" validate:"required"`
	CorrectAnswer string `col:"correct_answer" validate:"required"`
}

// ParseQuestion builds a QuestionRecord from one row keyed by header name.
//
// Options are read from option_1..option_9 (and option_N_image) until the first
// slot that has neither text nor image. An image-only option is labelled
// "選択肢A", "選択肢B"... by its position.
func ParseQuestion(row map[string]string) (QuestionRecord, error) {
	id := idOf(row, "question_id")
	raw := quizRow{
		Prompt:        field(row, "text", "question_text"),
		CorrectAnswer: field(row, "correct_answer"),
	}
	if err := validateRow(id, raw); err != nil {
		return QuestionRecord{}, err
	}

	options := make([]Option, 0, MaxOptionSlots)
	for i := 1; i <= MaxOptionSlots; i++ {
		text := field(row, fmt.Sprintf("option_%d", i))
		image := field(row, fmt.Sprintf("option_%d_image", i))
		if text == "" && image == "" {
			break
		}
		options = append(options, Option{
			Label:    OptionLetter(i - 1),
			Text:     text,
			ImageURL: ConvertMediaLink(image),
		})
	}
	if len(options) == 0 {
		return QuestionRecord{}, malformed(id, "no options (option_1 is empty)")
	}

	correct, err := strconv.Atoi(raw.CorrectAnswer)
	if err != nil {
		return QuestionRecord{}, malformed(id, fmt.Sprintf("correct_answer %q is not a number", raw.CorrectAnswer))
	}
	if correct < 1 || correct > len(options) {
		return QuestionRecord{}, malformed(id, fmt.Sprintf("correct_answer %d is outside options 1..%d", correct, len(options)))
	}

	return QuestionRecord{
		ID:           id,
		Prompt:       raw.Prompt,
		Options:      options,
		CorrectIndex: correct,
		Explanation:  field(row, "explanation"),
		AudioURL:     ConvertMediaLink(field(row, "audio_url")),
	}, nil
}

// CorrectOption returns the option at CorrectIndex.
func (q QuestionRecord) CorrectOption() Option {
	return q.Options[q.CorrectIndex-1]
}

// HasImages reports whether any option carries an image. Such questions use
// letter buttons instead of option text.
func (q QuestionRecord) HasImages() bool {
	for _, o := range q.Options {
		if o.HasImage() {
			return true
		}
	}
	return false
}

// OptionLabel is how option i (1-based) is named to the user: its letter when
// the question shows images, its text otherwise.
func (q QuestionRecord) OptionLabel(i int) string {
	o := q.Options[i-1]
	if q.HasImages() {
		return "選択肢 " + o.Label
	}
	return o.DisplayText()
}

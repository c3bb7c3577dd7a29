package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizRowFixture() map[string]string {
	return map[string]string{
		"question_id":    "Q1",
		"text":           "ヴィヴァルディの「四季」で最初の曲は？",
		"option_1":       "春",
		"option_2":       "夏",
		"option_3":       "秋",
		"option_4":       "冬",
		"correct_answer": "1",
		"explanation":    "「春」から始まります。",
	}
}

func TestParseQuestion_Valid(t *testing.T) {
	q, err := ParseQuestion(quizRowFixture())
	require.NoError(t, err)

	assert.Equal(t, "Q1", q.ID)
	assert.Equal(t, 1, q.CorrectIndex)
	require.Len(t, q.Options, 4)
	assert.Equal(t, []string{"春", "夏", "秋", "冬"}, optionTexts(q.Options))
	assert.Equal(t, "A", q.Options[0].Label)
	assert.Equal(t, "D", q.Options[3].Label)
	assert.Equal(t, "春", q.CorrectOption().Text)
	assert.False(t, q.HasImages())
	assert.Equal(t, "夏", q.OptionLabel(2))
}

func TestParseQuestion_StopsAtFirstEmptySlot(t *testing.T) {
	row := quizRowFixture()
	row["option_3"] = ""
	row["option_4"] = "ignored"

	q, err := ParseQuestion(row)
	require.NoError(t, err)
	assert.Equal(t, []string{"春", "夏"}, optionTexts(q.Options))
}

func TestParseQuestion_ImageOnlyOption(t *testing.T) {
	row := quizRowFixture()
	row["option_2"] = ""
	row["option_2_image"] = "https://drive.google.com/file/d/abc123/view?usp=sharing"

	q, err := ParseQuestion(row)
	require.NoError(t, err)
	require.Len(t, q.Options, 4)

	opt := q.Options[1]
	assert.Equal(t, "", opt.Text)
	assert.Equal(t, "選択肢B", opt.DisplayText())
	assert.Equal(t, "https://drive.google.com/uc?export=view&id=abc123", opt.ImageURL)
	assert.True(t, q.HasImages())
	assert.Equal(t, "選択肢 A", q.OptionLabel(1))
}

func TestParseQuestion_OptionalFields(t *testing.T) {
	row := quizRowFixture()
	delete(row, "explanation")
	row["audio_url"] = "  https://example.com/a.mp3 "

	q, err := ParseQuestion(row)
	require.NoError(t, err)
	assert.Empty(t, q.Explanation)
	assert.Equal(t, "https://example.com/a.mp3", q.AudioURL)
}

func TestParseQuestion_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]string)
		reason string
	}{
		{"missing text", func(r map[string]string) { delete(r, "text") }, "text"},
		{"missing correct answer", func(r map[string]string) { r["correct_answer"] = " " }, "correct_answer"},
		{"no options", func(r map[string]string) { r["option_1"] = "" }, "no options"},
		{"non numeric answer", func(r map[string]string) { r["correct_answer"] = "one" }, "not a number"},
		{"answer too large", func(r map[string]string) { r["correct_answer"] = "5" }, "outside options"},
		{"answer zero", func(r map[string]string) { r["correct_answer"] = "0" }, "outside options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := quizRowFixture()
			tt.mutate(row)

			_, err := ParseQuestion(row)
			require.Error(t, err)

			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, "Q1", mre.RecordID)
			assert.Contains(t, mre.Reason, tt.reason)
		})
	}
}

func TestParseQuestion_PreservesOptionOrderAndCount(t *testing.T) {
	row := map[string]string{"text": "q", "correct_answer": "9"}
	want := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}
	for i, w := range want {
		row["option_"+w] = "opt" + want[i]
	}

	q, err := ParseQuestion(row)
	require.NoError(t, err)
	require.Len(t, q.Options, MaxOptionSlots)
	for i, o := range q.Options {
		assert.Equal(t, "opt"+want[i], o.Text)
		assert.Equal(t, OptionLetter(i), o.Label)
	}
}

func optionTexts(opts []Option) []string {
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Text
	}
	return out
}

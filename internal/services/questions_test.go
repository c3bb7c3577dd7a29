package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

type fakeRows map[string][]sheets.Row

func (f fakeRows) Rows(_ context.Context, sheet string) ([]sheets.Row, error) {
	rows, ok := f[sheet]
	if !ok || len(rows) == 0 {
		return nil, &sheets.DataFetchError{Sheet: sheet, Err: sheets.ErrNoRows}
	}
	return rows, nil
}

func TestQuizLoadsAllRows(t *testing.T) {
	svc := NewQuestionService(fakeRows{"quiz": {
		{"question_id": "1", "text": "Q1", "option_1": "a", "option_2": "b", "correct_answer": "2"},
		{"question_id": "2", "text": "Q2", "option_1": "c", "correct_answer": "1"},
	}})

	qs, err := svc.Quiz(context.Background(), "quiz")
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "b", qs[0].CorrectOption().Text)
}

func TestQuizReportsSheetAndRow(t *testing.T) {
	svc := NewQuestionService(fakeRows{"quiz": {
		{"question_id": "1", "text": "Q1", "option_1": "a", "correct_answer": "1"},
		{"question_id": "2", "text": "", "option_1": "a", "correct_answer": "1"},
	}})

	_, err := svc.Quiz(context.Background(), "quiz")
	var mre *models.MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, "quiz", mre.Sheet)
	// second data row sits below the header on sheet row 3
	assert.Equal(t, 3, mre.Row)
	assert.Equal(t, "2", mre.RecordID)
}

func TestQuizPassesFetchErrors(t *testing.T) {
	_, err := NewQuestionService(fakeRows{}).Quiz(context.Background(), "missing")
	var dfe *sheets.DataFetchError
	assert.True(t, errors.As(err, &dfe))
}

func TestDiagnosisCompilesRules(t *testing.T) {
	svc := NewQuestionService(fakeRows{
		"dq": {
			{"question_id": "1", "question_text": "朝型?", "option_1": "はい", "option_2": "いいえ", "code_1": "x", "code_2": "y"},
		},
		"dr": {
			{"type_id": "1", "type_code": "X", "type_name": "朝型", "conditions": "x>=y"},
			{"type_id": "2", "type_code": "Y", "type_name": "夜型", "conditions": "y>x"},
		},
	})

	set, err := svc.Diagnosis(context.Background(), "dq", "dr")
	require.NoError(t, err)
	require.Len(t, set.Questions, 1)
	require.Len(t, set.Rules, 2)
	assert.Equal(t, Condition{{"y", OpGreater, "x"}}, set.Rules[1].Condition)
}

func TestDiagnosisRejectsBadCondition(t *testing.T) {
	svc := NewQuestionService(fakeRows{
		"dq": {
			{"question_text": "Q", "option_1": "a", "option_2": "b", "code_1": "x", "code_2": "y"},
		},
		"dr": {
			{"type_id": "1", "type_code": "X", "type_name": "X", "conditions": "x>=y"},
			{"type_id": "2", "type_code": "Y", "type_name": "Y", "conditions": "y==x"},
		},
	})

	_, err := svc.Diagnosis(context.Background(), "dq", "dr")
	var mre *models.MalformedRecordError
	require.True(t, errors.As(err, &mre))
	assert.Equal(t, 3, mre.Row)
	assert.Contains(t, mre.Error(), "dr row 3")
	var mce *MalformedConditionError
	assert.True(t, errors.As(err, &mce))
}

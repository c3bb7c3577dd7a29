package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/sheets"
)

// RowSource is satisfied by *sheets.Loader.
type RowSource interface {
	Rows(ctx context.Context, sheet string) ([]sheets.Row, error)
}

// DiagnosisSet is everything a diagnosis session needs.
type DiagnosisSet struct {
	Questions []models.DiagnosisQuestion
	Rules     []Rule
}

// QuestionService loads and validates question sets from the spreadsheet.
// Any malformed row rejects the whole set.
type QuestionService struct {
	rows RowSource
	log  *slog.Logger
}

func NewQuestionService(rows RowSource) *QuestionService {
	return &QuestionService{rows: rows, log: logger.For("questions")}
}

func (s *QuestionService) Quiz(ctx context.Context, sheet string) ([]models.QuestionRecord, error) {
	rows, err := s.rows.Rows(ctx, sheet)
	if err != nil {
		return nil, err
	}
	return parseAll(sheet, rows, models.ParseQuestion)
}

func (s *QuestionService) Diagnosis(ctx context.Context, questionSheet, resultSheet string) (DiagnosisSet, error) {
	rows, err := s.rows.Rows(ctx, questionSheet)
	if err != nil {
		return DiagnosisSet{}, err
	}
	questions, err := parseAll(questionSheet, rows, models.ParseDiagnosisQuestion)
	if err != nil {
		return DiagnosisSet{}, err
	}

	rows, err = s.rows.Rows(ctx, resultSheet)
	if err != nil {
		return DiagnosisSet{}, err
	}
	results, err := parseAll(resultSheet, rows, models.ParseDiagnosisResult)
	if err != nil {
		return DiagnosisSet{}, err
	}

	rules, err := CompileRules(resultSheet, results)
	if err != nil {
		return DiagnosisSet{}, err
	}

	s.log.DebugContext(ctx, "loaded diagnosis",
		"questions", len(questions), "results", len(rules), "sheet", questionSheet)
	return DiagnosisSet{Questions: questions, Rules: rules}, nil
}

// CompileRules parses every result condition. A bad expression is reported as
// a MalformedRecordError wrapping the MalformedConditionError.
func CompileRules(sheet string, results []models.DiagnosisResult) ([]Rule, error) {
	rules := make([]Rule, 0, len(results))
	for i, r := range results {
		rule, err := NewRule(r)
		if err != nil {
			return nil, &models.MalformedRecordError{
				Sheet:    sheet,
				Row:      sheetRow(i),
				RecordID: r.ID,
				Reason:   err.Error(),
				Err:      err,
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parseAll[T any](sheet string, rows []sheets.Row, parse func(map[string]string) (T, error)) ([]T, error) {
	out := make([]T, 0, len(rows))
	for i, row := range rows {
		rec, err := parse(row)
		if err != nil {
			var mre *models.MalformedRecordError
			if errors.As(err, &mre) {
				mre.Sheet = sheet
				mre.Row = sheetRow(i)
				return nil, mre
			}
			return nil, fmt.Errorf("%s row %d: %w", sheet, sheetRow(i), err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// sheetRow is the row number a sheet editor sees for the i-th data row; the
// header occupies row 1.
func sheetRow(i int) int {
	return i + 2
}

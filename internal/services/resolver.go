package services

import (
	"errors"
	"log/slog"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
)

var ErrNoCandidates = errors.New("no result candidates")

// Rule is a diagnosis result with its compiled condition. A nil Condition
// marks an expression that failed to parse; such a rule never matches.
type Rule struct {
	Result    models.DiagnosisResult
	Condition Condition
}

// NewRule compiles the result's condition expression.
func NewRule(r models.DiagnosisResult) (Rule, error) {
	cond, err := ParseCondition(r.Condition)
	if err != nil {
		return Rule{Result: r}, err
	}
	return Rule{Result: r, Condition: cond}, nil
}

type Resolution struct {
	Result models.DiagnosisResult
	// Matched is false when no rule held and the first rule was used instead.
	Matched bool
	// Skipped counts rules ignored because their condition did not parse.
	Skipped int
}

type Resolver struct {
	log *slog.Logger
}

func NewResolver() *Resolver {
	return &Resolver{log: logger.For("resolver")}
}

// Resolve returns the first rule, in authored order, whose clauses all hold
// for the tally. When none holds it falls back to the first rule.
func (r *Resolver) Resolve(tally map[string]int, rules []Rule) (Resolution, error) {
	if len(rules) == 0 {
		return Resolution{}, ErrNoCandidates
	}

	skipped := 0
	for _, rule := range rules {
		if rule.Condition == nil {
			skipped++
			continue
		}
		if rule.Condition.Holds(tally) {
			return Resolution{Result: rule.Result, Matched: true, Skipped: skipped}, nil
		}
	}

	r.log.Warn("no diagnosis rule matched, using first result",
		"tally", tally, "fallback", rules[0].Result.TypeCode, "skipped", skipped)
	return Resolution{Result: rules[0].Result, Matched: false, Skipped: skipped}, nil
}

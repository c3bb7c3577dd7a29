package services

import (
	"fmt"
	"strings"
)

type Operator string

const (
	OpGreaterEqual Operator = ">="
	OpGreater      Operator = ">"
)

// Clause compares the tally counts of two codes.
type Clause struct {
	Left  string
	Op    Operator
	Right string
}

// Holds evaluates the clause; codes absent from the tally count as 0.
func (c Clause) Holds(tally map[string]int) bool {
	l, r := tally[c.Left], tally[c.Right]
	if c.Op == OpGreater {
		return l > r
	}
	return l >= r
}

func (c Clause) String() string {
	return c.Left + string(c.Op) + c.Right
}

// Condition is a conjunction of clauses.
type Condition []Clause

func (c Condition) Holds(tally map[string]int) bool {
	for _, cl := range c {
		if !cl.Holds(tally) {
			return false
		}
	}
	return true
}

type MalformedConditionError struct {
	Expression string
	Clause     string
}

func (e *MalformedConditionError) Error() string {
	if e.Clause == "" {
		return fmt.Sprintf("malformed condition %q", e.Expression)
	}
	return fmt.Sprintf("malformed condition %q: bad clause %q", e.Expression, e.Clause)
}

// ParseCondition parses comma-separated clauses such as "u>=U,l>L".
// Only >= and > are recognised; anything else is an error.
func ParseCondition(expr string) (Condition, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &MalformedConditionError{Expression: expr}
	}

	parts := strings.Split(expr, ",")
	cond := make(Condition, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		cl, ok := parseClause(part)
		if !ok {
			return nil, &MalformedConditionError{Expression: expr, Clause: part}
		}
		cond = append(cond, cl)
	}
	if len(cond) == 0 {
		return nil, &MalformedConditionError{Expression: expr}
	}
	return cond, nil
}

func parseClause(s string) (Clause, bool) {
	op := OpGreaterEqual
	left, right, found := strings.Cut(s, string(OpGreaterEqual))
	if !found {
		op = OpGreater
		left, right, found = strings.Cut(s, string(OpGreater))
	}
	if !found {
		return Clause{}, false
	}

	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if !isCode(left) || !isCode(right) {
		return Clause{}, false
	}
	return Clause{Left: left, Op: op, Right: right}, true
}

func isCode(s string) bool {
	return s != "" && !strings.ContainsAny(s, "<>=! \t")
}

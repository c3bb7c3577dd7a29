package session

import (
	"fmt"
	"strconv"
	"strings"
)

// Choice identifies one button: the question it belongs to (0-based position
// in the session) and the option picked (1-based).
type Choice struct {
	Question int
	Option   int
}

// Token encodes the choice for the button payload.
func (c Choice) Token() string {
	return strconv.Itoa(c.Question) + ":" + strconv.Itoa(c.Option)
}

func ParseChoice(token string) (Choice, error) {
	q, o, ok := strings.Cut(token, ":")
	if !ok {
		return Choice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, token)
	}
	qi, err := strconv.Atoi(q)
	if err != nil || qi < 0 {
		return Choice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, token)
	}
	oi, err := strconv.Atoi(o)
	if err != nil || oi < 1 {
		return Choice{}, fmt.Errorf("%w: %q", ErrInvalidChoice, token)
	}
	return Choice{Question: qi, Option: oi}, nil
}

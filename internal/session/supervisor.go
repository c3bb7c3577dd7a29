package session

import (
	"context"
	"time"
)

type Timer interface {
	Stop() bool
}

// Supervisor arms one deadline per session. The deadline bounds the whole
// session and is never pushed back by activity.
type Supervisor struct {
	timeout   time.Duration
	afterFunc func(time.Duration, func()) Timer
}

func NewSupervisor(timeout time.Duration) *Supervisor {
	return &Supervisor{
		timeout: timeout,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
}

func (sv *Supervisor) Timeout() time.Duration {
	return sv.timeout
}

// Arm starts the session's deadline. The timer is stored under the session
// lock, so a deadline that fires at once still finds it set.
func (sv *Supervisor) Arm(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = sv.afterFunc(sv.timeout, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s.OnTimeout(ctx)
	})
}

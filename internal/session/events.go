package session

import (
	"time"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
)

type EventType string

const (
	EventStarted   EventType = "session_started"
	EventAnswered  EventType = "answer_recorded"
	EventFinished  EventType = "session_finished"
	EventTimedOut  EventType = "session_timed_out"
	EventAbandoned EventType = "session_abandoned"
)

type Event struct {
	Type      EventType   `json:"type"`
	SessionID string      `json:"session_id"`
	UserID    int64       `json:"user_id"`
	UserName  string      `json:"user_name"`
	Command   string      `json:"command"`
	Kind      models.Kind `json:"kind"`
	Index     int         `json:"index"`
	Answered  int         `json:"answered"`
	Total     int         `json:"total"`
	Correct   int         `json:"correct"`
	At        time.Time   `json:"at"`
}

// EventSink receives lifecycle events. Publish must not block.
type EventSink interface {
	Publish(Event)
}

package models

import "time"

const (
	PlayStatusFinished = "finished"
	PlayStatusTimedOut = "timed_out"
)

// PlayRecord is one finished or timed-out session, kept for /history.
type PlayRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     int64     `gorm:"not null;index:idx_play_user_time" json:"user_id"`
	UserName   string    `gorm:"size:100" json:"user_name"`
	ChatID     int64     `gorm:"not null" json:"chat_id"`
	Command    string    `gorm:"size:32;not null" json:"command"`
	Title      string    `gorm:"size:255" json:"title"`
	Kind       Kind      `gorm:"size:10;not null" json:"kind"`
	Status     string    `gorm:"size:20;not null" json:"status"`
	Correct    int       `gorm:"not null;default:0" json:"correct"`
	Answered   int       `gorm:"not null;default:0" json:"answered"`
	Total      int       `gorm:"not null;default:0" json:"total"`
	Percentage int       `gorm:"not null;default:0" json:"percentage"`
	Grade      string    `gorm:"size:100" json:"grade,omitempty"`
	ResultCode string    `gorm:"size:50" json:"result_code,omitempty"`
	ResultName string    `gorm:"size:255" json:"result_name,omitempty"`
	CreatedAt  time.Time `gorm:"index:idx_play_user_time" json:"created_at"`
}

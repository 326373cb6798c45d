package models

import (
	"time"
)

// Notification is a queued email for the notify worker. Created when a new
// tournament is announced; delivery is fire-and-forget and never blocks the
// request that queued it.
type Notification struct {
	ID         string     `json:"id" gorm:"primaryKey"`
	PlayerID   string     `json:"player_id" gorm:"index;not null"`
	Email      string     `json:"email" gorm:"not null"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body" gorm:"type:text"`
	Sent       bool       `json:"sent" gorm:"default:false;index"`
	Attempts   int        `json:"attempts" gorm:"default:0"`
	LastError  string     `json:"last_error,omitempty"`
	SentAt     *time.Time `json:"sent_at,omitempty"`

	Timestamps
}

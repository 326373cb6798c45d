package models

import (
	"time"
)

const (
	PairingProposed  = "proposed"
	PairingPublished = "published"
	PairingRejected  = "rejected"
)

// Pairing is a generated draw for a tournament: a full cycle for round_robin,
// the first round for bracket. It is proposed first so an admin can review it
// before publishing.
type Pairing struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	TournamentID  string    `json:"tournament_id" gorm:"not null;index"`
	Status        string    `json:"status" gorm:"type:varchar(16);default:'proposed'"`
	SeedingMethod string    `json:"seeding_method" gorm:"type:varchar(16)"`
	ProposedBy    string    `json:"proposed_by"`
	ProposedAt    time.Time `json:"proposed_at" gorm:"autoCreateTime"`

	Slots []PairingSlot `json:"slots,omitempty" gorm:"foreignKey:PairingID"`
}

// PairingSlot is one scheduled encounter of a draw. Entry ids reference
// TournamentRegistration rows; EntryBID empty marks a bye.
type PairingSlot struct {
	ID          string `json:"id" gorm:"primaryKey"`
	PairingID   string `json:"pairing_id" gorm:"not null;index"`
	RoundNumber int    `json:"round_number" gorm:"default:1"`
	MatchNumber int    `json:"match_number"`
	EntryAID    string `json:"entry_a_id" gorm:"not null"`
	EntryBID    string `json:"entry_b_id"`
}

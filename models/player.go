package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
	GenderMixed  = "mixed" // tournament-only wildcard, never a player value
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// Player is a chain member who can register for tournaments and record matches.
// TotalPoints is a denormalized counter kept for quick profile display; the
// ranking service always recomputes from results and matches.
type Player struct {
	ID            string  `json:"id" gorm:"primaryKey"`
	Name          string  `json:"name" gorm:"not null"`
	Email         string  `json:"email" gorm:"uniqueIndex;not null"`
	Gender        string  `json:"gender" gorm:"type:varchar(8);not null"`
	Level         string  `json:"level" gorm:"type:varchar(16);not null"`
	HomeClubID    *string `json:"home_club_id,omitempty" gorm:"index"`
	Role          string  `json:"role" gorm:"type:varchar(16);default:'player'"`
	TotalPoints   int     `json:"total_points" gorm:"default:0"`
	EmailVerified bool    `json:"email_verified" gorm:"default:false"`

	HomeClub *Club `json:"home_club,omitempty" gorm:"foreignKey:HomeClubID"`

	Timestamps
}

// ValidGender reports whether g is a valid player gender.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// ValidLevel reports whether l is a valid skill level.
func ValidLevel(l string) bool {
	return l == LevelBeginner || l == LevelIntermediate || l == LevelAdvanced
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

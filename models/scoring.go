package models

// ScoringProfile maps finishing positions to base points. At most one profile
// carries IsDefault at a time; the set-default endpoint clears the flag on all
// others inside the same transaction.
type ScoringProfile struct {
	ID                  string `json:"id" gorm:"primaryKey"`
	Name                string `json:"name" gorm:"not null"`
	IsDefault           bool   `json:"is_default" gorm:"default:false;index"`
	ParticipationPoints int    `json:"participation_points" gorm:"default:0"`

	Entries []ScoringEntry `json:"entries,omitempty" gorm:"foreignKey:ProfileID"`

	Timestamps
}

// ScoringEntry is one (position, points) row of a profile. Position is unique
// within its profile and ≥ 1.
type ScoringEntry struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ProfileID string `json:"profile_id" gorm:"not null;index;uniqueIndex:idx_profile_position"`
	Position  int    `json:"position" gorm:"not null;uniqueIndex:idx_profile_position"`
	Points    int    `json:"points" gorm:"not null"`
}

package models

import (
	"time"
)

// Match records an informal (non-tournament) match played at a club. Sides are
// teams of 1 or 2 players; per-set scores cover exactly 2 or 3 sets.
// PointsAwarded is computed once at creation from the default scoring profile
// and frozen, so later profile edits never change recorded matches.
type Match struct {
	ID       string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	ClubID   string    `json:"club_id" gorm:"index;not null"`
	PlayedAt time.Time `json:"played_at" gorm:"not null"`

	Team1Player1 string  `json:"team1_player1" gorm:"index;not null"`
	Team1Player2 *string `json:"team1_player2,omitempty"`
	Team2Player1 string  `json:"team2_player1" gorm:"index;not null"`
	Team2Player2 *string `json:"team2_player2,omitempty"`

	Set1Team1 int `json:"set1_team1"`
	Set1Team2 int `json:"set1_team2"`
	Set2Team1 int `json:"set2_team1"`
	Set2Team2 int `json:"set2_team2"`
	Set3Team1 int `json:"set3_team1"`
	Set3Team2 int `json:"set3_team2"`

	SetsPlayed    int `json:"sets_played" gorm:"not null"`
	WinnerTeam    int `json:"winner_team" gorm:"not null;check:winner_team IN (1,2)"`
	PointsAwarded int `json:"points_awarded" gorm:"default:0"`

	Timestamps
}

// Winners returns the player ids on the winning side (1 or 2 ids).
func (m *Match) Winners() []string {
	var p1 string
	var p2 *string
	if m.WinnerTeam == 1 {
		p1, p2 = m.Team1Player1, m.Team1Player2
	} else {
		p1, p2 = m.Team2Player1, m.Team2Player2
	}
	winners := []string{p1}
	if p2 != nil && *p2 != "" {
		winners = append(winners, *p2)
	}
	return winners
}

package models

import (
	"time"
)

const (
	TournamentUpcoming   = "upcoming"
	TournamentInProgress = "in_progress"
	TournamentCompleted  = "completed"
)

const (
	RegistrationIndividual = "individual"
	RegistrationCouple     = "couple"
)

const (
	FormatBracket    = "bracket"
	FormatRoundRobin = "round_robin"
)

// Tournament is a competition hosted by one club. Gender/Level form the cohort
// filter registrants must match (gender "mixed" accepts any player gender).
// MaxParticipants counts registration entries, so a couple counts as one.
type Tournament struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	Name             string     `json:"name" gorm:"not null"`
	Slug             string     `json:"slug" gorm:"index"`
	ClubID           string     `json:"club_id" gorm:"not null;index"`
	StartTime        time.Time  `json:"start_time" gorm:"not null"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	RegistrationType string     `json:"registration_type" gorm:"type:varchar(16);default:'individual'"`
	Format           string     `json:"format" gorm:"type:varchar(16);default:'bracket'"`
	Gender           string     `json:"gender" gorm:"type:varchar(8);not null"`
	Level            string     `json:"level" gorm:"type:varchar(16);not null"`
	MaxParticipants  int        `json:"max_participants" gorm:"default:0"`
	PointsMultiplier float64    `json:"points_multiplier" gorm:"default:1"`
	ScoringProfileID *string    `json:"scoring_profile_id,omitempty" gorm:"index"`
	Status           string     `json:"status" gorm:"type:varchar(16);default:'upcoming'"`
	PosterURL        string     `json:"poster_url"`

	Club           Club                     `json:"club,omitempty" gorm:"foreignKey:ClubID"`
	ScoringProfile *ScoringProfile          `json:"scoring_profile,omitempty" gorm:"foreignKey:ScoringProfileID"`
	Registrations  []TournamentRegistration `json:"registrations,omitempty" gorm:"foreignKey:TournamentID"`
	Results        []TournamentResult       `json:"results,omitempty" gorm:"foreignKey:TournamentID"`

	// Calculated fields (not stored in DB)
	EntriesCount   int64 `json:"entries_count,omitempty" gorm:"-"`
	AvailableSlots int64 `json:"available_slots,omitempty" gorm:"-"`

	Timestamps
}

// EffectiveDate is the date used against the rolling ranking window: the end
// time once played, otherwise the start time.
func (t *Tournament) EffectiveDate() time.Time {
	if t.EndTime != nil && !t.EndTime.IsZero() {
		return *t.EndTime
	}
	return t.StartTime
}

// TournamentRegistration is one occupied entry: a player, plus a partner for
// couple tournaments. A player id appears at most once per tournament, whether
// as primary or partner; the composite unique index backstops the check-then-act
// validation against concurrent requests.
type TournamentRegistration struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	TournamentID string    `json:"tournament_id" gorm:"not null;index;uniqueIndex:idx_tournament_player"`
	PlayerID     string    `json:"player_id" gorm:"not null;uniqueIndex:idx_tournament_player"`
	PartnerID    *string   `json:"partner_id,omitempty"`
	Status       string    `json:"status" gorm:"type:varchar(16);default:'confirmed'"`
	RegisteredAt time.Time `json:"registered_at" gorm:"autoCreateTime"`

	Player  *Player `json:"player,omitempty" gorm:"foreignKey:PlayerID"`
	Partner *Player `json:"partner,omitempty" gorm:"foreignKey:PartnerID"`
}

// Covers reports whether the registration names the given player, either as
// primary or as partner.
func (r *TournamentRegistration) Covers(playerID string) bool {
	if r.PlayerID == playerID {
		return true
	}
	return r.PartnerID != nil && *r.PartnerID == playerID
}

// TournamentResult is one finishing position of a concluded tournament.
// BasePoints and Multiplier are copied at assignment time and never recomputed,
// so later profile or multiplier edits leave history untouched.
type TournamentResult struct {
	ID           string  `json:"id" gorm:"primaryKey"`
	TournamentID string  `json:"tournament_id" gorm:"not null;index"`
	Position     int     `json:"position" gorm:"not null"`
	PlayerID     string  `json:"player_id" gorm:"not null;index"`
	Player2ID    *string `json:"player2_id,omitempty"`
	BasePoints   int     `json:"base_points"`
	Multiplier   float64 `json:"multiplier"`
	FinalPoints  int     `json:"final_points"`

	Timestamps
}

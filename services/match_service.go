package services

import (
	"errors"
	"log"
	"time"

	"racquet-league-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MatchService struct {
	DB      *gorm.DB
	Scoring *ScoringService
}

func NewMatchService(db *gorm.DB, scoring *ScoringService) *MatchService {
	return &MatchService{DB: db, Scoring: scoring}
}

// SetScore is one set's score pair.
type SetScore struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// RecordMatch stores an informal match. The award is computed once from the
// current default profile and frozen on the row; later profile edits never
// touch it.
func (s *MatchService) RecordMatch(c *fiber.Ctx) error {
	type Req struct {
		ClubID       string     `json:"club_id"`
		PlayedAt     string     `json:"played_at"` // RFC3339, defaults to now
		Team1Player1 string     `json:"team1_player1"`
		Team1Player2 *string    `json:"team1_player2,omitempty"`
		Team2Player1 string     `json:"team2_player1"`
		Team2Player2 *string    `json:"team2_player2,omitempty"`
		Sets         []SetScore `json:"sets"`
		WinnerTeam   int        `json:"winner_team"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if req.ClubID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "club_id is required"})
	}
	if req.Team1Player1 == "" || req.Team2Player1 == "" {
		return c.Status(400).JSON(fiber.Map{"error": "both teams need at least one player"})
	}
	if (req.Team1Player2 == nil) != (req.Team2Player2 == nil) {
		return c.Status(400).JSON(fiber.Map{"error": "teams must have the same size"})
	}
	if req.WinnerTeam != 1 && req.WinnerTeam != 2 {
		return c.Status(400).JSON(fiber.Map{"error": "winner_team must be 1 or 2"})
	}

	// Reject bad set counts before touching the scoring rules, and the rules
	// reject them again on their own.
	setsPlayed := len(req.Sets)
	breakdown, err := CalculateMatchPoints(s.Scoring.DefaultBasePoints(), setsPlayed)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	ids := []string{req.Team1Player1, req.Team2Player1}
	for _, p := range []*string{req.Team1Player2, req.Team2Player2} {
		if p != nil && *p != "" {
			ids = append(ids, *p)
		}
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			return c.Status(400).JSON(fiber.Map{"error": "a player cannot appear twice in one match"})
		}
		seen[id] = true
	}
	var count int64
	s.DB.Model(&models.Player{}).Where("id IN ?", ids).Count(&count)
	if int(count) != len(ids) {
		return c.Status(404).JSON(fiber.Map{"error": "one or more players not found"})
	}
	if err := s.DB.First(&models.Club{}, "id = ?", req.ClubID).Error; err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "club not found"})
	}

	playedAt := time.Now()
	if req.PlayedAt != "" {
		t, err := time.Parse(time.RFC3339, req.PlayedAt)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid played_at (use RFC3339)"})
		}
		playedAt = t
	}

	match := models.Match{
		ID:            uuid.NewString(),
		ClubID:        req.ClubID,
		PlayedAt:      playedAt,
		Team1Player1:  req.Team1Player1,
		Team1Player2:  req.Team1Player2,
		Team2Player1:  req.Team2Player1,
		Team2Player2:  req.Team2Player2,
		SetsPlayed:    setsPlayed,
		WinnerTeam:    req.WinnerTeam,
		PointsAwarded: breakdown.PointsAwarded,
	}
	match.Set1Team1, match.Set1Team2 = req.Sets[0].Team1, req.Sets[0].Team2
	match.Set2Team1, match.Set2Team2 = req.Sets[1].Team1, req.Sets[1].Team2
	if setsPlayed == 3 {
		match.Set3Team1, match.Set3Team2 = req.Sets[2].Team1, req.Sets[2].Team2
	}

	if err := s.DB.Create(&match).Error; err != nil {
		log.Printf("ERROR recording match: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to record match"})
	}

	// Bump the winners' display counters.
	for _, id := range match.Winners() {
		if err := s.DB.Model(&models.Player{}).
			Where("id = ?", id).
			UpdateColumn("total_points", gorm.Expr("total_points + ?", match.PointsAwarded)).Error; err != nil {
			log.Printf("WARN: could not bump total_points for player %s: %v", id, err)
		}
	}

	return c.Status(201).JSON(fiber.Map{
		"match":     match,
		"breakdown": breakdown,
	})
}

func (s *MatchService) GetMatchByID(c *fiber.Ctx) error {
	var match models.Match
	if err := s.DB.First(&match, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(&match)
}

func (s *MatchService) GetMatches(c *fiber.Ctx) error {
	q := s.DB.Model(&models.Match{}).Order("played_at DESC")
	if clubID := c.Query("club_id"); clubID != "" {
		q = q.Where("club_id = ?", clubID)
	}
	if playerID := c.Query("player_id"); playerID != "" {
		q = q.Where(
			"team1_player1 = ? OR team1_player2 = ? OR team2_player1 = ? OR team2_player2 = ?",
			playerID, playerID, playerID, playerID,
		)
	}
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var matches []models.Match
	if err := q.Limit(limit).Find(&matches).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch matches"})
	}
	return c.JSON(matches)
}

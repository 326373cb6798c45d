package services

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"racquet-league-system/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RankingService struct {
	DB *gorm.DB
}

func NewRankingService(db *gorm.DB) *RankingService {
	return &RankingService{DB: db}
}

// RankedEntry is one row of a computed ranking list.
type RankedEntry struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Points     int    `json:"points"`
	Position   int    `json:"position"`
}

// EffectiveRollingWeeks resolves the window in weeks: a club's non-nil
// override wins (0 = explicitly unbounded), otherwise the chain default.
// 0 means no window either way.
func EffectiveRollingWeeks(club *models.Club, chainDefault int) int {
	if club != nil && club.RollingWeeks != nil {
		return *club.RollingWeeks
	}
	return chainDefault
}

// BuildRankings replays point-earning events into the seeded accumulator and
// returns the sorted list. players defines the cohort: ids outside it are
// ignored even when they appear in results or matches, which also covers
// orphaned references to deleted players. cutoff nil means unbounded history.
//
// Ties on points are broken by display name (case-insensitive), then id, so
// recomputation over the same inputs is deterministic. Equal totals still get
// distinct positions.
func BuildRankings(players []models.Player, tournaments []models.Tournament, resultsByTournament map[string][]models.TournamentResult, matches []models.Match, cutoff *time.Time) []RankedEntry {
	points := make(map[string]int, len(players))
	for _, p := range players {
		points[p.ID] = 0
	}

	for i := range tournaments {
		t := &tournaments[i]
		if t.Status != models.TournamentCompleted {
			continue
		}
		if cutoff != nil && t.EffectiveDate().Before(*cutoff) {
			continue
		}
		for _, r := range resultsByTournament[t.ID] {
			if _, ok := points[r.PlayerID]; ok {
				points[r.PlayerID] += r.FinalPoints
			}
			if r.Player2ID != nil {
				if _, ok := points[*r.Player2ID]; ok {
					points[*r.Player2ID] += r.FinalPoints
				}
			}
		}
	}

	for i := range matches {
		m := &matches[i]
		if cutoff != nil && m.PlayedAt.Before(*cutoff) {
			continue
		}
		for _, id := range m.Winners() {
			if _, ok := points[id]; ok {
				points[id] += m.PointsAwarded
			}
		}
	}

	entries := make([]RankedEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, RankedEntry{
			PlayerID:   p.ID,
			PlayerName: p.Name,
			Points:     points[p.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		ni, nj := strings.ToLower(entries[i].PlayerName), strings.ToLower(entries[j].PlayerName)
		if ni != nj {
			return ni < nj
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	for i := range entries {
		entries[i].Position = i + 1
	}
	return entries
}

// chainDefaultRollingWeeks reads the chain-wide default window; absent or
// unparsable means unbounded.
func (s *RankingService) chainDefaultRollingWeeks() int {
	var setting models.ChainSetting
	if err := s.DB.First(&setting, "name = ?", models.SettingDefaultRollingWeeks).Error; err != nil {
		return 0
	}
	weeks, err := strconv.Atoi(setting.Value)
	if err != nil || weeks < 0 {
		return 0
	}
	return weeks
}

// GetRankings computes the standing list for an optional gender/level/club
// filter. There is no persisted ranking: every call replays completed
// tournament results and informal matches inside the effective window.
func (s *RankingService) GetRankings(c *fiber.Ctx) error {
	gender := c.Query("gender")
	level := c.Query("level")
	clubID := c.Query("club_id")

	if gender != "" && !models.ValidGender(gender) {
		return c.Status(400).JSON(fiber.Map{"error": "gender must be male, female or other"})
	}
	if level != "" && !models.ValidLevel(level) {
		return c.Status(400).JSON(fiber.Map{"error": "level must be beginner, intermediate or advanced"})
	}

	// Resolve the rolling window. An unknown club id falls back to the chain
	// default rather than failing the call.
	var club *models.Club
	if clubID != "" {
		var cl models.Club
		if err := s.DB.First(&cl, "id = ?", clubID).Error; err == nil {
			club = &cl
		} else {
			log.Printf("WARN: ranking requested for unknown club %s, using chain default window", clubID)
		}
	}
	weeks := EffectiveRollingWeeks(club, s.chainDefaultRollingWeeks())
	var cutoff *time.Time
	if weeks > 0 {
		t := time.Now().AddDate(0, 0, -7*weeks)
		cutoff = &t
	}

	// Seed the accumulator with every cohort player, zero-event ones included.
	q := s.DB.Model(&models.Player{})
	if gender != "" {
		q = q.Where("gender = ?", gender)
	}
	if level != "" {
		q = q.Where("level = ?", level)
	}
	if clubID != "" {
		q = q.Where("home_club_id = ?", clubID)
	}
	var players []models.Player
	if err := q.Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch players"})
	}

	var tournaments []models.Tournament
	if err := s.DB.Where("status = ?", models.TournamentCompleted).Find(&tournaments).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	resultsByTournament := make(map[string][]models.TournamentResult, len(tournaments))
	if len(tournaments) > 0 {
		var results []models.TournamentResult
		if err := s.DB.Find(&results).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to fetch results"})
		}
		for _, r := range results {
			resultsByTournament[r.TournamentID] = append(resultsByTournament[r.TournamentID], r)
		}
	}

	var matches []models.Match
	mq := s.DB.Model(&models.Match{})
	if cutoff != nil {
		mq = mq.Where("played_at >= ?", *cutoff)
	}
	if err := mq.Find(&matches).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch matches"})
	}

	rankings := BuildRankings(players, tournaments, resultsByTournament, matches, cutoff)
	return c.JSON(fiber.Map{
		"rolling_weeks": weeks,
		"count":         len(rankings),
		"rankings":      rankings,
	})
}

package services

import (
	"errors"
	"log"
	"math"

	"racquet-league-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FallbackBasePoints is used when no default profile (or no position-1 entry)
// exists at informal match time.
const FallbackBasePoints = 100

type ScoringService struct {
	DB *gorm.DB
}

func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{DB: db}
}

// MatchPointsBreakdown shows how an informal match award was computed.
type MatchPointsBreakdown struct {
	BasePoints    int `json:"base_points"`
	SetsPlayed    int `json:"sets_played"`
	Divisor       int `json:"divisor"`
	PointsAwarded int `json:"points_awarded"`
}

var ErrInvalidSetsPlayed = errors.New("sets_played must be 2 or 3")

// CalculateMatchPoints converts sets played into the frozen award for an
// informal match. A 3-set match divides by 6 instead of 5 so a shorter,
// decisive match is worth more per set.
func CalculateMatchPoints(basePoints, setsPlayed int) (MatchPointsBreakdown, error) {
	var divisor int
	switch setsPlayed {
	case 2:
		divisor = 5
	case 3:
		divisor = 6
	default:
		return MatchPointsBreakdown{}, ErrInvalidSetsPlayed
	}
	return MatchPointsBreakdown{
		BasePoints:    basePoints,
		SetsPlayed:    setsPlayed,
		Divisor:       divisor,
		PointsAwarded: int(math.Round(float64(basePoints) / float64(divisor))),
	}, nil
}

// GetPointsForPosition resolves base points for a finishing position: an
// explicit entry wins; a position beyond the highest configured one earns the
// participation points; a hole inside the configured range earns 0.
func GetPointsForPosition(profile *models.ScoringProfile, position int) int {
	highest := 0
	for _, e := range profile.Entries {
		if e.Position == position {
			return e.Points
		}
		if e.Position > highest {
			highest = e.Position
		}
	}
	if position > highest {
		return profile.ParticipationPoints
	}
	return 0
}

// FinalPoints applies a tournament multiplier to base points.
func FinalPoints(basePoints int, multiplier float64) int {
	return int(math.Round(float64(basePoints) * multiplier))
}

// DefaultBasePoints returns the position-1 value of the default profile, or
// the fallback constant when no default profile is configured.
func (s *ScoringService) DefaultBasePoints() int {
	profile, err := s.defaultProfile()
	if err != nil {
		return FallbackBasePoints
	}
	for _, e := range profile.Entries {
		if e.Position == 1 {
			return e.Points
		}
	}
	return FallbackBasePoints
}

func (s *ScoringService) defaultProfile() (*models.ScoringProfile, error) {
	var profile models.ScoringProfile
	err := s.DB.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&profile, "is_default = ?", true).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ProfileForTournament resolves the tournament's profile, falling back to the
// chain default when none is assigned.
func (s *ScoringService) ProfileForTournament(t *models.Tournament) (*models.ScoringProfile, error) {
	if t.ScoringProfileID != nil && *t.ScoringProfileID != "" {
		var profile models.ScoringProfile
		err := s.DB.Preload("Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).First(&profile, "id = ?", *t.ScoringProfileID).Error
		if err == nil {
			return &profile, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		log.Printf("WARN: tournament %s references missing scoring profile %s, using default", t.ID, *t.ScoringProfileID)
	}
	return s.defaultProfile()
}

func (s *ScoringService) CreateProfile(c *fiber.Ctx) error {
	type EntryReq struct {
		Position int `json:"position"`
		Points   int `json:"points"`
	}
	type Req struct {
		Name                string     `json:"name"`
		ParticipationPoints int        `json:"participation_points"`
		IsDefault           bool       `json:"is_default"`
		Entries             []EntryReq `json:"entries"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}
	seen := map[int]bool{}
	for _, e := range req.Entries {
		if e.Position < 1 {
			return c.Status(400).JSON(fiber.Map{"error": "entry positions must be >= 1"})
		}
		if seen[e.Position] {
			return c.Status(400).JSON(fiber.Map{"error": "duplicate entry position"})
		}
		seen[e.Position] = true
	}

	profile := &models.ScoringProfile{
		ID:                  uuid.NewString(),
		Name:                req.Name,
		ParticipationPoints: req.ParticipationPoints,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if req.IsDefault {
			if err := tx.Model(&models.ScoringProfile{}).
				Where("is_default = ?", true).
				Update("is_default", false).Error; err != nil {
				return err
			}
			profile.IsDefault = true
		}
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		for _, e := range req.Entries {
			entry := models.ScoringEntry{
				ID:        uuid.NewString(),
				ProfileID: profile.ID,
				Position:  e.Position,
				Points:    e.Points,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR creating scoring profile: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create profile"})
	}

	s.DB.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(profile, "id = ?", profile.ID)
	return c.Status(201).JSON(profile)
}

func (s *ScoringService) GetAllProfiles(c *fiber.Ctx) error {
	var profiles []models.ScoringProfile
	err := s.DB.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Order("name ASC").Find(&profiles).Error
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch profiles"})
	}
	return c.JSON(profiles)
}

func (s *ScoringService) GetProfileByID(c *fiber.Ctx) error {
	var profile models.ScoringProfile
	err := s.DB.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&profile, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "profile not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(&profile)
}

// UpdateProfile replaces the profile's name, participation points and entry
// table. Recorded matches and assigned results keep their frozen points.
func (s *ScoringService) UpdateProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	type EntryReq struct {
		Position int `json:"position"`
		Points   int `json:"points"`
	}
	type Req struct {
		Name                string     `json:"name"`
		ParticipationPoints *int       `json:"participation_points"`
		Entries             []EntryReq `json:"entries"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	var profile models.ScoringProfile
	if err := s.DB.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "profile not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	seen := map[int]bool{}
	for _, e := range req.Entries {
		if e.Position < 1 {
			return c.Status(400).JSON(fiber.Map{"error": "entry positions must be >= 1"})
		}
		if seen[e.Position] {
			return c.Status(400).JSON(fiber.Map{"error": "duplicate entry position"})
		}
		seen[e.Position] = true
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{}
		if req.Name != "" {
			updates["name"] = req.Name
		}
		if req.ParticipationPoints != nil {
			updates["participation_points"] = *req.ParticipationPoints
		}
		if len(updates) > 0 {
			if err := tx.Model(&profile).Updates(updates).Error; err != nil {
				return err
			}
		}
		if req.Entries != nil {
			if err := tx.Where("profile_id = ?", id).Delete(&models.ScoringEntry{}).Error; err != nil {
				return err
			}
			for _, e := range req.Entries {
				entry := models.ScoringEntry{
					ID:        uuid.NewString(),
					ProfileID: id,
					Position:  e.Position,
					Points:    e.Points,
				}
				if err := tx.Create(&entry).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		log.Printf("ERROR updating scoring profile %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}

	s.DB.Preload("Entries", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&profile, "id = ?", id)
	return c.JSON(&profile)
}

// SetDefaultProfile flags one profile as the chain default. The flag is a
// single-owner invariant: all other profiles are cleared in the same
// transaction.
func (s *ScoringService) SetDefaultProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	var profile models.ScoringProfile
	if err := s.DB.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "profile not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ScoringProfile{}).
			Where("id <> ?", id).
			Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return err
		}
		return tx.Model(&profile).Update("is_default", true).Error
	})
	if err != nil {
		log.Printf("ERROR setting default profile %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to set default"})
	}
	return c.JSON(fiber.Map{"message": "default profile updated", "profile_id": id})
}

func (s *ScoringService) DeleteProfile(c *fiber.Ctx) error {
	id := c.Params("id")
	var profile models.ScoringProfile
	if err := s.DB.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "profile not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if profile.IsDefault {
		return c.Status(400).JSON(fiber.Map{"error": "cannot delete the default profile"})
	}
	var inUse int64
	s.DB.Model(&models.Tournament{}).Where("scoring_profile_id = ?", id).Count(&inUse)
	if inUse > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "profile is assigned to tournaments"})
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("profile_id = ?", id).Delete(&models.ScoringEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&profile).Error
	})
	if err != nil {
		log.Printf("ERROR deleting scoring profile %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	return c.JSON(fiber.Map{"message": "profile deleted"})
}

// PreviewMatchPoints exposes the informal-match formula without recording
// anything, so clients can show the award before submission.
func (s *ScoringService) PreviewMatchPoints(c *fiber.Ctx) error {
	setsPlayed := c.QueryInt("sets_played", 0)
	breakdown, err := CalculateMatchPoints(s.DefaultBasePoints(), setsPlayed)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(breakdown)
}

package services

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"racquet-league-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type PlayerService struct {
	DB *gorm.DB
}

func NewPlayerService(db *gorm.DB) *PlayerService {
	return &PlayerService{DB: db}
}

var nameCaser = cases.Title(language.Und, cases.NoLower)

// normalizeName trims and title-cases an all-lowercase display name; mixed
// casing is left as the player typed it.
func normalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == strings.ToLower(name) {
		return nameCaser.String(name)
	}
	return name
}

func (s *PlayerService) CreatePlayer(c *fiber.Ctx) error {
	type Req struct {
		Name       string  `json:"name"`
		Email      string  `json:"email"`
		Gender     string  `json:"gender"`
		Level      string  `json:"level"`
		HomeClubID *string `json:"home_club_id,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Name == "" || req.Email == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name and email are required"})
	}
	if !models.ValidGender(req.Gender) {
		return c.Status(400).JSON(fiber.Map{"error": "gender must be male, female or other"})
	}
	if !models.ValidLevel(req.Level) {
		return c.Status(400).JSON(fiber.Map{"error": "level must be beginner, intermediate or advanced"})
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.Player
	if err := s.DB.First(&existing, "email = ?", email).Error; err == nil {
		return c.Status(409).JSON(fiber.Map{"error": "email already registered"})
	}

	if req.HomeClubID != nil && *req.HomeClubID != "" {
		if err := s.DB.First(&models.Club{}, "id = ?", *req.HomeClubID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "home_club_id not found"})
		}
	}

	player := models.Player{
		ID:         uuid.NewString(),
		Name:       normalizeName(req.Name),
		Email:      email,
		Gender:     req.Gender,
		Level:      req.Level,
		HomeClubID: req.HomeClubID,
		Role:       models.RolePlayer,
	}
	if err := s.DB.Create(&player).Error; err != nil {
		log.Printf("ERROR creating player: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create player"})
	}
	return c.Status(201).JSON(&player)
}

func (s *PlayerService) GetPlayerByID(c *fiber.Ctx) error {
	var player models.Player
	if err := s.DB.Preload("HomeClub").First(&player, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(&player)
}

// UpdatePlayer changes cohort attributes and home club. Players may edit
// themselves; admins may edit anyone — enforced by the route setup.
func (s *PlayerService) UpdatePlayer(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Name       string  `json:"name"`
		Gender     string  `json:"gender"`
		Level      string  `json:"level"`
		HomeClubID *string `json:"home_club_id,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	var player models.Player
	if err := s.DB.First(&player, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "player not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	// Self-or-admin guard: middleware put the caller's identity in locals.
	callerID, _ := c.Locals("user_id").(string)
	if callerID != player.ID && !IsAdmin(c) {
		return c.Status(403).JSON(fiber.Map{"error": "can only edit your own profile"})
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = normalizeName(req.Name)
	}
	if req.Gender != "" {
		if !models.ValidGender(req.Gender) {
			return c.Status(400).JSON(fiber.Map{"error": "gender must be male, female or other"})
		}
		updates["gender"] = req.Gender
	}
	if req.Level != "" {
		if !models.ValidLevel(req.Level) {
			return c.Status(400).JSON(fiber.Map{"error": "level must be beginner, intermediate or advanced"})
		}
		updates["level"] = req.Level
	}
	if req.HomeClubID != nil {
		if *req.HomeClubID != "" {
			if err := s.DB.First(&models.Club{}, "id = ?", *req.HomeClubID).Error; err != nil {
				return c.Status(400).JSON(fiber.Map{"error": "home_club_id not found"})
			}
			updates["home_club_id"] = *req.HomeClubID
		} else {
			updates["home_club_id"] = nil
		}
	}
	if len(updates) > 0 {
		if err := s.DB.Model(&player).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "update failed"})
		}
	}
	s.DB.Preload("HomeClub").First(&player, "id = ?", id)
	return c.JSON(&player)
}

// UpdatePlayerRole promotes or demotes a player. Admin-gated in the routes.
func (s *PlayerService) UpdatePlayerRole(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Role string `json:"role"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.Role != models.RolePlayer && req.Role != models.RoleAdmin {
		return c.Status(400).JSON(fiber.Map{"error": "role must be player or admin"})
	}
	result := s.DB.Model(&models.Player{}).Where("id = ?", id).Update("role", req.Role)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "player not found"})
	}
	return c.JSON(fiber.Map{"message": "role updated", "player_id": id, "role": req.Role})
}

// VerifyEmail flags a player's email as verified. Called by the identity
// collaborator after the player follows the verification link.
func (s *PlayerService) VerifyEmail(c *fiber.Ctx) error {
	id := c.Params("id")
	result := s.DB.Model(&models.Player{}).Where("id = ?", id).Update("email_verified", true)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "player not found"})
	}
	return c.JSON(fiber.Map{"message": "email verified"})
}

// SearchPlayers searches by name or email.
func (s *PlayerService) SearchPlayers(c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var players []models.Player
	db := s.DB.Model(&models.Player{}).Limit(limit)
	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}
	if gender := c.Query("gender"); gender != "" {
		db = db.Where("gender = ?", gender)
	}
	if level := c.Query("level"); level != "" {
		db = db.Where("level = ?", level)
	}
	if err := db.Find(&players).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed"})
	}

	type PlayerSummary struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Gender string `json:"gender"`
		Level  string `json:"level"`
	}
	res := make([]PlayerSummary, len(players))
	for i, p := range players {
		res[i] = PlayerSummary{ID: p.ID, Name: p.Name, Gender: p.Gender, Level: p.Level}
	}
	return c.JSON(res)
}

// DeletePlayer soft-deletes a player. Historical results and matches keep the
// id on purpose; rankings skip ids that no longer resolve to a player.
func (s *PlayerService) DeletePlayer(c *fiber.Ctx) error {
	id := c.Params("id")
	result := s.DB.Delete(&models.Player{}, "id = ?", id)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "player not found"})
	}
	return c.JSON(fiber.Map{"message": "player removed"})
}

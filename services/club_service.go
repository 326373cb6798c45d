package services

import (
	"errors"
	"log"
	"path/filepath"
	"strconv"

	"racquet-league-system/models"
	"racquet-league-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type ClubService struct {
	DB *gorm.DB
}

func NewClubService(db *gorm.DB) *ClubService {
	return &ClubService{DB: db}
}

func (s *ClubService) CreateClub(c *fiber.Ctx) error {
	name := c.FormValue("name")
	if name == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name is required"})
	}

	courtCount := 0
	if v := c.FormValue("court_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "court_count must be a non-negative integer"})
		}
		courtCount = n
	}

	var rollingWeeks *int
	if v := c.FormValue("rolling_weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "rolling_weeks must be a non-negative integer"})
		}
		rollingWeeks = &n
	}

	var photoURL string
	if photo, err := c.FormFile("photo"); err == nil && photo.Size > 0 {
		ext := filepath.Ext(photo.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "clubs/photos/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(photo, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload photo"})
		}
		photoURL = url
	}

	club := models.Club{
		ID:           uuid.NewString(),
		Name:         name,
		Slug:         slug.Make(name),
		Street:       c.FormValue("street"),
		City:         c.FormValue("city"),
		PostalCode:   c.FormValue("postal_code"),
		Country:      c.FormValue("country"),
		CourtCount:   courtCount,
		PhotoURL:     photoURL,
		RollingWeeks: rollingWeeks,
	}
	if err := s.DB.Create(&club).Error; err != nil {
		log.Printf("ERROR creating club: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create club"})
	}
	return c.Status(201).JSON(&club)
}

func (s *ClubService) GetAllClubs(c *fiber.Ctx) error {
	var clubs []models.Club
	if err := s.DB.Order("name ASC").Find(&clubs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch clubs"})
	}
	return c.JSON(clubs)
}

func (s *ClubService) GetClubByID(c *fiber.Ctx) error {
	var club models.Club
	if err := s.DB.First(&club, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "club not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(&club)
}

func (s *ClubService) UpdateClub(c *fiber.Ctx) error {
	id := c.Params("id")
	var club models.Club
	if err := s.DB.First(&club, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "club not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	updates := map[string]interface{}{}
	if name := c.FormValue("name"); name != "" {
		updates["name"] = name
		updates["slug"] = slug.Make(name)
	}
	for field, column := range map[string]string{
		"street":      "street",
		"city":        "city",
		"postal_code": "postal_code",
		"country":     "country",
	} {
		if v := c.FormValue(field); v != "" {
			updates[column] = v
		}
	}
	if v := c.FormValue("court_count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "court_count must be a non-negative integer"})
		}
		updates["court_count"] = n
	}
	// rolling_weeks: "" leaves it alone, "null" clears the override back to
	// the chain default, "0" pins the club to unbounded history.
	if v := c.FormValue("rolling_weeks"); v != "" {
		if v == "null" {
			updates["rolling_weeks"] = nil
		} else {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return c.Status(400).JSON(fiber.Map{"error": "rolling_weeks must be a non-negative integer or null"})
			}
			updates["rolling_weeks"] = n
		}
	}
	if photo, err := c.FormFile("photo"); err == nil && photo.Size > 0 {
		ext := filepath.Ext(photo.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "clubs/photos/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(photo, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload photo"})
		}
		updates["photo_url"] = url
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&club).Updates(updates).Error; err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "update failed"})
		}
	}
	s.DB.First(&club, "id = ?", id)
	return c.JSON(&club)
}

func (s *ClubService) DeleteClub(c *fiber.Ctx) error {
	id := c.Params("id")
	var tournaments int64
	s.DB.Model(&models.Tournament{}).Where("club_id = ?", id).Count(&tournaments)
	if tournaments > 0 {
		return c.Status(409).JSON(fiber.Map{"error": "club still hosts tournaments"})
	}
	result := s.DB.Delete(&models.Club{}, "id = ?", id)
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "club not found"})
	}
	return c.JSON(fiber.Map{"message": "club deleted"})
}

// GetChainSettings lists the flat key→value configuration rows.
func (s *ClubService) GetChainSettings(c *fiber.Ctx) error {
	var settings []models.ChainSetting
	if err := s.DB.Order("name ASC").Find(&settings).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch settings"})
	}
	return c.JSON(settings)
}

// UpsertChainSetting writes one setting row. The ranking-relevant key is
// default_rolling_weeks, validated as a non-negative integer.
func (s *ClubService) UpsertChainSetting(c *fiber.Ctx) error {
	name := c.Params("name")
	type Req struct {
		Value string `json:"value"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if name == models.SettingDefaultRollingWeeks {
		if n, err := strconv.Atoi(req.Value); err != nil || n < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "default_rolling_weeks must be a non-negative integer"})
		}
	}
	setting := models.ChainSetting{Name: name, Value: req.Value}
	err := s.DB.Where("name = ?", name).
		Assign(map[string]interface{}{"value": req.Value}).
		FirstOrCreate(&setting).Error
	if err != nil {
		log.Printf("ERROR upserting setting %s: %v", name, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to store setting"})
	}
	return c.JSON(&setting)
}

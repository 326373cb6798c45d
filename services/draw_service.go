package services

import (
	"errors"
	"log"
	"math/rand"
	"sort"

	"racquet-league-system/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DrawService generates and manages tournament draws.
type DrawService struct {
	DB *gorm.DB
}

func NewDrawService(db *gorm.DB) *DrawService {
	return &DrawService{DB: db}
}

const (
	SeedingRandom       = "random"
	SeedingRegistration = "registration_order"
)

// DrawPair is one scheduled encounter; EntryB empty marks a bye.
type DrawPair struct {
	Round       int
	MatchNumber int
	EntryA      string
	EntryB      string
}

// GenerateRoundRobin builds a full cycle with the circle method: every entry
// meets every other exactly once. An odd field gets a rotating bye.
func GenerateRoundRobin(entryIDs []string) []DrawPair {
	n := len(entryIDs)
	if n < 2 {
		return nil
	}
	ids := make([]string, n)
	copy(ids, entryIDs)
	if n%2 != 0 {
		ids = append(ids, "") // bye slot
		n++
	}
	var pairs []DrawPair
	matchNum := 1
	for round := 1; round < n; round++ {
		for i := 0; i < n/2; i++ {
			a, b := ids[i], ids[n-1-i]
			if a == "" || b == "" {
				continue
			}
			pairs = append(pairs, DrawPair{Round: round, MatchNumber: matchNum, EntryA: a, EntryB: b})
			matchNum++
		}
		// rotate all but the first
		last := ids[n-1]
		copy(ids[2:], ids[1:n-1])
		ids[1] = last
	}
	return pairs
}

// GenerateBracketRound builds the first knockout round. An odd field gives the
// last seed a bye.
func GenerateBracketRound(entryIDs []string) []DrawPair {
	n := len(entryIDs)
	if n < 2 {
		return nil
	}
	var pairs []DrawPair
	matchNum := 1
	for i := 0; i+1 < n; i += 2 {
		pairs = append(pairs, DrawPair{Round: 1, MatchNumber: matchNum, EntryA: entryIDs[i], EntryB: entryIDs[i+1]})
		matchNum++
	}
	if n%2 != 0 {
		pairs = append(pairs, DrawPair{Round: 1, MatchNumber: matchNum, EntryA: entryIDs[n-1], EntryB: ""})
	}
	return pairs
}

// GenerateDraw proposes a draw for a tournament from its confirmed entries.
// Only one proposed draw exists at a time; regenerating replaces it.
func (s *DrawService) GenerateDraw(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	type Req struct {
		SeedingMethod   string `json:"seeding_method"`
		ForceRegenerate bool   `json:"force_regenerate"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.SeedingMethod == "" {
		req.SeedingMethod = SeedingRandom
	}
	if req.SeedingMethod != SeedingRandom && req.SeedingMethod != SeedingRegistration {
		return c.Status(400).JSON(fiber.Map{"error": "seeding_method must be random or registration_order"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if tournament.Status == models.TournamentCompleted {
		return c.Status(400).JSON(fiber.Map{"error": "tournament is already completed"})
	}

	var existing models.Pairing
	err := s.DB.First(&existing, "tournament_id = ? AND status = ?", tournamentID, models.PairingProposed).Error
	if err == nil && !req.ForceRegenerate {
		return c.Status(409).JSON(fiber.Map{"error": "a proposed draw already exists", "pairing_id": existing.ID})
	}

	var regs []models.TournamentRegistration
	if err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("registered_at ASC").
		Find(&regs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch registrations"})
	}
	if len(regs) < 2 {
		return c.Status(400).JSON(fiber.Map{"error": "not enough entries for a draw"})
	}

	entryIDs := make([]string, len(regs))
	for i, r := range regs {
		entryIDs[i] = r.ID
	}
	if req.SeedingMethod == SeedingRandom {
		rand.Shuffle(len(entryIDs), func(i, j int) {
			entryIDs[i], entryIDs[j] = entryIDs[j], entryIDs[i]
		})
	}

	var pairs []DrawPair
	switch tournament.Format {
	case models.FormatRoundRobin:
		pairs = GenerateRoundRobin(entryIDs)
	default:
		pairs = GenerateBracketRound(entryIDs)
	}

	userID, _ := c.Locals("user_id").(string)
	pairing := models.Pairing{
		ID:            uuid.NewString(),
		TournamentID:  tournamentID,
		Status:        models.PairingProposed,
		SeedingMethod: req.SeedingMethod,
		ProposedBy:    userID,
	}
	txErr := s.DB.Transaction(func(tx *gorm.DB) error {
		if existing.ID != "" {
			if err := tx.Where("pairing_id = ?", existing.ID).Delete(&models.PairingSlot{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&pairing).Error; err != nil {
			return err
		}
		for _, p := range pairs {
			slot := models.PairingSlot{
				ID:          uuid.NewString(),
				PairingID:   pairing.ID,
				RoundNumber: p.Round,
				MatchNumber: p.MatchNumber,
				EntryAID:    p.EntryA,
				EntryBID:    p.EntryB,
			}
			if err := tx.Create(&slot).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		log.Printf("ERROR generating draw for tournament %s: %v", tournamentID, txErr)
		return c.Status(500).JSON(fiber.Map{"error": "failed to store draw"})
	}

	s.DB.Preload("Slots", func(db *gorm.DB) *gorm.DB {
		return db.Order("round_number ASC, match_number ASC")
	}).First(&pairing, "id = ?", pairing.ID)
	return c.Status(201).JSON(&pairing)
}

func (s *DrawService) GetDraw(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	var pairings []models.Pairing
	if err := s.DB.Where("tournament_id = ?", tournamentID).
		Preload("Slots", func(db *gorm.DB) *gorm.DB {
			return db.Order("round_number ASC, match_number ASC")
		}).
		Order("proposed_at DESC").
		Find(&pairings).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch draws"})
	}
	// Most relevant first: published over proposed over rejected.
	order := map[string]int{models.PairingPublished: 0, models.PairingProposed: 1, models.PairingRejected: 2}
	sort.SliceStable(pairings, func(i, j int) bool {
		return order[pairings[i].Status] < order[pairings[j].Status]
	})
	return c.JSON(pairings)
}

func (s *DrawService) PublishDraw(c *fiber.Ctx) error {
	return s.setDrawStatus(c, models.PairingProposed, models.PairingPublished)
}

func (s *DrawService) RejectDraw(c *fiber.Ctx) error {
	return s.setDrawStatus(c, models.PairingProposed, models.PairingRejected)
}

// setDrawStatus moves the tournament's current draw in the given state to a
// new one. Only one pairing per tournament can sit in the proposed state, so
// the lookup by (tournament, from) is unambiguous.
func (s *DrawService) setDrawStatus(c *fiber.Ctx, from, to string) error {
	tournamentID := c.Params("id")
	var pairing models.Pairing
	err := s.DB.First(&pairing, "tournament_id = ? AND status = ?", tournamentID, from).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "no " + from + " draw for this tournament"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if err := s.DB.Model(&pairing).Update("status", to).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "update failed"})
	}
	return c.JSON(&pairing)
}

package services

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"time"

	"racquet-league-system/models"
	"racquet-league-system/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type TournamentService struct {
	DB      *gorm.DB
	Scoring *ScoringService
}

func NewTournamentService(db *gorm.DB, scoring *ScoringService) *TournamentService {
	return &TournamentService{DB: db, Scoring: scoring}
}

func (s *TournamentService) CreateTournament(c *fiber.Ctx) error {
	// --- Parse form values ---
	name := c.FormValue("name")
	clubID := c.FormValue("club_id")
	startTimeStr := c.FormValue("start_time")
	endTimeStr := c.FormValue("end_time")
	registrationType := c.FormValue("registration_type", models.RegistrationIndividual)
	format := c.FormValue("format", models.FormatBracket)
	gender := c.FormValue("gender")
	level := c.FormValue("level")
	maxPartStr := c.FormValue("max_participants")
	multiplierStr := c.FormValue("points_multiplier", "1")
	scoringProfileID := c.FormValue("scoring_profile_id")

	// --- Validation ---
	if name == "" || clubID == "" || startTimeStr == "" {
		return c.Status(400).JSON(fiber.Map{"error": "name, club_id, and start_time are required"})
	}
	if registrationType != models.RegistrationIndividual && registrationType != models.RegistrationCouple {
		return c.Status(400).JSON(fiber.Map{"error": "registration_type must be individual or couple"})
	}
	if format != models.FormatBracket && format != models.FormatRoundRobin {
		return c.Status(400).JSON(fiber.Map{"error": "format must be bracket or round_robin"})
	}
	if gender != models.GenderMixed && !models.ValidGender(gender) {
		return c.Status(400).JSON(fiber.Map{"error": "gender must be male, female, other or mixed"})
	}
	if !models.ValidLevel(level) {
		return c.Status(400).JSON(fiber.Map{"error": "level must be beginner, intermediate or advanced"})
	}

	maxParticipants := 0
	if maxPartStr != "" {
		if n, err := strconv.Atoi(maxPartStr); err == nil && n >= 0 {
			maxParticipants = n
		} else {
			return c.Status(400).JSON(fiber.Map{"error": "max_participants must be a non-negative integer"})
		}
	}

	multiplier, err := strconv.ParseFloat(multiplierStr, 64)
	if err != nil || multiplier <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "points_multiplier must be a positive number"})
	}

	startTime, err := time.Parse(time.RFC3339, startTimeStr)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
	}
	var endTime *time.Time
	if endTimeStr != "" {
		et, err := time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
		}
		if et.Before(startTime) {
			return c.Status(400).JSON(fiber.Map{"error": "end_time must not be before start_time"})
		}
		endTime = &et
	}

	// --- Check club exists ---
	var club models.Club
	if err := s.DB.First(&club, "id = ?", clubID).Error; err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "club_id not found"})
	}

	// --- Check scoring profile, if given ---
	var profileRef *string
	if scoringProfileID != "" {
		if err := s.DB.First(&models.ScoringProfile{}, "id = ?", scoringProfileID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "scoring_profile_id not found"})
		}
		profileRef = &scoringProfileID
	}

	// --- Handle poster → R2 ---
	var posterURL string
	if poster, err := c.FormFile("poster"); err == nil && poster.Size > 0 {
		ext := filepath.Ext(poster.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "tournaments/posters/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(poster, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload poster"})
		}
		posterURL = url
	}

	tournament := &models.Tournament{
		ID:               uuid.NewString(),
		Name:             name,
		Slug:             slug.Make(name),
		ClubID:           clubID,
		StartTime:        startTime,
		EndTime:          endTime,
		RegistrationType: registrationType,
		Format:           format,
		Gender:           gender,
		Level:            level,
		MaxParticipants:  maxParticipants,
		PointsMultiplier: multiplier,
		ScoringProfileID: profileRef,
		Status:           models.TournamentUpcoming,
		PosterURL:        posterURL,
	}

	if err := s.DB.Create(tournament).Error; err != nil {
		log.Printf("ERROR creating tournament: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "DB insert failed"})
	}

	// Announce to every player in the cohort. Fire-and-forget: queue rows for
	// the notify worker and never fail the request over them.
	if n, err := s.queueAnnouncements(tournament, &club); err != nil {
		log.Printf("WARN: failed to queue announcements for tournament %s: %v", tournament.ID, err)
	} else {
		log.Printf("Queued %d announcement(s) for tournament %s", n, tournament.Name)
	}

	s.DB.Preload("Club").Preload("ScoringProfile").First(tournament, "id = ?", tournament.ID)
	return c.Status(201).JSON(tournament)
}

// queueAnnouncements inserts one Notification per cohort-matching player.
func (s *TournamentService) queueAnnouncements(t *models.Tournament, club *models.Club) (int, error) {
	q := s.DB.Model(&models.Player{}).Where("level = ?", t.Level)
	if t.Gender != models.GenderMixed {
		q = q.Where("gender = ?", t.Gender)
	}
	var players []models.Player
	if err := q.Find(&players).Error; err != nil {
		return 0, err
	}
	subject := fmt.Sprintf("New tournament: %s", t.Name)
	body := fmt.Sprintf("%s at %s on %s. Cohort: %s / %s. Register while slots last!",
		t.Name, club.Name, t.StartTime.Format("Mon, 02 Jan 2006 15:04"), t.Gender, t.Level)
	queued := 0
	for _, p := range players {
		n := models.Notification{
			ID:       uuid.NewString(),
			PlayerID: p.ID,
			Email:    p.Email,
			Subject:  subject,
			Body:     body,
		}
		if err := s.DB.Create(&n).Error; err != nil {
			log.Printf("WARN: could not queue announcement for player %s: %v", p.ID, err)
			continue
		}
		queued++
	}
	return queued, nil
}

func (s *TournamentService) GetAllTournaments(c *fiber.Ctx) error {
	var tournaments []models.Tournament
	q := s.DB.Preload("Club").Order("start_time DESC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if clubID := c.Query("club_id"); clubID != "" {
		q = q.Where("club_id = ?", clubID)
	}
	if err := q.Find(&tournaments).Error; err != nil {
		log.Printf("ERROR fetching tournaments: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch tournaments"})
	}
	return c.JSON(tournaments)
}

func (s *TournamentService) GetTournamentByID(c *fiber.Ctx) error {
	id := c.Params("id")
	var tournament models.Tournament
	err := s.DB.
		Preload("Club").
		Preload("ScoringProfile.Entries", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Registrations", func(db *gorm.DB) *gorm.DB {
			return db.Order("registered_at ASC")
		}).
		Preload("Registrations.Player").
		Preload("Registrations.Partner").
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&tournament, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		log.Printf("ERROR fetching tournament %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	var entries int64
	s.DB.Model(&models.TournamentRegistration{}).
		Where("tournament_id = ?", id).
		Count(&entries)
	tournament.EntriesCount = entries
	if tournament.MaxParticipants > 0 {
		tournament.AvailableSlots = int64(tournament.MaxParticipants) - entries
	} else {
		tournament.AvailableSlots = -1 // unlimited
	}
	return c.JSON(&tournament)
}

func (s *TournamentService) UpdateTournament(c *fiber.Ctx) error {
	id := c.Params("id")
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	updates := map[string]interface{}{}
	if name := c.FormValue("name"); name != "" {
		updates["name"] = name
		updates["slug"] = slug.Make(name)
	}
	if startTimeStr := c.FormValue("start_time"); startTimeStr != "" {
		t, err := time.Parse(time.RFC3339, startTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
		}
		updates["start_time"] = t
	}
	if endTimeStr := c.FormValue("end_time"); endTimeStr != "" {
		t, err := time.Parse(time.RFC3339, endTimeStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid end_time (use RFC3339)"})
		}
		updates["end_time"] = t
	}
	if maxStr := c.FormValue("max_participants"); maxStr != "" {
		n, err := strconv.Atoi(maxStr)
		if err != nil || n < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "max_participants must be a non-negative integer"})
		}
		updates["max_participants"] = n
	}
	if multStr := c.FormValue("points_multiplier"); multStr != "" {
		f, err := strconv.ParseFloat(multStr, 64)
		if err != nil || f <= 0 {
			return c.Status(400).JSON(fiber.Map{"error": "points_multiplier must be a positive number"})
		}
		updates["points_multiplier"] = f
	}
	if profileID := c.FormValue("scoring_profile_id"); profileID != "" {
		if err := s.DB.First(&models.ScoringProfile{}, "id = ?", profileID).Error; err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "scoring_profile_id not found"})
		}
		updates["scoring_profile_id"] = profileID
	}
	if poster, err := c.FormFile("poster"); err == nil && poster.Size > 0 {
		ext := filepath.Ext(poster.Filename)
		if ext == "" {
			ext = ".jpg"
		}
		key := "tournaments/posters/" + uuid.NewString() + ext
		url, err := utils.UploadFileToR2(poster, key)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to upload poster"})
		}
		updates["poster_url"] = url
	}

	if len(updates) > 0 {
		if err := s.DB.Model(&tournament).Updates(updates).Error; err != nil {
			log.Printf("ERROR updating tournament %s: %v", id, err)
			return c.Status(500).JSON(fiber.Map{"error": "update failed"})
		}
	}
	s.DB.Preload("Club").Preload("ScoringProfile").First(&tournament, "id = ?", id)
	return c.JSON(&tournament)
}

func (s *TournamentService) DeleteTournament(c *fiber.Ctx) error {
	id := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Children first to respect foreign key constraints.
		if err := tx.Where("pairing_id IN (?)",
			tx.Model(&models.Pairing{}).Select("id").Where("tournament_id = ?", id),
		).Delete(&models.PairingSlot{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tournament_id = ?", id).Delete(&models.Pairing{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tournament_id = ?", id).Delete(&models.TournamentRegistration{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tournament_id = ?", id).Delete(&models.TournamentResult{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Tournament{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fiber.NewError(404, "tournament not found")
		}
		return nil
	})
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
		}
		log.Printf("ERROR deleting tournament %s: %v", id, err)
		return c.Status(500).JSON(fiber.Map{"error": "delete failed"})
	}
	return c.JSON(fiber.Map{"message": "tournament deleted"})
}

// UpdateTournamentStatus moves a tournament along upcoming → in_progress →
// completed. Completion via this endpoint is allowed for tournaments that end
// without standings; AssignResults forces it as well.
func (s *TournamentService) UpdateTournamentStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	type Req struct {
		Status string `json:"status"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	allowed := map[string][]string{
		models.TournamentUpcoming:   {models.TournamentInProgress},
		models.TournamentInProgress: {models.TournamentCompleted},
	}
	ok := false
	for _, next := range allowed[tournament.Status] {
		if next == req.Status {
			ok = true
			break
		}
	}
	if !ok {
		return c.Status(400).JSON(fiber.Map{
			"error":   "invalid status transition",
			"current": tournament.Status,
		})
	}
	if err := s.DB.Model(&tournament).Update("status", req.Status).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB update failed"})
	}
	return c.JSON(&tournament)
}

// RegisterPlayer joins a player (or pair) to a tournament, running the full
// validation chain inside one transaction so the capacity count and the insert
// see the same state. The (tournament_id, player_id) unique index backstops
// concurrent duplicates the checks cannot see.
func (s *TournamentService) RegisterPlayer(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	type Req struct {
		PlayerID  string  `json:"player_id"`
		PartnerID *string `json:"partner_id,omitempty"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if req.PlayerID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "player_id is required"})
	}

	var registration models.TournamentRegistration
	var vErr *RegistrationError
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var tournament models.Tournament
		if err := tx.First(&tournament, "id = ?", tournamentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				vErr = regErr(404, "tournament not found")
				return nil
			}
			return err
		}
		var existing []models.TournamentRegistration
		if err := tx.Where("tournament_id = ?", tournamentID).Find(&existing).Error; err != nil {
			return err
		}
		// Lookups run lazily inside the rule sequence so an earlier failing
		// check wins over a later missing row.
		lookup := func(id string) (*models.Player, bool, error) {
			var p models.Player
			if err := tx.First(&p, "id = ?", id).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, false, nil
				}
				return nil, false, err
			}
			return &p, true, nil
		}
		player, partner, rErr, err := ResolveRegistration(&tournament, req.PlayerID, req.PartnerID, lookup, existing)
		if err != nil {
			return err
		}
		if rErr != nil {
			vErr = rErr
			return nil
		}
		registration = models.TournamentRegistration{
			ID:           uuid.NewString(),
			TournamentID: tournamentID,
			PlayerID:     player.ID,
			Status:       "confirmed",
		}
		if partner != nil {
			registration.PartnerID = &partner.ID
		}
		return tx.Create(&registration).Error
	})
	if err != nil {
		log.Printf("ERROR registering player for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "registration failed"})
	}
	if vErr != nil {
		return c.Status(vErr.Status).JSON(fiber.Map{"error": vErr.Message})
	}
	return c.Status(201).JSON(&registration)
}

// UnregisterPlayer removes the single registration naming the player, whether
// as primary or partner. Mirrors the status gate of registration.
func (s *TournamentService) UnregisterPlayer(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	playerID := c.Params("player_id")

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if tournament.Status != models.TournamentUpcoming {
		return c.Status(403).JSON(fiber.Map{"error": "cannot unregister once the tournament has started"})
	}
	result := s.DB.Where("tournament_id = ?", tournamentID).
		Where("player_id = ? OR partner_id = ?", playerID, playerID).
		Delete(&models.TournamentRegistration{})
	if result.Error != nil {
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}
	if result.RowsAffected == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "registration not found"})
	}
	return c.JSON(fiber.Map{"message": "registration removed"})
}

func (s *TournamentService) GetTournamentRegistrations(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	var regs []models.TournamentRegistration
	if err := s.DB.Where("tournament_id = ?", tournamentID).
		Preload("Player").
		Preload("Partner").
		Order("registered_at ASC").
		Find(&regs).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch registrations"})
	}
	return c.JSON(regs)
}

// ResultEntry is one submitted finishing position.
type ResultEntry struct {
	Position  int     `json:"position"`
	PlayerID  string  `json:"player_id"`
	Player2ID *string `json:"player2_id,omitempty"`
}

// BuildResults turns submitted entries into result rows, looking up base
// points from the profile and applying the tournament multiplier. Entries
// without a player id are skipped; an all-empty submission is an error.
func BuildResults(t *models.Tournament, profile *models.ScoringProfile, entries []ResultEntry) ([]models.TournamentResult, error) {
	var results []models.TournamentResult
	seen := map[int]bool{}
	for _, e := range entries {
		if e.PlayerID == "" {
			continue
		}
		if e.Position < 1 {
			return nil, fmt.Errorf("position must be >= 1")
		}
		if seen[e.Position] {
			return nil, fmt.Errorf("duplicate position %d", e.Position)
		}
		seen[e.Position] = true
		base := GetPointsForPosition(profile, e.Position)
		results = append(results, models.TournamentResult{
			ID:           uuid.NewString(),
			TournamentID: t.ID,
			Position:     e.Position,
			PlayerID:     e.PlayerID,
			Player2ID:    e.Player2ID,
			BasePoints:   base,
			Multiplier:   t.PointsMultiplier,
			FinalPoints:  FinalPoints(base, t.PointsMultiplier),
		})
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no valid entries")
	}
	return results, nil
}

// AssignResults stores the full standings of a tournament. The call is a full
// overwrite: previous results are discarded and the new set inserted in one
// transaction, then the tournament is forced to completed. Re-submitting the
// same entries yields the same final state.
func (s *TournamentService) AssignResults(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	type Req struct {
		Entries []ResultEntry `json:"entries"`
	}
	var req Req
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	var tournament models.Tournament
	if err := s.DB.First(&tournament, "id = ?", tournamentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "tournament not found"})
		}
		return c.Status(500).JSON(fiber.Map{"error": "DB error"})
	}

	profile, err := s.Scoring.ProfileForTournament(&tournament)
	if err != nil {
		log.Printf("ERROR resolving scoring profile for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "no scoring profile available"})
	}

	results, err := BuildResults(&tournament, profile, req.Entries)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	if err := replaceResults(s.DB, &tournament, results); err != nil {
		log.Printf("ERROR assigning results for tournament %s: %v", tournamentID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to store results"})
	}

	// Refresh the denormalized per-player counters. Display-only; rankings
	// always recompute from raw events.
	s.refreshTotalPoints(results)

	return c.Status(201).JSON(results)
}

// replaceResults swaps a tournament's stored standings for the given set and
// forces the tournament to completed, all in one transaction. Re-running it
// with the same set leaves exactly that set stored.
func replaceResults(db *gorm.DB, tournament *models.Tournament, results []models.TournamentResult) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tournament_id = ?", tournament.ID).Delete(&models.TournamentResult{}).Error; err != nil {
			return err
		}
		for i := range results {
			if err := tx.Create(&results[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(tournament).Update("status", models.TournamentCompleted).Error
	})
}

// refreshTotalPoints recomputes Player.TotalPoints for every player named in
// the submitted results. Recomputed from scratch so result re-submission stays
// idempotent.
func (s *TournamentService) refreshTotalPoints(results []models.TournamentResult) {
	affected := map[string]bool{}
	for _, r := range results {
		affected[r.PlayerID] = true
		if r.Player2ID != nil && *r.Player2ID != "" {
			affected[*r.Player2ID] = true
		}
	}
	for id := range affected {
		var fromResults int64
		s.DB.Model(&models.TournamentResult{}).
			Where("player_id = ? OR player2_id = ?", id, id).
			Select("COALESCE(SUM(final_points), 0)").
			Scan(&fromResults)
		var fromMatches int64
		s.DB.Model(&models.Match{}).
			Where("(winner_team = 1 AND (team1_player1 = ? OR team1_player2 = ?)) OR (winner_team = 2 AND (team2_player1 = ? OR team2_player2 = ?))",
				id, id, id, id).
			Select("COALESCE(SUM(points_awarded), 0)").
			Scan(&fromMatches)
		if err := s.DB.Model(&models.Player{}).
			Where("id = ?", id).
			UpdateColumn("total_points", fromResults+fromMatches).Error; err != nil {
			log.Printf("WARN: could not refresh total_points for player %s: %v", id, err)
		}
	}
}

func (s *TournamentService) GetTournamentResults(c *fiber.Ctx) error {
	tournamentID := c.Params("id")
	var results []models.TournamentResult
	if err := s.DB.Where("tournament_id = ?", tournamentID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch results"})
	}
	return c.JSON(results)
}

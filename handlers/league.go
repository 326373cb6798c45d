package handlers

import (
	"racquet-league-system/middleware"
	"racquet-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLeagueRoutes(app *fiber.App, clubService *services.ClubService, scoringService *services.ScoringService) {
	// 🔓 Public club browsing
	app.Get("/clubs", clubService.GetAllClubs)
	app.Get("/clubs/:id", clubService.GetClubByID)

	secured := app.Group("/", middleware.UserContextMiddleware())
	admin := secured.Group("/", middleware.RequireAdmin())

	// Club management
	admin.Post("/clubs", clubService.CreateClub)
	admin.Put("/clubs/:id", clubService.UpdateClub)
	admin.Delete("/clubs/:id", clubService.DeleteClub)

	// Chain-wide settings
	admin.Get("/settings", clubService.GetChainSettings)
	admin.Put("/settings/:name", clubService.UpsertChainSetting)

	// Scoring profiles
	secured.Get("/scoring-profiles", scoringService.GetAllProfiles)
	secured.Get("/scoring-profiles/preview", scoringService.PreviewMatchPoints)
	secured.Get("/scoring-profiles/:id", scoringService.GetProfileByID)
	admin.Post("/scoring-profiles", scoringService.CreateProfile)
	admin.Put("/scoring-profiles/:id", scoringService.UpdateProfile)
	admin.Patch("/scoring-profiles/:id/default", scoringService.SetDefaultProfile)
	admin.Delete("/scoring-profiles/:id", scoringService.DeleteProfile)
}

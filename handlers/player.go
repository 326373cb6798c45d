package handlers

import (
	"racquet-league-system/middleware"
	"racquet-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupPlayerRoutes(app *fiber.App, playerService *services.PlayerService, matchService *services.MatchService, rankingService *services.RankingService) {
	// 🔓 Public routes
	app.Get("/players/search", playerService.SearchPlayers)
	app.Get("/players/:id", playerService.GetPlayerByID)
	app.Get("/rankings", rankingService.GetRankings)
	app.Get("/matches", matchService.GetMatches)
	app.Get("/matches/:id", matchService.GetMatchByID)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())
	secured.Post("/players", playerService.CreatePlayer)
	secured.Put("/players/:id", playerService.UpdatePlayer)
	secured.Post("/players/:id/verify-email", playerService.VerifyEmail)
	secured.Post("/matches", matchService.RecordMatch)

	// 🔒 Admin-only routes
	admin := secured.Group("/", middleware.RequireAdmin())
	admin.Patch("/players/:id/role", playerService.UpdatePlayerRole)
	admin.Delete("/players/:id", playerService.DeletePlayer)
}

package handlers

import (
	"racquet-league-system/middleware"
	"racquet-league-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTournamentRoutes(app *fiber.App, tournamentService *services.TournamentService, drawService *services.DrawService) {
	// 🔓 Public routes (read-only tournament browsing)
	app.Get("/tournaments", tournamentService.GetAllTournaments)
	app.Get("/tournaments/:id", tournamentService.GetTournamentByID)
	app.Get("/tournaments/:id/registrations", tournamentService.GetTournamentRegistrations)
	app.Get("/tournaments/:id/results", tournamentService.GetTournamentResults)

	// 🔐 Authenticated routes
	secured := app.Group("/", middleware.UserContextMiddleware())

	// Registration (any authenticated player)
	secured.Post("/tournaments/:id/registrations", tournamentService.RegisterPlayer)
	secured.Delete("/tournaments/:id/registrations/:player_id", tournamentService.UnregisterPlayer)

	// 🔒 Admin-only tournament management
	admin := secured.Group("/", middleware.RequireAdmin())
	admin.Post("/tournaments", tournamentService.CreateTournament)
	admin.Put("/tournaments/:id", tournamentService.UpdateTournament)
	admin.Delete("/tournaments/:id", tournamentService.DeleteTournament)
	admin.Patch("/tournaments/:id/status", tournamentService.UpdateTournamentStatus)

	// Result assignment (replaces any previous results for the tournament)
	admin.Put("/tournaments/:id/results", tournamentService.AssignResults)

	// Draw proposals
	admin.Post("/tournaments/:id/draw", drawService.GenerateDraw)
	secured.Get("/tournaments/:id/draw", drawService.GetDraw)
	admin.Post("/tournaments/:id/draw/publish", drawService.PublishDraw)
	admin.Post("/tournaments/:id/draw/reject", drawService.RejectDraw)
}

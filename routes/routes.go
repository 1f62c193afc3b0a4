package routes

import (
	"github.com/Dosada05/tournament-staging/handlers"
	"github.com/Dosada05/tournament-staging/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

// SetupRoutes вешает все маршруты staging-сервиса на переданный роутер.
//
// Чтение табло и standings — публичное, все мутации (назначения пар,
// генерация матчей, результаты, таймер) требуют роль admin или organizer.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	stagingHandler *handlers.StagingHandler,
	matchHandler *handlers.MatchHandler,
	timerHandler *handlers.TimerHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Route("/stages/{stageID}", func(r chi.Router) {
		// Публичные маршруты для просмотра табло
		r.Get("/board", stagingHandler.BoardHandler)
		r.Get("/groups", stagingHandler.ListGroupsHandler)
		r.Get("/brackets", stagingHandler.ListBracketsHandler)
		r.Get("/timer", timerHandler.StateHandler)

		// Защищенные маршруты только для организаторов
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))

			r.Post("/refresh", stagingHandler.RefreshHandler)
			r.Post("/couples/auto-assign", stagingHandler.AutoAssignHandler)
			r.Post("/timer/start", timerHandler.StartHandler)
			r.Post("/timer/pause", timerHandler.PauseHandler)
			r.Post("/timer/reset", timerHandler.ResetHandler)
		})
	})

	router.Route("/groups/{groupID}", func(r chi.Router) {
		r.Get("/couples", stagingHandler.ListGroupCouplesHandler)
		r.Get("/standings", stagingHandler.GroupStandingsHandler)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))

			r.Post("/couples", stagingHandler.AssignCoupleHandler)
			r.Delete("/couples/{coupleID}", stagingHandler.UnassignCoupleHandler)
			r.Post("/matches/generate", matchHandler.GenerateGroupMatchesHandler)
		})
	})

	router.Route("/brackets/{bracketID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer))

			r.Post("/matches/generate", matchHandler.GenerateBracketMatchesHandler)
		})
	})

	router.Route("/matches/{matchID}", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			// Результаты вносят и судьи на кортах
			r.Use(middleware.Authorize(middleware.RoleAdmin, middleware.RoleOrganizer, middleware.RoleReferee))

			r.Post("/result", matchHandler.SubmitResultHandler)
		})
	})

	router.Get("/ws/stages/{stageID}", webSocketHandler.ServeWs)
}

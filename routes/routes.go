package routes

import (
	"github.com/adilzhm/pickbracket/handlers"
	"github.com/adilzhm/pickbracket/middleware"
	"github.com/adilzhm/pickbracket/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	pollHandler *handlers.PollHandler,
	voteHandler *handlers.VoteHandler,
	bracketHandler *handlers.BracketHandler,
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

	router.Get("/swagger/*", httpSwagger.Handler())

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/polls", func(r chi.Router) {
		// Public read access
		r.Get("/", pollHandler.List)
		r.Get("/{pollID}", pollHandler.Get)
		r.Get("/{pollID}/options", pollHandler.ListOptions)
		r.Get("/{pollID}/standings", bracketHandler.Standings)

		// Authenticated voters
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))

			r.Post("/{pollID}/ballot", voteHandler.Submit)
			r.Get("/{pollID}/bracket", bracketHandler.Get)
			r.Post("/{pollID}/bracket/pick", bracketHandler.Pick)
			r.Post("/{pollID}/bracket/undo", bracketHandler.Undo)
		})

		// Admin-only poll management
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(jwtSecret))
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", pollHandler.Create)
			r.Post("/{pollID}/close", pollHandler.Close)
			r.Post("/{pollID}/options", pollHandler.AddOption)
		})
	})

	router.Route("/options", func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))
		r.Use(middleware.Authorize(models.RoleAdmin))

		r.Delete("/{optionID}", pollHandler.RemoveOption)
		r.Post("/{optionID}/photo", pollHandler.UploadOptionPhoto)
	})

	router.Get("/ws/polls/{pollID}/users/{userID}", webSocketHandler.ServeWs)
}

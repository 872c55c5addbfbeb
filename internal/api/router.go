package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/isdelr/guildvault/internal/api/handlers"
	"github.com/isdelr/guildvault/internal/auth"
	"github.com/isdelr/guildvault/internal/services"
	"github.com/isdelr/guildvault/internal/websocket"
)

// Dependencies are the services the router exposes.
type Dependencies struct {
	Hub            *websocket.Hub
	Backups        services.BackupServiceProvider
	Events         services.EventServiceProvider
	Schedules      services.ScheduleServiceProvider
	Dashboard      services.DashboardServiceProvider
	Auth           services.AuthServiceProvider
	Tokens         *auth.TokenIssuer
	LoginLimiter   *auth.LoginLimiter
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	dashboardHandler := handlers.NewDashboardHandler(deps.Dashboard)
	serverHandler := handlers.NewServerHandler(deps.Dashboard)
	backupHandler := handlers.NewBackupHandler(deps.Backups)
	scheduleHandler := handlers.NewScheduleHandler(deps.Schedules)
	eventHandler := handlers.NewEventHandler(deps.Events)
	userHandler := handlers.NewUserHandler(deps.Auth, deps.Tokens, deps.SecureCookies)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Dashboard, deps.AllowedOrigins)

	r.Get("/", dashboardHandler.Index)

	// Paths of the first dashboard release.
	r.Get("/api/bot-stats", serverHandler.GetBotStats)
	r.Get("/api/server/{id}", serverHandler.Get)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ws", wsHandler.Serve)
		r.Get("/bot-stats", serverHandler.GetBotStats)
		r.Get("/events", eventHandler.GetRecent)

		r.Route("/auth", func(r chi.Router) {
			r.With(deps.LoginLimiter.Middleware).Post("/login", userHandler.Login)
			r.Post("/logout", userHandler.Logout)
			r.With(deps.Tokens.JWTMiddleware()).Get("/me", userHandler.GetMe)
		})

		r.Route("/servers/{id}", func(r chi.Router) {
			r.Get("/", serverHandler.Get)
			r.Get("/backups", backupHandler.GetAllForServer)

			// Everything that changes state needs the admin token.
			r.Group(func(r chi.Router) {
				r.Use(deps.Tokens.JWTMiddleware())
				r.Use(auth.RequireAdmin)

				r.Post("/backups", backupHandler.Create)
				r.Delete("/backups", backupHandler.DeleteAll)
				r.Post("/backups/{filename}/restore", backupHandler.Restore)
				r.Delete("/backups/{filename}", backupHandler.Delete)

				r.Get("/schedules", scheduleHandler.GetAllForServer)
				r.Post("/schedules", scheduleHandler.Create)
				r.Put("/schedules/{scheduleId}", scheduleHandler.Update)
				r.Delete("/schedules/{scheduleId}", scheduleHandler.Delete)
			})
		})
	})

	return r
}

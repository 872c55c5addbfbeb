package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/isdelr/guildvault/internal/api"
	"github.com/isdelr/guildvault/internal/auth"
	"github.com/isdelr/guildvault/internal/bot"
	"github.com/isdelr/guildvault/internal/config"
	"github.com/isdelr/guildvault/internal/database"
	"github.com/isdelr/guildvault/internal/logger"
	"github.com/isdelr/guildvault/internal/monitoring"
	"github.com/isdelr/guildvault/internal/services"
	"github.com/isdelr/guildvault/internal/storage"
	"github.com/isdelr/guildvault/internal/websocket"
)

const (
	shutdownTimeout = 5 * time.Second
	limiterCleanup  = 10 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel)

	// Set up backup storage
	store, err := storage.NewFileStore(cfg.BackupPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backup directory")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// The session is created even when the bot stays offline so the
	// dashboard and services can be wired the same way.
	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}

	// Set up services
	eventService := services.NewEventService(db)
	backupService := services.NewBackupService(store, bot.DirectoryFor(session), eventService)
	scheduleService := services.NewScheduleService(db, eventService)
	authService := services.NewAuthService(cfg.DashboardUsername, cfg.DashboardPasswordHash)

	discordBot := bot.New(session, backupService, eventService, cfg.GuildIDs)

	var sampler services.ProcessSampler
	if ps, err := monitoring.NewProcessSampler(); err != nil {
		log.Warn().Err(err).Msg("Process stats unavailable")
	} else {
		sampler = ps.Sample
	}
	dashboardService := services.NewDashboardService(discordBot, backupService, sampler)

	// Set up WebSocket Hub
	hub := websocket.NewHub()

	statUpdater := monitoring.NewStatUpdater(dashboardService, hub, eventService, cfg.StatsInterval)
	scheduler := monitoring.NewScheduler(scheduleService, backupService, eventService)

	loginLimiter := auth.NewLoginLimiter(time.Minute, 5)
	router := api.NewRouter(api.Dependencies{
		Hub:            hub,
		Backups:        backupService,
		Events:         eventService,
		Schedules:      scheduleService,
		Dashboard:      dashboardService,
		Auth:           authService,
		Tokens:         auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		LoginLimiter:   loginLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.DisableBot {
		log.Warn().Msg("Discord bot disabled, serving the dashboard only")
	} else if err := discordBot.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Discord")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run()
		return nil
	})
	g.Go(func() error {
		statUpdater.Run()
		return nil
	})
	g.Go(func() error {
		scheduler.Run()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(limiterCleanup)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				loginLimiter.Cleanup(limiterCleanup)
			case <-ctx.Done():
				return nil
			}
		}
	})
	g.Go(func() error {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Msg("Shutting down server...")

		statUpdater.Stop()
		scheduler.Stop() // Waits for running scheduled backups

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		hub.Stop()
		if closeErr := discordBot.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("Failed to close Discord session")
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server exiting")
}

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

	"github.com/isdelr/simplecomm-be/internal/ai"
	"github.com/isdelr/simplecomm-be/internal/api"
	"github.com/isdelr/simplecomm-be/internal/auth"
	"github.com/isdelr/simplecomm-be/internal/config"
	"github.com/isdelr/simplecomm-be/internal/database"
	"github.com/isdelr/simplecomm-be/internal/geocode"
	"github.com/isdelr/simplecomm-be/internal/jobs"
	"github.com/isdelr/simplecomm-be/internal/logger"
	"github.com/isdelr/simplecomm-be/internal/metrics"
	"github.com/isdelr/simplecomm-be/internal/realtime"
	"github.com/isdelr/simplecomm-be/internal/services"
	"github.com/isdelr/simplecomm-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, !cfg.IsProduction())

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()
	metrics.RegisterClientGauge(hub.ClientCount)

	// The broker reads snapshots from services that publish through it.
	var source *services.SnapshotSource
	broker := realtime.NewBroker(realtime.SourceFunc(func(ctx context.Context, topic realtime.Topic) (any, error) {
		return source.Snapshot(ctx, topic)
	}), realtime.RetryPolicy{
		MaxAttempts:     cfg.Stream.MaxAttempts,
		InitialInterval: cfg.Stream.InitialInterval,
		MaxInterval:     cfg.Stream.MaxInterval,
	})
	broker.SetObserver(metrics.StreamObserver{})

	// Set up services
	clock := services.NewClock()
	aiClient := ai.NewClient(cfg.AI, nil)
	geocoder := geocode.NewClient(cfg.Geocode, nil)

	userService := services.NewUserService(db, clock)
	communityService := services.NewCommunityService(db, clock, userService, broker, hub)
	membershipService := services.NewMembershipService(db, clock, broker)
	messageService := services.NewMessageService(db, clock, userService, broker)
	eventService := services.NewEventService(db, clock, broker)
	expenseService := services.NewExpenseService(db, clock, broker)
	faqService := services.NewFAQService(db, clock, userService, aiClient, broker)
	mapService := services.NewMapService(communityService, geocoder)
	dashboardService := services.NewDashboardService(db, clock)

	source = &services.SnapshotSource{
		Communities: communityService,
		Messages:    messageService,
		Events:      eventService,
		Expenses:    expenseService,
		FAQs:        faqService,
	}

	// Set up and run the background jobs
	scheduler, err := jobs.NewScheduler(cfg.Jobs.ReconcileSchedule, cfg.Jobs.DuesReminderSchedule, membershipService, communityService, messageService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure scheduler")
	}
	scheduler.Run()

	statsBroadcaster := jobs.NewStatsBroadcaster(dashboardService, hub, cfg.Jobs.StatsInterval)
	go statsBroadcaster.Run()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Hub:            hub,
		Broker:         broker,
		Tokens:         auth.NewTokenIssuer(cfg.JWTSecret),
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.IsProduction(),
		Users:          userService,
		Communities:    communityService,
		Membership:     membershipService,
		Messages:       messageService,
		Events:         eventService,
		Expenses:       expenseService,
		FAQs:           faqService,
		Map:            mapService,
		Dashboard:      dashboardService,
		AI:             aiClient,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statsBroadcaster.Stop()
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Shutdown leaves hijacked websocket connections open. Stopping the hub
	// sends each client a close frame, and its read pump then releases its
	// subscriptions.
	hub.Stop()

	log.Info().Msg("Server exiting")
}

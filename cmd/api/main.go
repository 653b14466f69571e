package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/adapters/cache"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/adapters/database"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/api/handlers"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/api/routes"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/application/services"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/domain/repositories"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/clients/postgres"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/clients/redis"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/clients/rotapage"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/clinics"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/infrastructure/observability"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/rota"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/internal/scheduler"
	"github.com/SGPDIGITALSOLUTIONS/availabilitywebtool-sub000/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	observability.InitLogger("availabilitywebtool", cfg.Environment)
	logger := observability.GetLogger()

	// Load the clinic directory; without it there is nothing to scrape
	directory, err := clinics.Load(cfg.Scraper.ClinicsFile)
	if err != nil {
		log.Fatalf("Failed to load clinic directory: %v", err)
	}
	logger.Info().Int("clinics", len(directory)).Msg("clinic directory loaded")

	// Initialize database client. The tool stays useful without a
	// database: every request just scrapes live.
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL client: %v", err)
		log.Println("Continuing in live-scrape mode (no persistence, no scheduler)")
		pgClient = nil
	} else {
		defer pgClient.Close()
		log.Println("PostgreSQL client initialized successfully")
	}

	// Initialize Redis client
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Printf("Warning: Failed to initialize Redis client: %v", err)
		// Continue without Redis - the application can work without caching
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Println("Redis client initialized successfully")
	}

	// Initialize adapters
	var availabilityRepo repositories.AvailabilityRepository
	var jobRepo repositories.ScrapeJobRepository
	if pgClient != nil {
		availabilityRepo = database.NewAvailabilityAdapter(pgClient)
		jobRepo = database.NewScrapeJobAdapter(pgClient)

		// Wrap with caching if Redis is available
		if redisClient != nil {
			cacheProvider := cache.NewRedisAdapter(redisClient)
			availabilityRepo = database.NewCachedAvailabilityAdapter(availabilityRepo, cacheProvider)
			log.Println("Availability adapter wrapped with caching layer")
		}
	}

	// Initialize the scraper pipeline
	pageClient := rotapage.NewClient(cfg.Scraper.FetchTimeout, cfg.Scraper.UserAgent)
	scrapeService := services.NewScrapeService(rota.NewScraper(pageClient))

	availabilityService := services.NewAvailabilityService(
		directory,
		scrapeService,
		availabilityRepo,
		jobRepo,
		cfg.Scraper.FreshnessThreshold,
	)
	statusService := services.NewStatusService()

	// Start the background refresh only when results can be persisted;
	// without a database a scheduled scrape would be thrown away.
	if availabilityRepo != nil {
		sched := scheduler.New(availabilityService, logger)
		if err := sched.Start(cfg.Scraper.RefreshSpec); err != nil {
			log.Fatalf("Failed to start refresh scheduler: %v", err)
		}
		defer sched.Stop()
		logger.Info().Str("spec", cfg.Scraper.RefreshSpec).Msg("refresh scheduler started")
	}

	// Initialize handlers and routes
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService, statusService)
	router := routes.NewRouter(availabilityHandler)
	handler := router.SetupRoutes()

	// Create HTTP server
	serverAddr := cfg.Server.ServerAddr()
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s", serverAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	log.Println("Server stopped")
}

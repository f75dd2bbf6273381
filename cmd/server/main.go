package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"osint-stories/internal/auth"
	"osint-stories/internal/collector"
	"osint-stories/internal/database"
	"osint-stories/internal/handlers"
	"osint-stories/internal/metadata"
	"osint-stories/internal/services"
	"osint-stories/internal/worker"
	"osint-stories/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	verifier, err := auth.NewJWTVerifier(os.Getenv("JWT_SECRET"), os.Getenv("JWT_ISSUER"))
	if err != nil {
		log.Fatal("Failed to configure token verification:", err)
	}

	hub := handlers.NewStreamHub()
	stories := services.NewStoryService(database.DB, services.WithNotifier(hub))
	sources := services.NewSourceService(database.DB)

	workerService := worker.NewWorkerService(
		newCollectWorker(stories, sources),
		stories,
		envDuration("SWEEP_INTERVAL", time.Hour),
	)
	if err := workerService.Start(); err != nil {
		log.Fatal("Failed to start background workers:", err)
	}

	// Set Gin mode based on environment
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(handlers.CORS())
	handlers.RegisterRoutes(r, handlers.Dependencies{
		Stories:   stories,
		Queries:   services.NewQueryService(database.DB),
		Reports:   services.NewReportService(database.DB),
		Sources:   sources,
		Hub:       hub,
		Validator: verifier,
		Workers:   workerService,
		BaseURL:   os.Getenv("PUBLIC_URL"),
	})

	// Get port from environment or default to 8080
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	waitForShutdown(srv, workerService)
}

// newCollectWorker returns nil when COLLECTOR_CONFIG is unset
func newCollectWorker(stories *services.StoryService, sources *services.SourceService) *workers.CollectWorker {
	path := os.Getenv("COLLECTOR_CONFIG")
	if path == "" {
		log.Println("⚠️ COLLECTOR_CONFIG not set, feed collection disabled")
		return nil
	}

	config, err := collector.LoadConfig(path)
	if err != nil {
		log.Fatal("Failed to load collector config:", err)
	}

	c := collector.NewCollector(config, stories,
		collector.WithRegistry(sources),
		collector.WithExtractor(metadata.NewExtractor(config.UserAgent)),
	)
	log.Printf("📊 Collector configured with %d sources", len(config.Enabled()))
	return workers.NewCollectWorker(c, envDuration("COLLECT_INTERVAL", config.Interval))
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("⚠️ Invalid %s %q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func waitForShutdown(srv *http.Server, workerService *worker.WorkerService) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Println("Received shutdown signal, gracefully shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ HTTP shutdown: %v", err)
	}

	// Stop background workers
	workerService.Stop()

	log.Println("Shutdown complete")
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"osint-stories/internal/collector"
	"osint-stories/internal/database"
	"osint-stories/internal/metadata"
	"osint-stories/internal/services"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "Collector YAML config (defaults to COLLECTOR_CONFIG)")
	only := flag.String("source", "", "Collect a single source id")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	path := *configPath
	if path == "" {
		path = os.Getenv("COLLECTOR_CONFIG")
	}
	if path == "" {
		log.Fatal("No collector config given, use -config or COLLECTOR_CONFIG")
	}

	config, err := collector.LoadConfig(path)
	if err != nil {
		log.Fatal("Failed to load collector config:", err)
	}
	if *only != "" {
		config.Sources = filterSources(config.Sources, *only)
		if len(config.Sources) == 0 {
			log.Fatalf("Source %q not found in %s", *only, path)
		}
	}

	if err := database.Connect(database.LoadConfig()); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := collector.NewCollector(config, services.NewStoryService(database.DB),
		collector.WithRegistry(services.NewSourceService(database.DB)),
		collector.WithExtractor(metadata.NewExtractor(config.UserAgent)),
	)

	result, err := c.Run(ctx)
	if err != nil {
		log.Fatal("❌ Collection failed:", err)
	}

	for _, source := range result.Sources {
		if source.Error != "" {
			log.Printf("⚠️ %s: %s", source.SourceID, source.Error)
			continue
		}
		log.Printf("📊 %s: fetched %d, created %d, skipped %d, failed %d, enriched %d",
			source.SourceID, source.Fetched, source.Created, source.Skipped, source.Failed, source.Enriched)
	}
	log.Printf("✅ Collection finished in %s: %d created, %d skipped, %d failed, %d source errors",
		result.Duration, result.Created, result.Skipped, result.Failed, result.Errors)
}

func filterSources(sources []collector.SourceConfig, id string) []collector.SourceConfig {
	for _, source := range sources {
		if source.ID == id {
			return []collector.SourceConfig{source}
		}
	}
	return nil
}

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"osint-stories/internal/database"
	"osint-stories/internal/models"
	"osint-stories/internal/services"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// Seeds a development database with a few sources, items, a merged story and
// a report so the API and pages have something to show.

var sampleSources = []models.OSINTSource{
	{ID: "cisa-alerts", Name: "CISA Alerts", GroupID: "government"},
	{ID: "reuters-world", Name: "Reuters World", GroupID: "wire"},
	{ID: "bellingcat", Name: "Bellingcat", GroupID: "community"},
}

func sampleItems(now time.Time) []services.RawItem {
	return []services.RawItem{
		{
			Title:         "Ransomware group claims attack on regional water utility",
			Review:        "Operators report disrupted billing systems; treatment unaffected.",
			Author:        "CISA",
			Source:        "CISA Alerts",
			Link:          "https://example.org/cisa/water-utility-ransomware",
			Published:     now.Add(-6 * time.Hour),
			OSINTSourceID: "cisa-alerts",
			Attributes:    []services.AttributeInput{{Key: "sector", Value: "water"}},
		},
		{
			Title:         "Water utility confirms ransomware incident",
			Review:        "Utility statement confirms encrypted servers and ongoing recovery.",
			Author:        "Reuters",
			Source:        "Reuters World",
			Link:          "https://example.org/reuters/water-utility-confirms",
			Published:     now.Add(-4 * time.Hour),
			OSINTSourceID: "reuters-world",
		},
		{
			Title:         "Geolocating convoy footage near the border crossing",
			Review:        "Open source analysis places the convoy 3km from the crossing.",
			Author:        "Bellingcat Investigations",
			Source:        "Bellingcat",
			Link:          "https://example.org/bellingcat/convoy-geolocation",
			Published:     now.Add(-26 * time.Hour),
			OSINTSourceID: "bellingcat",
		},
	}
}

func main() {
	itemsOnly := flag.Bool("items-only", false, "Only seed news items, skip sources and reports")
	flag.Parse()

	log.Printf("🌱 OSINT Stories Database Seeder")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to database
	if err := database.Connect(database.LoadConfig()); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	ctx := context.Background()
	stories := services.NewStoryService(database.DB)

	if !*itemsOnly {
		seedSources(ctx, services.NewSourceService(database.DB))
	}

	summary := stories.IngestMany(ctx, sampleItems(time.Now()))
	log.Printf("📰 Ingested %d items, %d already present, %d failed", len(summary.Created), summary.Skipped, len(summary.Failed))

	if *itemsOnly || len(summary.Created) < 2 {
		log.Println("✅ Database seeding completed")
		return
	}

	storyID := seedGroupedStory(ctx, stories, summary.Created[0].StoryID, summary.Created[1].StoryID)
	seedReport(ctx, services.NewReportService(database.DB), storyID)

	log.Println("✅ Database seeding completed")
	log.Println("Visit http://localhost:8080/stories to browse the seeded stories")
}

func seedSources(ctx context.Context, sources *services.SourceService) {
	for _, source := range sampleSources {
		if err := sources.UpsertSource(ctx, source); err != nil {
			log.Printf("❌ Failed to seed source %s: %v", source.ID, err)
			continue
		}
		log.Printf("✅ Seeded source %s (%s)", source.ID, source.GroupID)
	}
}

// seedGroupedStory merges the two water utility stories and tags the result
func seedGroupedStory(ctx context.Context, stories *services.StoryService, first, second uuid.UUID) uuid.UUID {
	merged, err := stories.Merge(ctx, []uuid.UUID{first, second}, "seed")
	if err != nil {
		log.Printf("❌ Failed to merge seeded stories: %v", err)
		return first
	}

	summary := "A ransomware group claimed an attack on a **regional water utility**. " +
		"Billing systems were disrupted; water treatment was not affected."
	err = stories.ApplyBotOutput(ctx, services.BotOutput{
		StoryID: merged.StoryID,
		Tags: []services.TagInput{
			{Name: "Ransomware", TagType: "TOPIC"},
			{Name: "Critical Infrastructure", TagType: "SECTOR"},
		},
		Summary: &summary,
	})
	if err != nil {
		log.Printf("⚠️ Failed to annotate seeded story: %v", err)
	}
	log.Printf("✅ Seeded grouped story %s", merged.StoryID)
	return merged.StoryID
}

func seedReport(ctx context.Context, reports *services.ReportService, storyID uuid.UUID) {
	report, err := reports.CreateReport(ctx, "Daily critical infrastructure brief")
	if err != nil {
		log.Printf("❌ Failed to create report: %v", err)
		return
	}
	if err := reports.AssignToReport(ctx, report.ID, storyID); err != nil {
		log.Printf("❌ Failed to assign story to report: %v", err)
		return
	}
	log.Printf("✅ Seeded report %s", report.ID)
}

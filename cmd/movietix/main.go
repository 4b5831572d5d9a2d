package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"movietix/app/repository"
	"movietix/internal/pkg/cache"
	"movietix/internal/pkg/database"
	"movietix/internal/pkg/env"
	"movietix/internal/pkg/metrics/counter"
	"movietix/internal/pkg/router"
)

// Processed webhook events are kept this long for auditing before the
// janitor purges them. Booking dedup does not depend on them; the natural
// key on bookings handles late redeliveries.
const webhookEventRetention = 30 * 24 * time.Hour
const webhookPurgeInterval = 6 * time.Hour
const counterFlushInterval = 1 * time.Minute

func main() {
	app := NewApplication()

	go runWebhookEventJanitor()
	go runCounterFlusher()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName: "movietix",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", monitor.New())

	// static movie posters
	app.Static("/moviePosters", "./public/moviePosters", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// ROUTER
	router.InstallRouter(app)

	return app
}

func runWebhookEventJanitor() {
	events := repository.GetGlobalFactory().GetWebhookEventRepository()
	ticker := time.NewTicker(webhookPurgeInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-webhookEventRetention)
		purged, err := events.PurgeProcessedBefore(cutoff)
		if err != nil {
			log.Printf("webhook janitor: purge failed: %v", err)
			continue
		}
		if purged > 0 {
			log.Printf("webhook janitor: purged %d processed events older than %s", purged, cutoff.Format(time.RFC3339))
		}
	}
}

func runCounterFlusher() {
	ticker := time.NewTicker(counterFlushInterval)
	defer ticker.Stop()

	for range ticker.C {
		if err := counter.FlushAll(); err != nil {
			log.Printf("counter flush failed: %v", err)
		}
	}
}

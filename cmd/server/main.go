package main // Entry point package

import (
	"context"   // Context for startup and shutdown deadlines
	"log"       // Logging library
	"os"        // Signal channel plumbing
	"os/signal" // OS signal notifications
	"syscall"   // SIGTERM constant
	"time"      // Timeouts

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/hotel-info-panels/internal/config"     // Internal config loader
	"github.com/iliyamo/hotel-info-panels/internal/database"   // MySQL connection and schema
	"github.com/iliyamo/hotel-info-panels/internal/fetcher"    // Headless-Chrome Booking.com fetcher
	"github.com/iliyamo/hotel-info-panels/internal/handler"    // HTTP handlers
	"github.com/iliyamo/hotel-info-panels/internal/policy"     // Panel capacity policy
	"github.com/iliyamo/hotel-info-panels/internal/queue"      // Removal event consumer
	"github.com/iliyamo/hotel-info-panels/internal/refresh"    // Lifecycle engine and worker pool
	"github.com/iliyamo/hotel-info-panels/internal/repository" // Panel persistence
	"github.com/iliyamo/hotel-info-panels/internal/router"     // Internal router setup
	queue_publisher "github.com/iliyamo/hotel-info-panels/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env when present; real env vars win
	cfg := config.Load()

	// Connect to MySQL and make sure the panel tables exist.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(context.Background(), db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis backs the distributed rate limiter; nil degrades to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}

	// The fetcher owns the headless browser; the pool bounds concurrent fetches.
	booking, stopBrowser := fetcher.NewBooking(
		cfg.ChromeBin, cfg.LoadMoreClicks,
		time.Duration(cfg.FetchTimeoutSec)*time.Second,
	)
	defer stopBrowser()
	pool := refresh.NewPool(cfg.FetchWorkers)

	repo := repository.NewPanelRepo(db)
	capacity := policy.NewCapacity(cfg.MaxPanels, repo)
	events := queue_publisher.Sink{}
	engine := refresh.NewOrchestrator(
		repo, booking, pool, capacity, events,
		time.Duration(cfg.RefreshCooldownSec)*time.Second,
	)

	// Consume removal events into logs/panels.log unless disabled.
	if os.Getenv("DISABLE_REMOVAL_CONSUMER") == "" {
		go func() {
			if err := queue.StartRemovalConsumer(); err != nil {
				log.Printf("removal consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e) // Health check
	router.RegisterPanels(e, handler.NewPanelHandler(repo, engine, events),
		cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	// Block until asked to stop, then shut the HTTP surface down first and
	// wait for in-flight fetches to finish.  Fetches are awaited, not killed.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	pool.Drain()
	log.Printf("drained worker pool; bye")
}

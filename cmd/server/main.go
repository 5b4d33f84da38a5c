package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/pulsedeck/pulsedeck/internal/api"
	"github.com/pulsedeck/pulsedeck/internal/config"
	"github.com/pulsedeck/pulsedeck/internal/database"
	"github.com/pulsedeck/pulsedeck/internal/feed"
	"github.com/pulsedeck/pulsedeck/internal/jobs"
	"github.com/pulsedeck/pulsedeck/internal/reconcile"
	"github.com/pulsedeck/pulsedeck/internal/store"
	"github.com/pulsedeck/pulsedeck/internal/websocket"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}
	defer sqlDB.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	st := store.New(db)

	// Initialize WebSocket hub; the local reconciliation loop taps the same
	// stream clients receive.
	hub := websocket.NewHub(cfg.JWTSecret, cfg.CORSOrigins)
	tap := make(chan []byte, 256)
	hub.Tap(tap)
	go hub.Run()

	// Warm-start the aggregate state from a bulk fetch, then keep it current
	// from the live stream.
	state := reconcile.NewState(
		reconcile.WithSeriesWindow(time.Hour, cfg.SeriesHours),
	)
	consumer := feed.NewConsumer(state, st, rate.Limit(cfg.RefreshPerMinute/60))
	consumer.Refresh(context.Background())

	loop := feed.NewLoop(state, consumer, tap, time.Hour)
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go loop.Run(loopCtx)

	// Initialize job scheduler
	scheduler := jobs.NewScheduler(st)
	scheduler.Start()
	defer scheduler.Stop()

	// Setup API router
	router := api.NewRouter(cfg, st, hub, loop)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

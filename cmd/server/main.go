package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/browser"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/config"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/database"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/logging"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/messaging"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/redis"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/server"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/session"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/storage"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/stream"
)

func setupConfig() *config.Config {
	// .env is optional, real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	return db
}

func setupRedis(cfg *config.Config) *redis.Client {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func runGracefulShutdown(srv *server.Server, manager *session.Manager, streamer *stream.Streamer, hub *messaging.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		streamer.Stop()
		hub.Stop()
		manager.Shutdown()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	resumeStore, err := storage.NewResumeStore(cfg.ResumeStorageDir)
	if err != nil {
		slog.Error("Failed to initialize resume storage", "error", err)
		os.Exit(1)
	}

	userRepo := database.NewUserRepo(pool)
	profileRepo := database.NewProfileRepo(pool)
	resumeRepo := database.NewResumeRepo(pool)
	assignmentRepo := database.NewAssignmentRepo(pool)
	threadRepo := database.NewThreadRepo(pool)
	eventRepo := database.NewEventRepo(pool)

	registry := session.NewRegistry()
	driver := browser.NewDriver(cfg.BrowserBin)
	manager := session.NewManager(registry, driver, profileRepo, resumeRepo, assignmentRepo, eventRepo, clock)

	streamer := stream.NewStreamer(registry, clock, stream.DefaultFrameInterval)

	pubsub := redis.NewPubSub(redisClient)
	hub := messaging.NewHub(func(ctx context.Context, threadID uuid.UUID) (<-chan redis.MessagePosted, func()) {
		sub := pubsub.SubscribeThread(ctx, threadID)
		return sub.Ch, sub.Close
	})

	srv := server.NewServer(cfg, server.Dependencies{
		Manager:     manager,
		Streamer:    streamer,
		Hub:         hub,
		Users:       userRepo,
		Profiles:    profileRepo,
		Resumes:     resumeRepo,
		Assignments: assignmentRepo,
		Threads:     threadRepo,
		Events:      eventRepo,
		ResumeStore: resumeStore,
		PubSub:      pubsub,
		DB:          pool,
		Redis:       redisClient,
	})

	done := runGracefulShutdown(srv, manager, streamer, hub)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

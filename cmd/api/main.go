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

	"github.com/joho/godotenv"

	"github.com/dinedesk/backend/internal/config"
	"github.com/dinedesk/backend/internal/database"
	"github.com/dinedesk/backend/internal/handler"
	chathandler "github.com/dinedesk/backend/internal/handler/chat"
	streamhandler "github.com/dinedesk/backend/internal/handler/stream"
	voicehandler "github.com/dinedesk/backend/internal/handler/voice"
	"github.com/dinedesk/backend/internal/model/restaurant"
	"github.com/dinedesk/backend/internal/repository"
	"github.com/dinedesk/backend/internal/service/assistant"
	chatservice "github.com/dinedesk/backend/internal/service/chat"
	"github.com/dinedesk/backend/internal/service/speech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	var (
		restaurants restaurant.Store
		chatStore   chatservice.Store
	)
	if cfg.Database.Enabled() {
		pool, err := database.NewPostgresPool(cfg.Database.URL)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()

		if err := database.Migrate(pool); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}

		restaurantRepo := repository.NewRestaurantRepo(pool)
		if err := restaurantRepo.Seed(ctx, restaurant.Seed()); err != nil {
			log.Fatalf("failed to seed restaurant catalog: %v", err)
		}

		restaurants = restaurantRepo
		chatStore = repository.NewChatRepo(pool)
		log.Println("using Postgres-backed stores")
	} else {
		restaurants = restaurant.NewMemoryStore(restaurant.Seed())
		chatStore = chatservice.NewMemoryStore()
		log.Println("DATABASE_URL not set, using in-memory stores")
	}

	chatService := chatservice.NewService(chatStore)

	assistantService, err := assistant.NewService(ctx, restaurants, cfg.AI, cfg.Assistant)
	if err != nil {
		log.Printf("warning: language model unavailable, replies use canned phrasing: %v", err)
		assistantService, err = assistant.NewService(ctx, restaurants, config.AIConfig{}, cfg.Assistant)
		if err != nil {
			log.Fatalf("failed to initialize assistant: %v", err)
		}
	}

	var synth speech.Synthesizer
	if cfg.Speech.Enabled {
		synth = speech.Directive{
			Rate:     cfg.Speech.Rate,
			Pitch:    cfg.Speech.Pitch,
			Volume:   cfg.Speech.Volume,
			Voice:    cfg.Speech.Voice,
			Language: cfg.Speech.Language,
		}
		log.Println("speech synthesis directives enabled")
	} else {
		synth = speech.Unsupported{}
		log.Println("speech synthesis disabled by configuration")
	}

	router := handler.NewRouter(handler.Handlers{
		Chat:   chathandler.New(chatService, assistantService),
		Stream: streamhandler.New(chatService, assistantService, cfg.Assistant.RevealTick),
		Voice:  voicehandler.New(chatService, assistantService, synth),
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("DineDesk backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/marin55/pixelstory/internal/config"
	"github.com/marin55/pixelstory/internal/database"
	"github.com/marin55/pixelstory/internal/generation"
	postgresrepo "github.com/marin55/pixelstory/internal/repository/postgres"
	"github.com/marin55/pixelstory/internal/service"
	"github.com/marin55/pixelstory/internal/storage"
	"github.com/marin55/pixelstory/internal/transport/http/handlers"
	"github.com/marin55/pixelstory/internal/transport/http/middleware"
	"github.com/marin55/pixelstory/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	characterRepo := postgresrepo.NewCharacterRepo(pool)

	// Artifact storage + collaborators
	files := storage.NewFileManager(cfg.StorageDir, cfg.PublicBase)
	pixelClient := generation.NewPixelLabClient(cfg.PixelLabAPIKey, cfg.PixelLabBaseURL)
	storyClient := generation.NewStoryClient(cfg.StoryAPIToken, cfg.StoryBaseURL, cfg.StoryModel)

	// WebSocket hub for generation progress
	hub := ws.NewHub()
	go hub.Run()
	notifier := ws.NewNotifier(hub)

	// Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret)
	characterService := service.NewCharacterService(characterRepo, files)
	generationService := service.NewGenerationService(
		characterRepo, pixelClient, storyClient, files, notifier, cfg.GenerationTimeout,
	)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	characterHandler := handlers.NewCharacterHandler(characterService, generationService)
	downloadHandler := handlers.NewDownloadHandler(characterService, files)

	// Auth middleware
	auth := middleware.Auth(authService)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/auth/me", authHandler.Me)

	// Public - gallery and downloads
	mux.HandleFunc("GET /api/v1/characters", characterHandler.List)
	mux.HandleFunc("GET /api/v1/characters/{id}", characterHandler.Get)
	mux.HandleFunc("GET /api/v1/characters/{id}/status", characterHandler.Status)
	mux.HandleFunc("GET /api/v1/characters/{id}/download/images", downloadHandler.Archive(storage.ArchiveImages))
	mux.HandleFunc("GET /api/v1/characters/{id}/download/gif", downloadHandler.GIF)
	mux.HandleFunc("GET /api/v1/characters/{id}/download/all", downloadHandler.Archive(storage.ArchiveAll))
	mux.HandleFunc("GET /api/v1/characters/{id}/download/export", downloadHandler.Archive(storage.ArchiveExport))
	mux.HandleFunc("GET /api/v1/characters/{id}/images/direction/{direction}", downloadHandler.ImageByDirection)

	// Protected - generation lifecycle
	mux.Handle("POST /api/v1/characters/generate", auth(http.HandlerFunc(characterHandler.Generate)))
	mux.Handle("POST /api/v1/characters/{id}/save", auth(http.HandlerFunc(characterHandler.Save)))
	mux.Handle("DELETE /api/v1/characters/{id}", auth(http.HandlerFunc(characterHandler.Delete)))

	// Realtime progress + generated artifacts
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, authService))
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StorageDir))))

	// Reconciliation sweep for characters stuck in generating
	go func() {
		ticker := time.NewTicker(cfg.GenerationTimeout)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := generationService.SweepStale(ctx); err != nil {
					log.Printf("ERROR sweep: %v", err)
				} else if n > 0 {
					log.Printf("sweep: failed %d stale generation(s)", n)
				}
			}
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	server := &http.Server{
		Addr:    addr,
		Handler: middleware.CORS(cfg.AllowedOrigin)(mux),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR shutdown: %v", err)
		}
	}()

	log.Printf("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

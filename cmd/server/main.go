package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"tileworld/server/config"
	"tileworld/server/handlers"
	"tileworld/server/logger"
	"tileworld/server/messages"
	"tileworld/server/models"
	"tileworld/server/persistence"
	"tileworld/server/services"
)

const sessionArchiveBuffer = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The game client is served from anywhere during development.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func init() {
	logger.Init()
}

func main() {
	if err := run(); err != nil {
		logger.Log.Fatalf("Server error: %v", err)
	}
}

// run serves until a signal arrives or the listener fails. Every exit
// goes through the same shutdown so deferred cleanup always runs.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(cfg.Seed))
	world := models.GenerateMap(cfg.MapWidth, cfg.MapHeight, rng)
	logger.Log.Infof("Generated %dx%d map with %d walkable tiles (seed %d)",
		world.Width, world.Height, world.CountWalkable(), cfg.Seed)

	archiver := services.NewArchiver(db, sessionArchiveBuffer)
	clientManager := handlers.NewClientManager()
	engine, err := services.NewEngine(world, clientManager, services.Options{
		TickInterval: cfg.TickInterval,
		Rand:         rng,
		Archiver:     archiver,
	})
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	// The archiver outlives the engine so the last disconnects are saved.
	archiveCtx, stopArchive := context.WithCancel(context.Background())
	defer stopArchive()
	archiveDone := make(chan struct{})
	go func() {
		archiver.Run(archiveCtx)
		close(archiveDone)
	}()
	go engine.Run(ctx)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: newMux(ctx, engine, clientManager, db)}
	serverErr := make(chan error, 1)
	go func() {
		logger.Log.Infof("Server starting on port %s", cfg.Port)
		serverErr <- serve(srv)
	}()

	select {
	case <-ctx.Done():
	case err = <-serverErr:
		logger.Log.WithError(err).Error("HTTP server stopped")
		stop()
	}
	logger.Log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Warn("HTTP shutdown incomplete")
	}
	<-engine.Done()
	stopArchive()
	<-archiveDone
	logger.Log.Info("Done.")
	return err
}

// serve runs srv until it fails or is shut down. A clean shutdown
// returns nil.
func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newMux(ctx context.Context, engine *services.Engine, clientManager *handlers.ClientManager, db persistence.Storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		codec, err := messages.CodecFor(r.URL.Query().Get("codec"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Log.WithError(err).Warn("Failed to upgrade connection")
			return
		}
		handlers.HandleClientConnection(ctx, conn, codec, engine, clientManager)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/sessions", sessionsHandler(db))
	return mux
}

func openStore(cfg config.Config) (persistence.Storage, error) {
	switch cfg.StoreType {
	case config.StorePostgres:
		logger.Log.Info("Using PostgreSQL session archive")
		return persistence.NewPostgresStore(cfg.DatabaseURL)
	case config.StoreJSON:
		logger.Log.Infof("Using JSON session archive at %s", cfg.StoreFile)
		return persistence.NewJSONStore(cfg.StoreFile)
	default:
		logger.Log.Info("Using in-memory session archive")
		return persistence.NewMemoryStore(), nil
	}
}

// sessionsHandler lists archived sessions for ?nickname=, or the top
// scores (?limit=, default 10) without it.
func sessionsHandler(db persistence.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			recs []models.SessionRecord
			err  error
		)
		if nickname := r.URL.Query().Get("nickname"); nickname != "" {
			recs, err = db.LoadSessionsByNickname(nickname)
		} else {
			limit := 10
			if v := r.URL.Query().Get("limit"); v != "" {
				n, convErr := strconv.Atoi(v)
				if convErr != nil || n <= 0 {
					http.Error(w, "invalid limit", http.StatusBadRequest)
					return
				}
				limit = n
			}
			recs, err = db.TopSessions(limit)
		}
		if err != nil {
			logger.Log.WithError(err).Error("Failed to load sessions")
			http.Error(w, "failed to load sessions", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(recs)
	}
}

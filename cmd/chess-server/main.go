package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-live-server/internal/archive"
	appcfg "github.com/park285/chess-live-server/internal/config"
	"github.com/park285/chess-live-server/internal/directory"
	"github.com/park285/chess-live-server/internal/obslog"
	"github.com/park285/chess-live-server/internal/room"
	"github.com/park285/chess-live-server/internal/ws"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	var dir *directory.Directory
	if cfg.RedisURL != "" {
		dir, err = directory.New(cfg.RedisURL)
		if err != nil {
			log.Fatalf("directory init error: %v", err)
		}
	}

	var arch *archive.Repository
	if cfg.DatabaseURL != "" {
		arch, err = archive.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
	}

	registry := room.NewRegistry(room.Options{
		IdleTTL:   cfg.RoomIdleTTL,
		Directory: dir,
		Archive:   arch,
	})

	gameHandler := ws.NewHandler(registry, ws.HandlerOptions{
		OriginPatterns: cfg.AllowedOrigins,
		QueueSize:      cfg.SendQueueSize,
		WriteTimeout:   cfg.WriteTimeout,
	})

	mux := http.NewServeMux()
	mux.Handle(ws.PathPrefix, gameHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/rooms", roomsHandler(dir))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("server_listen", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("server_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("server_shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	_ = srv.Shutdown(ctx)
	cancel()
	registry.Close()
	_ = dir.Close()
	_ = arch.Close()
}

// roomsHandler lists live rooms from the directory. Without Redis it reports
// the feature as unavailable rather than guessing from process state.
func roomsHandler(dir *directory.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if dir == nil {
			http.Error(w, "room directory not configured", http.StatusNotImplemented)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		entries, err := dir.List(ctx)
		if err != nil {
			obslog.L().Warn("directory_list_error", zap.Error(err))
			http.Error(w, "directory unavailable", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if entries == nil {
			entries = []directory.Entry{}
		}
		_ = json.NewEncoder(w).Encode(entries)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-editor/internal/config"
	"github.com/debemdeboas/archive-editor/internal/db"
	"github.com/debemdeboas/archive-editor/internal/editor"
	"github.com/debemdeboas/archive-editor/internal/logger"
	"github.com/debemdeboas/archive-editor/internal/render"
	"github.com/debemdeboas/archive-editor/internal/repository"
	"github.com/debemdeboas/archive-editor/internal/sse"
)

// How often storage is checked for drafts changed by someone else.
const watchInterval = 5 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the config file")
	flag.Parse()

	bootLog := logger.New("info")

	if err := godotenv.Load(); err != nil {
		bootLog.Debug().Err(err).Msg("No .env file loaded")
	}

	config.SetLogger(logger.Component(bootLog, "config"))
	if err := config.LoadConfig(*configPath); err != nil {
		bootLog.Fatal().Err(err).Msg("Error loading config")
	}
	cfg := config.AppConfig

	log := logger.NewWithWriter(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	setLoggers(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closer, err := repository.Open(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Error opening draft storage")
	}
	defer closer.Close()

	clients := sse.NewSSEClients()
	sessions := editor.NewSessionManager(repo, clients, cfg.Editor)
	go repository.WatchChanges(ctx, repo, watchInterval, sessions.Reload)

	srv := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: newServer(sessions, repo, clients),
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Error().Err(err).Msg("Error shutting down server")
		}
	}()

	log.Info().Str("addr", srv.Addr).Str("backend", cfg.Storage.Backend).Msg("Starting editor server")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(logger.Component(l, "config"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))
	render.SetLogger(logger.Component(l, "render"))
	editor.SetLogger(logger.Component(l, "editor"))
}

func newServer(sessions *editor.SessionManager, repo repository.DraftRepository, clients *sse.SSEClients) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(config.RouteRobots, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /"))
	})

	editor.NewHandler(sessions, repo, clients).Register(mux)

	securedMux := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" { // Ignore robots.txt
			mux.ServeHTTP(w, r)
		} else {
			secureHeaders(mux.ServeHTTP)(w, r)
		}
	})
	return cacheIt(securedMux)
}

func cacheIt(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")
		w.Header().Set("Vary", "Cookie")

		h(w, r)
	}
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		h(w, r)
	}
}

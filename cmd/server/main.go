// The server exposes the dispatch loop over HTTP: a manual pass trigger,
// a status endpoint and campaign inspection. It shares the worker's wiring
// but never ticks on its own.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/mailramp/mailramp-backend/internal/config"
	"github.com/mailramp/mailramp-backend/internal/db"
	"github.com/mailramp/mailramp-backend/internal/handler"
	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/mailer"
	"github.com/mailramp/mailramp-backend/internal/repository"
	"github.com/mailramp/mailramp-backend/internal/service"
	"github.com/mailramp/mailramp-backend/internal/throttle"
)

func main() {
	// .env is a development convenience only
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format).WithComponent("server")

	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	campaignRepo := &repository.CampaignRepository{DB: database, Log: log}

	svc := &service.DispatchService{
		CampaignRepo: campaignRepo,
		ContactRepo:  &repository.ContactRepository{DB: database},
		SenderRepo:   &repository.SenderConfigRepository{DB: database},
		ProgressRepo: &repository.ProgressRepository{DB: database},
		Dispatcher:   mailer.NewDispatcher(cfg.OAuth, cfg.SMTP, log),
		Limiter:      throttle.New(cfg.Dispatch.Jitter),
		Log:          log,
		DefaultPause: cfg.Dispatch.DefaultPause,
	}

	h := &handler.DispatchHandler{
		Service:      svc,
		CampaignRepo: campaignRepo,
		Dispatch:     cfg.Dispatch,
		SMTP:         cfg.SMTP,
		Log:          log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/dispatch/run", h.RunPass)
	r.Get("/dispatch/status", h.Status)
	r.Get("/campaigns/{id}", h.GetCampaign)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

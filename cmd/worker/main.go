// The worker runs the campaign dispatch loop: an immediate pass at boot,
// then one pass per configured interval until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mailramp/mailramp-backend/internal/config"
	"github.com/mailramp/mailramp-backend/internal/db"
	"github.com/mailramp/mailramp-backend/internal/events"
	"github.com/mailramp/mailramp-backend/internal/logger"
	"github.com/mailramp/mailramp-backend/internal/mailer"
	"github.com/mailramp/mailramp-backend/internal/repository"
	"github.com/mailramp/mailramp-backend/internal/scheduler"
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

	log := logger.New(cfg.Log.Level, cfg.Log.Format).WithComponent("worker")

	database, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	campaignRepo := &repository.CampaignRepository{DB: database, Log: log}
	contactRepo := &repository.ContactRepository{DB: database}
	senderRepo := &repository.SenderConfigRepository{DB: database}
	progressRepo := &repository.ProgressRepository{DB: database}

	var publisher events.Publisher
	if cfg.Events.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Queue, log)
		if err != nil {
			log.Warn().Err(err).Msg("event publisher unavailable, continuing without it")
		} else {
			publisher = p
			defer p.Close()
		}
	}

	svc := &service.DispatchService{
		CampaignRepo: campaignRepo,
		ContactRepo:  contactRepo,
		SenderRepo:   senderRepo,
		ProgressRepo: progressRepo,
		Dispatcher:   mailer.NewDispatcher(cfg.OAuth, cfg.SMTP, log),
		Limiter:      throttle.New(cfg.Dispatch.Jitter),
		Events:       publisher,
		Log:          log,
		DefaultPause: cfg.Dispatch.DefaultPause,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run one pass right away so a restart never waits a full interval.
	if _, err := svc.RunDuePass(ctx, time.Now().UTC()); err != nil {
		log.Error().Err(err).Msg("initial dispatch pass failed")
	}

	sched := scheduler.New(svc, log)
	if err := sched.Start(ctx, cfg.Dispatch.Interval); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	sched.Stop()
}

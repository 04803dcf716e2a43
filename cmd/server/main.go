// Command server runs the booking engine HTTP API.
//
// @title        Booking Engine API
// @version      1.0
// @description  Slot holds, double-booking-safe appointments and exactly-once payment webhooks.
// @BasePath     /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/tbourn/go-booking-engine/docs"
	"github.com/tbourn/go-booking-engine/internal/config"
	"github.com/tbourn/go-booking-engine/internal/gateway"
	httpapi "github.com/tbourn/go-booking-engine/internal/http"
	"github.com/tbourn/go-booking-engine/internal/jobs"
	"github.com/tbourn/go-booking-engine/internal/lock"
	"github.com/tbourn/go-booking-engine/internal/mq"
	"github.com/tbourn/go-booking-engine/internal/notify"
	"github.com/tbourn/go-booking-engine/internal/observability"
	"github.com/tbourn/go-booking-engine/internal/repo"
	"github.com/tbourn/go-booking-engine/internal/services"
	"github.com/tbourn/go-booking-engine/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const reminderLead = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.Setup(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup")
	}

	db, err := repo.Open(cfg.DatabaseURL, cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("database handle")
	}

	var slotLock lock.Locker = lock.Noop{}
	if cfg.RedisURL != "" {
		rl, err := lock.NewRedis(cfg.RedisURL, cfg.Booking.SlotLockTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("redis")
		}
		if err := rl.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("redis unreachable; bookings rely on the database alone")
		}
		defer rl.Close()
		slotLock = rl
	}

	var pub mq.JSONPublisher = mq.Nop{}
	if cfg.AMQPURL != "" {
		p := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err := p.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("amqp")
		}
		defer func() { _ = p.Stop() }()
		pub = p
	}

	clock := services.SystemClock{}
	notifiers := []notify.Notifier{
		notify.Realtime{Pub: pub},
		notify.Jobs{Pub: pub, ReminderLead: reminderLead, Now: clock.Now},
	}
	if cfg.SMTP.Host != "" {
		notifiers = append(notifiers, notify.NewEmail(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Password, cfg.SMTP.From))
	}
	events := notify.NewDispatcher(15*time.Second, notifiers...)

	holds := &services.HoldService{
		DB:          db,
		Clock:       clock,
		TTL:         cfg.Hold.TTL,
		MaxLifetime: cfg.Hold.MaxLifetime,
		Events:      events,
	}
	svc := httpapi.Services{
		Holds: holds,
		Slots: &services.AvailabilityService{DB: db, Holds: holds, DefaultSlot: cfg.Booking.DefaultSlot},
		Bookings: &services.BookingService{
			DB:             db,
			Holds:          holds,
			Clock:          clock,
			Locker:         slotLock,
			Events:         events,
			RefMaxAttempts: cfg.Booking.RefMaxAttempts,
			DefaultSlot:    cfg.Booking.DefaultSlot,
			PhoneRegion:    cfg.Booking.DefaultPhoneRegion,
		},
		Appointments: &services.AppointmentService{DB: db, Clock: clock, Events: events},
		Webhooks: &services.WebhookService{
			DB:      db,
			Gateway: gateway.New(cfg.Payment.APIBaseURL, cfg.Payment.AccessToken, cfg.Payment.Timeout),
			Clock:   clock,
			Events:  events,
		},
		Ready: func() error {
			pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(pctx)
		},
	}

	sweeper := &jobs.HoldSweeper{Holds: holds, Schedule: cfg.Hold.SweepSchedule}
	if cfg.RedisURL != "" {
		sweeper.Leader = slotLock
	}
	if err := sweeper.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("hold sweeper")
	}

	r := gin.New()
	if err := httpapi.RegisterRoutes(r, svc, cfg); err != nil {
		log.Fatal().Err(err).Msg("routes")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	sweeper.Stop()
	events.Wait()
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("close database")
	}
	log.Info().Msg("server exited")
}

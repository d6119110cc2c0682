package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/audit"
	"github.com/rezervi/rezervi-api/internal/auth"
	"github.com/rezervi/rezervi-api/internal/cache"
	"github.com/rezervi/rezervi-api/internal/config"
	dbpkg "github.com/rezervi/rezervi-api/internal/db"
	"github.com/rezervi/rezervi-api/internal/domain/account"
	"github.com/rezervi/rezervi-api/internal/domain/business"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/handlers"
	"github.com/rezervi/rezervi-api/internal/infra/memory"
	infraRepo "github.com/rezervi/rezervi-api/internal/infra/repository"
	"github.com/rezervi/rezervi-api/internal/logger"
	"github.com/rezervi/rezervi-api/internal/outbox"
	"github.com/rezervi/rezervi-api/internal/routes"
	"github.com/rezervi/rezervi-api/internal/telemetry"
	ucAccount "github.com/rezervi/rezervi-api/internal/usecase/account"
	ucBooking "github.com/rezervi/rezervi-api/internal/usecase/booking"
	ucBusiness "github.com/rezervi/rezervi-api/internal/usecase/business"
	"github.com/rezervi/rezervi-api/internal/validators"
)

const serviceName = "rezervi-api"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stores is the persistence backend selected by DB_DRIVER.
type stores struct {
	reservations reservation.Repository
	businesses   business.Repository
	users        account.Repository
	audit        audit.Store
	outbox       outbox.Store
	ping         handlers.Pinger
}

func run() error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: serviceName})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	cfg.LogConfiguration(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.ConfigFromEnv(serviceName))
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}

	// ======================================================
	// INFRA
	// ======================================================
	st, err := openStores(cfg, log)
	if err != nil {
		return err
	}

	occupancy, counter, closeRedis, err := openCache(ctx, cfg, log)
	if err != nil {
		return err
	}

	auditDispatcher := audit.NewDispatcher(audit.New(st.audit), logger.Component(log, "audit"), 256)

	var scheduler *outbox.Scheduler
	var writer outbox.Writer
	if len(cfg.KafkaBrokers) > 0 {
		writer = outbox.NewKafkaWriter(cfg.KafkaBrokers)
		relay := outbox.NewRelay(st.outbox, writer, logger.Component(log, "outbox"), outbox.RelayConfig{
			TopicPrefix: cfg.KafkaTopicPrefix,
			BatchSize:   cfg.OutboxBatchSize,
			Retention:   cfg.OutboxRetention,
		})
		if scheduler, err = outbox.NewScheduler(relay, logger.Component(log, "outbox"), cfg.OutboxSchedule); err != nil {
			return err
		}
		scheduler.Start()
	} else {
		log.Info("kafka brokers not configured, outbox relay disabled")
	}

	// ======================================================
	// USE CASES
	// ======================================================
	validator := validators.New(cfg.PhoneRegions)
	validator.BindGin()

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	deps := ucBooking.Deps{
		Repo:            st.reservations,
		Occupancy:       occupancy,
		Audit:           auditDispatcher,
		Validator:       validator,
		Log:             logger.Component(log, "booking"),
		Policy:          reservation.Policy{CustomerCancelCutoff: cfg.CustomerCancelCutoff},
		TxTimeout:       cfg.BookingTxTimeout,
		DefaultTimezone: cfg.DefaultTimezone,
	}

	accounts := ucAccount.NewService(st.users, st.businesses, issuer, validator, cfg.DefaultTimezone, logger.Component(log, "account"))
	businesses := ucBusiness.NewService(st.businesses, st.audit, auditDispatcher, validator, logger.Component(log, "business"))

	// ======================================================
	// HTTP
	// ======================================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	routes.RegisterRoutes(r, routes.Handlers{
		Health: handlers.NewHealthHandler(st.ping, log),
		Auth:   handlers.NewAuthHandler(accounts),
		Public: handlers.NewPublicHandler(
			businesses,
			ucBooking.NewGetAvailability(deps),
			ucBooking.NewBook(deps),
		),
		Reservations: handlers.NewReservationHandler(
			ucBooking.NewQueries(deps),
			ucBooking.NewChangeStatus(deps),
			ucBooking.NewReschedule(deps),
		),
		Business: handlers.NewBusinessHandler(businesses),
	}, routes.Options{
		Issuer:           issuer,
		Counter:          counter,
		CORSOrigins:      cfg.CORSOrigins,
		BookingRateLimit: cfg.BookingRateLimit,
		Log:              logger.Component(log, "http"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           otelhttp.NewHandler(r, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// ======================================================
	// SHUTDOWN
	// ======================================================
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		if err := scheduler.Stop(shutdownCtx); err != nil {
			log.Warn("outbox scheduler shutdown", zap.Error(err))
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			log.Warn("kafka writer close", zap.Error(err))
		}
	}
	if err := auditDispatcher.Close(shutdownCtx); err != nil {
		log.Warn("audit queue not drained", zap.Error(err))
	}
	closeRedis()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

func openStores(cfg *config.Config, log *zap.Logger) (*stores, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		m := memory.New()
		return &stores{
			reservations: m,
			businesses:   m.Businesses(),
			users:        m,
			audit:        m,
			outbox:       m,
			ping:         m,
		}, nil
	}

	db, err := dbpkg.NewDB(cfg, logger.Component(log, "db"))
	if err != nil {
		return nil, err
	}
	events := infraRepo.NewEventGormRepository(db)
	return &stores{
		reservations: infraRepo.NewReservationGormRepository(db, cfg.BookingTxTimeout),
		businesses:   infraRepo.NewBusinessGormRepository(db),
		users:        infraRepo.NewUserGormRepository(db),
		audit:        events,
		outbox:       events,
		ping:         dbpkg.Pinger{DB: db},
	}, nil
}

// openCache returns the Redis backed cache and limiter, or in-process
// fallbacks when REDIS_ADDR is empty. The in-process occupancy cache is only
// coherent with the memory store, which never has more than one writer.
func openCache(ctx context.Context, cfg *config.Config, log *zap.Logger) (cache.Occupancy, cache.Counter, func(), error) {
	if cfg.RedisAddr == "" {
		if cfg.DBDriver == config.DriverMemory {
			log.Info("redis not configured, using in-process availability cache")
			return cache.NewLocal(cfg.CacheTTL), cache.NewLocalCounter(), func() {}, nil
		}
		log.Info("redis not configured, availability cache disabled")
		return cache.Noop{}, cache.NewLocalCounter(), func() {}, nil
	}

	rdb, err := cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("redis: %w", err)
	}

	closeFn := func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis close", zap.Error(err))
		}
	}
	return cache.NewRedisOccupancy(rdb, cfg.CacheTTL, logger.Component(log, "cache")), cache.NewRedisCounter(rdb), closeFn, nil
}

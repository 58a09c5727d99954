package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	customerhandler "guestman/internal/customer/handler"
	"guestman/internal/customer/service"
	contactstore "guestman/internal/customer/store/contactpoint"
	customerstore "guestman/internal/customer/store/customer"
	externalstore "guestman/internal/customer/store/external"
	identifierstore "guestman/internal/customer/store/identifier"
	"guestman/internal/events"
	"guestman/internal/gates"
	gatemetrics "guestman/internal/gates/metrics"
	"guestman/internal/identity"
	identitymetrics "guestman/internal/identity/metrics"
	jwttoken "guestman/internal/jwt_token"
	"guestman/internal/platform/config"
	"guestman/internal/platform/httpserver"
	"guestman/internal/platform/kafka"
	"guestman/internal/platform/logger"
	"guestman/internal/platform/metrics"
	"guestman/internal/platform/middleware"
	"guestman/internal/platform/postgres"
	redisclient "guestman/internal/platform/redis"
	"guestman/internal/replay"
	replaystore "guestman/internal/replay/store"
	"guestman/internal/webhook"
	webhookmetrics "guestman/internal/webhook/metrics"
	"guestman/pkg/contact"
	"guestman/pkg/platform/tx"
)

const (
	shutdownTimeout = 10 * time.Second
	requestTimeout  = 30 * time.Second
)

// The backend interfaces are what both store implementations satisfy: the
// service contract, the gate lookups and the resolver's batch lookups.
type customerBackend interface {
	service.CustomerStore
	gates.CustomerLookup
	identity.CustomerStore
}

type contactBackend interface {
	service.ContactStore
	gates.ContactLookup
	identity.ContactStore
}

type identifierBackend interface {
	service.IdentifierStore
	identity.IdentifierStore
}

type backends struct {
	customers   customerBackend
	contacts    contactBackend
	identifiers identifierBackend
	externals   identity.ExternalStore
	ledger      replay.Store
	runner      tx.Runner
	health      func(ctx context.Context) error
	closers     []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.close()

	sink, err := eventSink(ctx, cfg, log, b)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)

	normalizer := contact.New(cfg.DefaultRegion)
	engine := gates.New(b.contacts, b.customers, b.ledger,
		gates.WithLogger(log),
		gates.WithMetrics(gatemetrics.New(reg)),
		gates.WithNormalizer(normalizer),
	)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(httpMetrics),
		service.WithEventSink(sink),
		service.WithNormalizer(normalizer),
	}
	directory := service.NewDirectory(b.customers, b.contacts, engine, b.runner, opts...)
	contacts := service.NewContacts(b.customers, b.contacts, engine, b.runner, opts...)
	resolver := identity.New(identity.Stores{
		Customers:   b.customers,
		Contacts:    b.contacts,
		Identifiers: b.identifiers,
		Externals:   b.externals,
	}, engine, b.runner,
		identity.WithLogger(log),
		identity.WithMetrics(identitymetrics.New(reg)),
		identity.WithNormalizer(normalizer),
		identity.WithEventSink(sink),
	)

	if cfg.DevMode() {
		log.Warn("WEBHOOK_SECRET is empty: webhook signatures are not verified (dev mode)")
	}
	hooks := webhook.New(engine, resolver, webhook.Config{
		Secret: cfg.Webhook.Secret,
		MaxAge: cfg.Webhook.MaxAge,
		Source: identity.DefaultSource,
	}, webhook.WithLogger(log), webhook.WithMetrics(webhookmetrics.New(reg)))

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := b.health(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	hooks.Register(r)

	if cfg.JWTSigningKey != "" {
		jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
		customerhandler.New(directory, contacts, resolver, engine, log,
			jwttoken.NewJWTServiceAdapter(jwtService)).Register(r)
	} else {
		log.Warn("JWT_SIGNING_KEY is empty: directory API disabled")
	}

	srv := httpserver.New(cfg.Addr, r)
	cleaner := replay.NewCleaner(b.ledger, time.Duration(cfg.Retention.EventDays)*24*time.Hour, replay.WithLogger(log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting guestman", "addr", cfg.Addr, "replay_backend", cfg.ReplayBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := cleaner.Start(gctx, cfg.Retention.CleanupInterval); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openBackends picks postgres stores when DATABASE_URL is set and in-memory
// stores otherwise. The replay ledger follows cfg.ReplayBackend.
func openBackends(ctx context.Context, cfg config.Server, log *slog.Logger) (*backends, error) {
	b := &backends{health: func(context.Context) error { return nil }}

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = db.Close() })
		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			b.close()
			return nil, err
		}
		if len(applied) > 0 {
			log.Info("migrations applied", "versions", applied)
		}
		b.customers = customerstore.NewPostgres(db)
		b.contacts = contactstore.NewPostgres(db)
		b.identifiers = identifierstore.NewPostgres(db)
		b.externals = externalstore.NewPostgres(db)
		b.runner = tx.NewPostgres(db)
		b.health = db.PingContext
	} else {
		log.Warn("DATABASE_URL is empty: using in-memory stores")
		b.customers = customerstore.NewInMemory()
		b.contacts = contactstore.NewInMemory()
		b.identifiers = identifierstore.NewInMemory()
		b.externals = externalstore.NewInMemory()
		b.runner = tx.NewMemory()
	}

	switch cfg.ReplayBackend {
	case config.ReplayBackendPostgres:
		b.ledger = replaystore.NewPostgres(db)
	case config.ReplayBackendRedis:
		rc, err := redisclient.New(ctx, cfg.Redis)
		if err != nil {
			b.close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rc.Close() })
		b.ledger = replaystore.NewRedis(rc.Client,
			replaystore.WithTTL(time.Duration(cfg.Retention.EventDays)*24*time.Hour))
		dbHealth := b.health
		b.health = func(ctx context.Context) error {
			if err := dbHealth(ctx); err != nil {
				return err
			}
			return rc.Health(ctx)
		}
	default:
		b.ledger = replaystore.NewInMemory()
	}
	return b, nil
}

// eventSink always logs events and also produces them to Kafka when brokers
// are configured.
func eventSink(ctx context.Context, cfg config.Server, log *slog.Logger, b *backends) (events.Sink, error) {
	sinks := []events.Sink{events.NewLogSink(log)}
	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if producer != nil {
		b.closers = append(b.closers, func() { producer.Close() })
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.Topic, 3); err != nil {
			log.Warn("could not ensure event topic", "topic", cfg.Kafka.Topic, "error", err)
		}
		sinks = append(sinks, events.NewKafkaSink(producer, cfg.Kafka.Topic))
		log.Info("customer events produced to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	return events.NewFanout(log, sinks...), nil
}

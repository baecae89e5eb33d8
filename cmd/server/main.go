// Command server runs the aircover ledger: airline admission, escrowed
// flight-delay insurance, and oracle-resolved flight status, behind one
// HTTP API. All ledger state is in-memory and serialized through a single
// store; restarts start from genesis.
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

	"log/slog"

	"golang.org/x/sync/errgroup"

	"aircover/internal/identity/device"
	identityhandler "aircover/internal/identity/handler"
	identityservice "aircover/internal/identity/service"
	identitystore "aircover/internal/identity/store"
	"aircover/internal/identity/token"
	insurancehandler "aircover/internal/insurance/handler"
	insurancemetrics "aircover/internal/insurance/metrics"
	insuranceservice "aircover/internal/insurance/service"
	"aircover/internal/oracle/dice"
	oraclehandler "aircover/internal/oracle/handler"
	oraclemetrics "aircover/internal/oracle/metrics"
	oracleservice "aircover/internal/oracle/service"
	"aircover/internal/platform/config"
	"aircover/internal/platform/httpserver"
	"aircover/internal/platform/logger"
	"aircover/internal/platform/metrics"
	platformredis "aircover/internal/platform/redis"
	ratelimitmetrics "aircover/internal/ratelimit/metrics"
	ratelimitmw "aircover/internal/ratelimit/middleware"
	ratelimitservice "aircover/internal/ratelimit/service"
	"aircover/internal/ratelimit/store/bucket"
	registryhandler "aircover/internal/registry/handler"
	registrymetrics "aircover/internal/registry/metrics"
	registryservice "aircover/internal/registry/service"
	"aircover/internal/storage"
	httptransport "aircover/internal/transport/http"
	"aircover/pkg/domain"
	"aircover/pkg/platform/ledgerevents/kafka"
	"aircover/pkg/platform/ledgerevents/publisher"
	eventmemory "aircover/pkg/platform/ledgerevents/store/memory"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(context.Background(), cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event pipeline. The in-memory store always records; Kafka delivery is
	// added when brokers are configured.
	publisherOpts := []publisher.Option{
		publisher.WithLogger(log),
		publisher.WithAsyncBuffer(1024),
	}
	if len(cfg.Kafka.Seeds) > 0 {
		sink, err := kafka.NewSink(ctx, cfg.Kafka.Seeds, cfg.Kafka.Topic, kafka.WithLogger(log))
		if err != nil {
			return fmt.Errorf("kafka event sink: %w", err)
		}
		publisherOpts = append(publisherOpts, publisher.WithSink(sink))
		log.Info("kafka event sink enabled", "topic", cfg.Kafka.Topic, "seeds", cfg.Kafka.Seeds)
	}
	events := publisher.NewPublisher(eventmemory.NewInMemoryStore(), publisherOpts...)
	defer events.Close()

	// Shared ledger and domain services.
	ledger := storage.NewLedger()

	registrySvc := registryservice.New(ledger, cfg.Ledger.VerificationFee,
		registryservice.WithLogger(log),
		registryservice.WithEventPublisher(events),
		registryservice.WithMetrics(registrymetrics.New()),
	)
	if cfg.Ledger.GenesisAirline == "" {
		log.Warn("no genesis airline configured; nothing can be proposed until one is set")
	} else {
		genesis, err := domain.ParseAddress(cfg.Ledger.GenesisAirline)
		if err != nil {
			return fmt.Errorf("genesis airline: %w", err)
		}
		if err := registrySvc.Bootstrap(ctx, genesis); err != nil {
			return fmt.Errorf("bootstrap genesis airline: %w", err)
		}
		log.Info("genesis airline admitted", "airline", genesis)
	}

	insuranceSvc := insuranceservice.New(ledger, cfg.Ledger.MaxInsurancePremium,
		insuranceservice.WithLogger(log),
		insuranceservice.WithEventPublisher(events),
		insuranceservice.WithMetrics(insurancemetrics.New()),
	)

	roller, err := dice.New(cfg.Ledger.DiceSeed)
	if err != nil {
		return err
	}
	oracleSvc := oracleservice.New(ledger, roller, cfg.Ledger.OracleRegistrationFee, insuranceSvc,
		oracleservice.WithLogger(log),
		oracleservice.WithEventPublisher(events),
		oracleservice.WithMetrics(oraclemetrics.New()),
	)

	// Identity edge: provisioning plus JWT issuance for participants.
	issuer := token.NewIssuer(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience, cfg.JWT.TTL)
	identitySvc := identityservice.New(
		identitystore.NewInMemory(),
		issuer,
		device.NewService(true),
		identityservice.WithLogger(log),
	)

	// Rate limiting. Redis buckets coordinate limits across instances; the
	// in-memory fallback keeps enforcement alive when Redis is down.
	rlMetrics := ratelimitmetrics.New()
	var buckets bucket.Store = bucket.NewInMemory()
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		buckets = bucket.NewFallback(
			bucket.NewRedis(redisClient.Client),
			bucket.NewInMemory(),
			log,
			bucket.WithMetrics(rlMetrics),
		)
		log.Info("redis rate limit buckets enabled")
	}
	limiter, err := ratelimitservice.New(buckets,
		ratelimitservice.WithLogger(log),
		ratelimitservice.WithMetrics(rlMetrics),
	)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	httpMetrics := metrics.New()
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:  log,
		Metrics: httpMetrics,
		RateLimit: ratelimitmw.New(limiter, log,
			ratelimitmw.WithDisabled(cfg.RateLimitDisabled),
			ratelimitmw.WithMetrics(httpMetrics),
		),
		Registry:  registryhandler.New(registrySvc, issuer, log),
		Insurance: insurancehandler.New(insuranceSvc, issuer, log),
		Oracle:    oraclehandler.New(oracleSvc, issuer, log),
		Identity:  identityhandler.New(identitySvc, cfg.AdminKey, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("aircover ledger listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	authhandler "postgate/internal/auth/handler"
	authservice "postgate/internal/auth/service"
	"postgate/internal/auth/store/revocation"
	"postgate/internal/auth/store/user"
	"postgate/internal/authz"
	authzmetrics "postgate/internal/authz/metrics"
	"postgate/internal/authz/pdp"
	httpapi "postgate/internal/http"
	jwttoken "postgate/internal/jwt_token"
	"postgate/internal/platform/config"
	"postgate/internal/platform/httpserver"
	"postgate/internal/platform/logger"
	"postgate/internal/platform/metrics"
	"postgate/internal/platform/postgres"
	platformredis "postgate/internal/platform/redis"
	posthandler "postgate/internal/posts/handler"
	postservice "postgate/internal/posts/service"
	poststore "postgate/internal/posts/store"
	ratelimitmetrics "postgate/internal/ratelimit/metrics"
	ratelimit "postgate/internal/ratelimit/middleware"
	"postgate/internal/ratelimit/store/bucket"
	"postgate/pkg/platform/audit"
	"postgate/pkg/platform/audit/publisher"
	"postgate/pkg/platform/audit/publishers/kafka"
	"postgate/pkg/platform/audit/publishers/logsink"
	auditpg "postgate/pkg/platform/audit/store/postgres"
)

const revocationPurgeInterval = 10 * time.Minute

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// run wires the stores, the PDP and the HTTP API, then serves until ctx is
// canceled.
func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	reg := prometheus.NewRegistry()
	appMetrics := metrics.New(reg)
	decisionMetrics := authzmetrics.New(reg)

	health := map[string]httpapi.HealthCheck{}

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		health["postgres"] = db.PingContext
		log.InfoContext(ctx, "using postgres stores")
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		health["redis"] = rc.Health
	}

	var buckets ratelimit.BucketStore = bucket.NewInMemoryBucketStore()
	if rc != nil {
		buckets = bucket.NewRedisBucketStore(rc.Client)
	}
	limiter := ratelimit.New(buckets, cfg.RateLimit.AuthRequests, cfg.RateLimit.AuthWindow,
		ratelimit.WithDisabled(cfg.RateLimit.Disabled),
		ratelimit.WithLogger(log),
		ratelimit.WithMetrics(ratelimitmetrics.New(reg)),
	)

	var (
		users      authservice.UserStore = user.New()
		posts      postservice.Store     = poststore.NewInMemoryStore()
		revocList  authservice.RevocationList
		purgeStore *revocation.PostgresTRL
	)
	if db != nil {
		users = user.NewPostgres(db)
		posts = poststore.NewPostgres(db)
	}
	switch {
	case rc != nil:
		revocList = revocation.NewRedisTRL(rc.Client)
	case db != nil:
		purgeStore = revocation.NewPostgresTRL(db)
		revocList = purgeStore
	default:
		revocList = revocation.NewInMemoryTRL()
	}

	sink, closeSink, err := auditSink(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	auditor := publisher.NewPublisher(sink,
		publisher.WithAsyncBuffer(cfg.Kafka.AuditBuffer),
		publisher.WithLogger(log),
	)

	checker, err := pdp.NewFromConfig(cfg.PDP, log, decisionMetrics)
	if err != nil {
		return err
	}
	gate := authz.NewGate(checker,
		authz.WithLogger(log),
		authz.WithMetrics(decisionMetrics),
		authz.WithAuditor(auditor),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	authSvc := authservice.New(users, jwtService, revocList,
		authservice.WithLogger(log),
		authservice.WithMetrics(appMetrics),
		authservice.WithAuditor(auditor),
		authservice.WithTokenTTL(cfg.Auth.TokenTTL),
		authservice.WithBcryptCost(cfg.Auth.BcryptCost),
	)
	postSvc := postservice.New(posts, gate,
		postservice.WithLogger(log),
		postservice.WithMetrics(appMetrics),
		postservice.WithAuditor(auditor),
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Auth:       authhandler.New(authSvc, log),
		Posts:      posthandler.New(postSvc, log),
		Validator:  jwttoken.NewJWTServiceAdapter(jwtService, authSvc),
		Revocation: authSvc,
		Audit:      auditor,
		RateLimit:  limiter,
		Gatherer:   prometheus.Gatherers{reg, prometheus.DefaultGatherer},
		Health:     health,
		Logger:     log,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting postgate",
			"addr", cfg.Server.Addr,
			"pdp_backend", cfg.PDP.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		err := srv.Shutdown(shutdownCtx)
		auditor.Close()
		closeSink(shutdownCtx)
		return err
	})
	if purgeStore != nil {
		g.Go(func() error {
			purgeRevocations(gctx, purgeStore, log)
			return nil
		})
	}
	return g.Wait()
}

// auditSink picks Kafka when brokers are configured, then the audit table,
// then the log.
func auditSink(ctx context.Context, cfg config.Config, db *sql.DB, log *slog.Logger) (audit.Sink, func(context.Context), error) {
	noop := func(context.Context) {}
	switch {
	case len(cfg.Kafka.Brokers) > 0:
		sink, err := kafka.New(ctx, kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.AuditTopic,
		}, log)
		if err != nil {
			return nil, noop, err
		}
		return sink, sink.Close, nil
	case db != nil:
		return auditpg.New(db), noop, nil
	default:
		return logsink.New(log), noop, nil
	}
}

func purgeRevocations(ctx context.Context, trl *revocation.PostgresTRL, log *slog.Logger) {
	ticker := time.NewTicker(revocationPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := trl.PurgeExpired(ctx)
			if err != nil {
				log.WarnContext(ctx, "failed to purge expired revocations", "error", err)
				continue
			}
			if n > 0 {
				log.InfoContext(ctx, "purged expired revocations", "count", n)
			}
		}
	}
}

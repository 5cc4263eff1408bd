// Command server wires the scoring core behind its HTTP surface: ontology,
// matcher, trust scorer, risk explainer, and audit trail, with optional
// postgres, redis, and kafka backends depending on configuration. Business
// logic lives in the internal packages.
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

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/twmb/franz-go/pkg/kgo"

	"veritrail/internal/audit"
	auditmetrics "veritrail/internal/audit/metrics"
	auditmemory "veritrail/internal/audit/store/memory"
	auditpostgres "veritrail/internal/audit/store/postgres"
	"veritrail/internal/audit/stream"
	"veritrail/internal/matcher"
	matchermetrics "veritrail/internal/matcher/metrics"
	"veritrail/internal/ontology"
	"veritrail/internal/platform/config"
	"veritrail/internal/platform/httpserver"
	"veritrail/internal/platform/logger"
	"veritrail/internal/platform/metrics"
	platformredis "veritrail/internal/platform/redis"
	"veritrail/internal/risk"
	httptransport "veritrail/internal/transport/http"
	"veritrail/internal/trust"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ont, err := ontology.LoadFile(cfg.OntologyPath)
	if err != nil {
		return err
	}
	log.Info("ontology loaded", "path", cfg.OntologyPath, "nodes", ont.Len())

	// Matcher, with the redis cache when configured.
	matcherOpts := []matcher.Option{
		matcher.WithLogger(log),
		matcher.WithMetrics(matchermetrics.New()),
		matcher.WithMinConfidence(cfg.MinConfidence),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		cache := matcher.NewRedisCache(redisClient.Client,
			matcher.WithRedisTTL(cfg.Redis.CacheTTL),
			matcher.WithRedisLogger(log),
		)
		matcherOpts = append(matcherOpts, matcher.WithCache(cache))
		log.Info("redis match cache enabled")
	}
	matchSvc, err := matcher.New(ont, matcherOpts...)
	if err != nil {
		return err
	}

	trustScorer := trust.New(trust.WithLogger(log))
	riskExplainer := risk.NewExplainer(risk.New(risk.WithLogger(log)))

	// Audit trail: postgres when configured, kafka stream when configured.
	var store audit.Store = auditmemory.New()
	if cfg.PostgresURL != "" {
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return err
		}
		store = auditpostgres.New(db)
		log.Info("postgres audit store enabled")
	}

	auditMetrics := auditmetrics.New()
	recorderOpts := []audit.RecorderOption{
		audit.WithLogger(log),
		audit.WithMetrics(auditMetrics),
	}
	if cfg.AuditSigningSecret != "" {
		signer, err := audit.NewSigner([]byte(cfg.AuditSigningSecret))
		if err != nil {
			return err
		}
		recorderOpts = append(recorderOpts, audit.WithSigner(signer))
	}
	if cfg.AttestationSecret != "" {
		attestor, err := audit.NewAttestor([]byte(cfg.AttestationSecret))
		if err != nil {
			return err
		}
		recorderOpts = append(recorderOpts, audit.WithAttestor(attestor))
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.KafkaBrokers...))
		if err != nil {
			return err
		}
		defer kafkaClient.Close()

		ensureCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err = stream.EnsureTopic(ensureCtx, kafkaClient, cfg.AuditTopic, 3)
		cancel()
		if err != nil {
			return err
		}

		publisher := stream.New(kafkaClient,
			stream.WithTopic(cfg.AuditTopic),
			stream.WithLogger(log),
			stream.WithMetrics(auditMetrics),
		)
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := publisher.Close(closeCtx); err != nil {
				log.Warn("audit stream close", "error", err)
			}
		}()
		recorderOpts = append(recorderOpts, audit.WithPublisher(publisher))
		log.Info("kafka audit stream enabled", "topic", cfg.AuditTopic)
	}

	recorder, err := audit.NewRecorder(store, recorderOpts...)
	if err != nil {
		return err
	}

	handler := httptransport.NewHandler(matchSvc, trustScorer, riskExplainer, recorder, log)
	router := httptransport.NewRouter(handler, metrics.New())
	srv := httpserver.New(cfg.Addr, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

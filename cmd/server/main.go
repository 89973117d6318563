// Command server runs the name registry API. Backends are optional: without
// Postgres, Redis, or Kafka configured it runs fully in-process, which is the
// development and test default.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"namegate/internal/events"
	"namegate/internal/jwtauth"
	"namegate/internal/platform/config"
	"namegate/internal/platform/httpserver"
	"namegate/internal/platform/kafka"
	"namegate/internal/platform/logger"
	platformpostgres "namegate/internal/platform/postgres"
	platformredis "namegate/internal/platform/redis"
	"namegate/internal/registry/bank"
	"namegate/internal/registry/guard"
	"namegate/internal/registry/handler"
	"namegate/internal/registry/service"
	"namegate/internal/registry/store"
	"namegate/internal/router"
	"namegate/pkg/domain"
)

const outboxCapacity = 256

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	treasury, err := domain.ParseAddress(cfg.Treasury)
	if err != nil {
		log.Error("invalid treasury identity", "error", err)
		return err
	}

	health := make(map[string]func(context.Context) error)

	// Ledgers: Postgres when configured, in-memory maps otherwise.
	var (
		names    store.NameStore    = store.NewMemoryNameStore()
		escrows  store.EscrowStore  = store.NewMemoryEscrowStore()
		receipts store.ReceiptStore = store.NewMemoryReceiptStore()
		eventLog events.Store       = events.NewMemoryStore()
	)
	pool, err := platformpostgres.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("postgres unavailable", "error", err)
		return err
	}
	if pool != nil {
		defer pool.Close()
		if err := store.EnsureSchema(ctx, pool); err != nil {
			log.Error("registry schema migration failed", "error", err)
			return err
		}
		names = store.NewPostgresNameStore(pool)
		escrows = store.NewPostgresEscrowStore(pool)
		receipts = store.NewPostgresReceiptStore(pool)
		health["postgres"] = pool.Ping

		db, err := sql.Open("postgres", cfg.PostgresURL)
		if err != nil {
			log.Error("opening event outbox connection", "error", err)
			return err
		}
		defer db.Close()
		outboxStore := events.NewPostgresStore(db)
		if err := outboxStore.EnsureSchema(ctx); err != nil {
			log.Error("events schema migration failed", "error", err)
			return err
		}
		eventLog = outboxStore
	}

	// Ordering guard: Redis when configured, process-local otherwise.
	var ordering guard.Guard = guard.NewMemory()
	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		ordering = guard.NewRedis(redisClient.Client)
		health["redis"] = redisClient.Health
	}

	// Event fan-out: only wired when brokers are configured.
	var (
		publisherOpts []events.Option
		producer      *kafka.Producer
		outbox        chan events.Event
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer, err = kafka.NewProducer(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			return err
		}
		defer producer.Close()
		outbox = make(chan events.Event, outboxCapacity)
		publisherOpts = append(publisherOpts, events.WithOutbox(outbox))
	}
	publisher := events.NewPublisher(eventLog, log, publisherOpts...)

	// The in-memory ledger stands in for the host settlement system. The
	// faucet funds identities at token mint so registrations can actually
	// pay their fee.
	ledger := bank.NewLedger()
	var faucet func(domain.Address)
	if cfg.FaucetWei != "" {
		amount, err := domain.ParseWei(cfg.FaucetWei)
		if err != nil {
			log.Error("invalid faucet amount", "error", err)
			return err
		}
		if amount.Sign() > 0 {
			faucet = func(addr domain.Address) { ledger.Mint(addr, amount) }
		}
	}

	svc := service.New(service.Config{
		Names:    names,
		Escrows:  escrows,
		Receipts: receipts,
		Guard:    ordering,
		Bank:     ledger,
		Events:   publisher,
		Logger:   log,
		Treasury: treasury,
	})

	auth := jwtauth.New([]byte(cfg.JWTSigningKey))
	mux := router.New(router.Deps{
		Logger:   log,
		Registry: handler.New(svc, log),
		Auth:     auth,
		Faucet:   faucet,
		Health:   health,
	})
	server := httpserver.New(cfg.Addr, mux)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if producer != nil {
		worker := events.NewWorker(producer, outbox, log)
		group.Go(func() error {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		return err
	}
	log.Info("server stopped")
	return nil
}

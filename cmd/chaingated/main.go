package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ChainGate/internal/api"
	"ChainGate/internal/audit"
	"ChainGate/internal/config"
	"ChainGate/internal/events"
	"ChainGate/internal/gate"
	"ChainGate/internal/observability/alerting"
	"ChainGate/pkg/logger"
)

// main is the entry point of the ChainGate daemon.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("chaingated failed: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(os.Getenv("CHAINGATE_CONFIG"))
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Outputs: cfg.Logging.Outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	// Gate settings come from the environment and are fatal when invalid;
	// a misconfigured guardrail must never start accepting transactions.
	gateCfg, err := gate.ResolveConfig(gate.SettingsFromEnv())
	if err != nil {
		return err
	}

	store, err := buildAuditStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	queue, err := buildEventQueue(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Printf("close event queue: %v", err)
		}
	}()

	dispatcher, err := buildDispatcher(cfg)
	if err != nil {
		return err
	}

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	go func() {
		err := queue.Consume(consumerCtx, cfg.Events.Workers, alerting.HandleDecision(dispatcher))
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event consumer exited: %v", err)
		}
	}()

	g := gate.New(gateCfg,
		gate.WithSink(audit.NewRecorder(store)),
		gate.WithSink(queue),
	)

	server := api.NewServer(cfg.Server.Address, g, store)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func buildAuditStore(cfg *config.Config) (audit.Store, error) {
	switch cfg.Audit.Driver {
	case "", "memory":
		return audit.NewMemoryStore(), nil
	case "mysql":
		return audit.NewMySQLStore(cfg.Audit.DSN)
	default:
		return nil, fmt.Errorf("unknown audit store driver: %s", cfg.Audit.Driver)
	}
}

func buildEventQueue(cfg *config.Config) (events.Queue, error) {
	switch cfg.Events.Driver {
	case "", "memory":
		return events.NewMemoryQueue(1024), nil
	case "redis":
		return events.NewRedisQueue(events.RedisQueueConfig{
			Address:   cfg.Events.Redis.Address,
			Password:  cfg.Events.Redis.Password,
			DB:        cfg.Events.Redis.DB,
			Queue:     cfg.Events.Redis.Queue,
			BlockWait: time.Duration(cfg.Events.Redis.BlockWait) * time.Second,
		})
	case "rabbitmq":
		return events.NewRabbitMQQueue(events.RabbitMQConfig{
			URL:        cfg.Events.RabbitMQ.URL,
			Queue:      cfg.Events.RabbitMQ.Queue,
			Prefetch:   cfg.Events.RabbitMQ.Prefetch,
			Durable:    cfg.Events.RabbitMQ.Durable,
			AutoDelete: cfg.Events.RabbitMQ.AutoDelete,
		})
	default:
		return nil, fmt.Errorf("unknown event queue driver: %s", cfg.Events.Driver)
	}
}

func buildDispatcher(cfg *config.Config) (*alerting.FanoutDispatcher, error) {
	if cfg.Alerting.ConfigPath == "" {
		return alerting.NewFanout(), nil
	}
	alertCfg, err := alerting.LoadConfig(cfg.Alerting.ConfigPath)
	if err != nil {
		return nil, err
	}
	return alerting.BuildDispatcher(alertCfg)
}

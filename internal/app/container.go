// Package app assembles the services shared by the API server and helpdeskctl.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/bulk"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/notify"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
)

// Container holds the wired services.
type Container struct {
	Config     config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Store      repository.Store
	Dispatcher events.Dispatcher

	Auth       *service.AuthService
	Tickets    *service.TicketService
	Assignment *service.AssignmentService
	Searches   *service.SavedSearchService
	Reports    *service.ReportService
	Tracking   *service.TrackingService
	Bulk       *bulk.Coordinator

	kafka *events.KafkaPublisher
}

// Build connects the configured backends and constructs every service. An
// empty Postgres DSN selects the in-memory store.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Metrics: observability.NewMetrics()}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	c.Postgres = pg
	if pool := pg.PoolHandle(); pool != nil {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		c.Store = repository.NewStore(pool)
	} else {
		logger.Warn("using in-memory store; data is lost on exit")
		c.Store = memory.NewStore()
	}

	var mailer notify.Mailer = notify.NewLogMailer(logger)
	if cfg.Notification.Backend == "redis" {
		if c.Redis, err = persistence.NewRedis(ctx, cfg.Redis, logger); err != nil {
			pg.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		mailer = notify.NewRedisOutbox(c.Redis.Client, cfg.Notification.OutboxKey)
	}
	notifier := notify.NewDispatcher(mailer, logger, c.Metrics, cfg.Notification.EmailFrom)

	c.Dispatcher = events.NewInMemoryDispatcher(logger)
	if cfg.Kafka.Enabled() {
		c.kafka = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka))
		c.kafka.Register(c.Dispatcher)
		logger.Info("publishing ticket events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	worker.StartActivityWorker(service.NewActivityService(c.Dispatcher, logger, c.Metrics))

	c.Auth = service.NewAuthService(cfg, c.Store.Users())
	c.Tickets = service.NewTicketService(service.TicketDependencies{
		Store:      c.Store,
		Notifier:   notifier,
		Dispatcher: c.Dispatcher,
		Config:     cfg.Helpdesk,
		Logger:     logger,
	})
	c.Assignment = service.NewAssignmentService(service.AssignmentDependencies{
		Store:      c.Store,
		Dispatcher: c.Dispatcher,
		Config:     cfg.Helpdesk,
		Logger:     logger,
	})
	c.Searches = service.NewSavedSearchService(c.Store, cfg.Helpdesk)
	c.Reports = service.NewReportService(c.Store, c.Searches, cfg.Helpdesk, nil)
	c.Tracking = service.NewTrackingService(c.Store, cfg.Helpdesk, nil)
	c.Bulk = bulk.NewCoordinator(bulk.Dependencies{
		Store:    c.Store,
		Notifier: notifier,
		Events:   c.Dispatcher,
		Config:   cfg.Helpdesk,
		Logger:   logger,
		Metrics:  c.Metrics,
	})
	return c, nil
}

// AuthMiddleware returns the bearer-token middleware for the API.
func (c *Container) AuthMiddleware() *auth.AuthMiddleware {
	return auth.NewAuthMiddleware(c.Auth.TokenManager(), c.Store.Users())
}

// Close releases connections.
func (c *Container) Close() {
	if c.kafka != nil {
		if err := c.kafka.Close(); err != nil {
			c.Logger.Warn("close kafka publisher", zap.Error(err))
		}
	}
	c.Redis.Close()
	c.Postgres.Close()
}

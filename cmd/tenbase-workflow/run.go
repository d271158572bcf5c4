package main

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tenbase/tenbase/pkg/actions"
	"github.com/tenbase/tenbase/pkg/cmd"
	"github.com/tenbase/tenbase/pkg/config"
	"github.com/tenbase/tenbase/pkg/formula"
	"github.com/tenbase/tenbase/pkg/lifecycle"
	"github.com/tenbase/tenbase/pkg/log"
	"github.com/tenbase/tenbase/pkg/models"
	"github.com/tenbase/tenbase/pkg/otelhelper"
	"github.com/tenbase/tenbase/pkg/persistence/postgresql"
	"github.com/tenbase/tenbase/pkg/workflow"
)

const serviceName = "tenbase-workflow"

func run(ctx context.Context, cfg config.Config) error {
	logger := log.WithModule("workflow")

	logger.InfoContext(ctx, "Initializing workflow service")

	tracer, err := otelhelper.NewTracer(ctx, serviceName)
	if err != nil {
		logger.WarnContext(ctx, "Tracing disabled, failed to initialize tracer", "error", err)

		tracer = nil
	}

	persist, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	defer func() {
		err := persist.Close(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	platform := postgresql.NewPlatformRepository(persist.DB(), logger)

	eventBus, err := cmd.NewEventBus(cfg.EventBus.Provider, joinBrokers(cfg.EventBus.Brokers), logger)
	if err != nil {
		return err
	}

	defer func() {
		if err := eventBus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	evaluator := formula.NewExprEvaluator()
	engine := workflow.NewEngine(logger, persist, evaluator, platform)

	registry := actions.NewRegistry(actions.Deps{
		Logger:        logger,
		Formula:       evaluator,
		Collections:   platform,
		Records:       platform,
		Scripts:       platform,
		Templates:     platform,
		Publisher:     eventBus,
		Rules:         persist,
		EmailLogs:     persist,
		ScriptLogs:    persist,
		Notifications: persist,
		Engine:        engine,
		HTTPClient:    &http.Client{Timeout: cfg.HTTP.Timeout},
	})
	engine.SetHandlerRegistry(registry)
	engine.SetLifecycleRegistry(lifecycle.NewRegistry(logger, []lifecycle.Handler{
		lifecycle.NewUsersHandler(logger),
		lifecycle.NewProfilesHandler(logger),
	}))

	if cfg.Scheduler.Enabled {
		scheduler := workflow.NewScheduler(logger, persist, engine, cfg.Scheduler.PollInterval)
		go scheduler.Start(ctx)
	}

	err = eventBus.SubscribeRecordChanges(ctx, func(ctx context.Context, event *models.RecordChangeEvent) error {
		if tracer != nil {
			var span trace.Span

			ctx, span = otelhelper.StartSpan(ctx, tracer, "workflow.evaluate",
				attribute.String(otelhelper.TenantIDKey, event.TenantID),
				attribute.String(otelhelper.CollectionNameKey, event.CollectionName),
				attribute.String(otelhelper.RecordIDKey, event.RecordID),
				attribute.String(otelhelper.EventIDKey, event.EventID),
				attribute.String(otelhelper.ServiceIDKey, serviceName),
			)
			defer span.End()

			err := engine.Evaluate(ctx, event)
			if err != nil {
				otelhelper.SetError(span, err)
			}

			return err
		}

		return engine.Evaluate(ctx, event)
	})
	if err != nil {
		return err
	}

	server, err := NewServer(logger, engine, registry, persist)
	if err != nil {
		return err
	}

	return server.Start(cfg.Port)
}

func joinBrokers(brokers []string) string {
	return strings.Join(brokers, ",")
}

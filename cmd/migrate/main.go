// Command migrate runs the one-shot EAV to relational migration pipeline.
// It exits 0 on a clean run and 1 on a fatal stage error.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/CihanTAYLAN/db-migration-tool/config"
	categoryrepo "github.com/CihanTAYLAN/db-migration-tool/internal/repositories/category"
	contentrepo "github.com/CihanTAYLAN/db-migration-tool/internal/repositories/content"
	customerrepo "github.com/CihanTAYLAN/db-migration-tool/internal/repositories/customer"
	lookuprepo "github.com/CihanTAYLAN/db-migration-tool/internal/repositories/lookup"
	orderrepo "github.com/CihanTAYLAN/db-migration-tool/internal/repositories/order"
	productrepo "github.com/CihanTAYLAN/db-migration-tool/internal/repositories/product"
	"github.com/CihanTAYLAN/db-migration-tool/internal/source"
	"github.com/CihanTAYLAN/db-migration-tool/internal/steps"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/batch"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/countries"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/database"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/events"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/health"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/migration"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/refdata"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/tracing/exporters"
	"github.com/CihanTAYLAN/db-migration-tool/pkg/translator"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return err
	}

	logger, flush := newLogger(cfg)
	defer flush()

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(&exporters.ConsoleExporter{}))
	defer func() {
		_ = tp.Shutdown(context.Background())
	}()
	otel.SetTracerProvider(tp)
	tracing.SetTracer(otel.Tracer(cfg.AppName))

	sourceDB, err := database.Connect(ctx, cfg.SourceDBType, cfg.SourceDatabaseURL, database.ConnectOptions{
		ConnMaxLifetime: time.Duration(cfg.SourceConnMaxLifetimeMS) * time.Millisecond,
	}, logger)
	if err != nil {
		return err
	}
	defer sourceDB.Close()

	targetDB, err := database.Connect(ctx, cfg.TargetDBType, cfg.TargetDatabaseURL, database.ConnectOptions{
		MaxOpenConns: cfg.TargetMaxOpenConns,
		MaxIdleConns: cfg.TargetMaxIdleConns,
	}, logger)
	if err != nil {
		return err
	}
	defer targetDB.Close()

	if cfg.RunSchemaMigrations {
		ms := database.NewMigrationService(logger, &database.MigrationConfig{
			MigrationFolderPath: cfg.MigrationFolderPath,
			Version:             uint(cfg.MigrationVersion),
			Force:               cfg.MigrationForce,
			AutoRollback:        cfg.MigrationAutoRollback,
		})
		if err := ms.MigrateTarget("postgres", targetDB); err != nil {
			logger.WithError(err).Error("Target schema migration failed")
			return err
		}
	}

	var emitter *events.Emitter
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(events.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaEventsTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
		defer producer.Close()
		emitter = events.NewEmitter(producer, uuid.NewString(), logger)
	}

	checker := health.NewChecker(sourceDB, targetDB, version)
	if cfg.HTTPPort > 0 {
		e := echo.New()
		e.HideBanner = true
		e.HidePort = true
		e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
		e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
		checker.RegisterRoutes(e)

		go func() {
			if err := e.Start(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Warn("Operational HTTP server stopped")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = e.Shutdown(shutdownCtx)
		}()
	}

	deps := buildDeps(cfg, logger, sourceDB, targetDB)
	runner := migration.NewRunner(steps.Build(deps), cfg.StepEnabled, emitter, logger)

	checker.SetReady(true)

	state := migration.NewContext()
	if _, err := runner.Run(ctx, state); err != nil {
		logger.WithError(err).Error("Migration failed")
		return err
	}

	logger.Info("Migration finished")
	return nil
}

func buildDeps(cfg *config.Config, logger ectologger.Logger, sourceDB, targetDB database.DB) *steps.Deps {
	countryResolver := countries.Load(cfg.CountriesFilePath, logger)
	refs := refdata.NewResolver(targetDB, logger)

	var tr translator.Translator
	if cfg.TranslatorKey != "" {
		tr = translator.NewAzureTranslator(translator.AzureConfig{
			Endpoint: cfg.TranslatorEndpoint,
			Key:      cfg.TranslatorKey,
			Region:   cfg.TranslatorRegion,
		}, logger)
	}

	return &steps.Deps{
		Config: cfg,
		Logger: logger,

		SourceDB: sourceDB,
		TargetDB: targetDB,

		Attributes: source.NewAttributeReader(sourceDB, logger),
		Catalog:    source.NewCatalogReader(sourceDB, logger),
		Sales:      source.NewSalesReader(sourceDB, logger),
		Customers:  source.NewCustomerReader(sourceDB, logger),
		Content:    source.NewContentReader(sourceDB, logger),

		Categories: categoryrepo.NewRepository(targetDB, logger),
		Products:   productrepo.NewRepository(targetDB, logger),
		Orders:     orderrepo.NewRepository(targetDB, logger),
		Users:      customerrepo.NewRepository(targetDB, logger),
		Contents:   contentrepo.NewRepository(targetDB, logger),
		Lookup:     lookuprepo.NewRepository(targetDB, logger),

		Refs:      refs,
		Countries: countryResolver,

		Processor:  batch.NewProcessor(logger),
		Translator: tr,
	}
}

// newLogger builds the ectologger over a zap JSON sink. The sink forwards
// the structured message as-is; level filtering happens in zap.
func newLogger(cfg *config.Config) (ectologger.Logger, func()) {
	var zl *zap.Logger
	if cfg.PrettyLogs {
		zl, _ = zap.NewDevelopment()
	} else {
		zl, _ = zap.NewProduction()
	}

	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		zl.Info("", zap.Any("entry", msg))
	})

	return logger, func() {
		_ = zl.Sync()
	}
}

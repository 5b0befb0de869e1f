package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/Ramsey-B/clover/config"
	accountrepo "github.com/Ramsey-B/clover/internal/repositories/account"
	contactrepo "github.com/Ramsey-B/clover/internal/repositories/contact"
	estimaterepo "github.com/Ramsey-B/clover/internal/repositories/estimate"
	importrunrepo "github.com/Ramsey-B/clover/internal/repositories/importrun"
	jobsiterepo "github.com/Ramsey-B/clover/internal/repositories/jobsite"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/imports"
	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/logging"
	"github.com/Ramsey-B/clover/pkg/middleware"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/routes/accounts"
	"github.com/Ramsey-B/clover/pkg/routes/contacts"
	"github.com/Ramsey-B/clover/pkg/routes/estimates"
	"github.com/Ramsey-B/clover/pkg/routes/health"
	importroutes "github.com/Ramsey-B/clover/pkg/routes/imports"
	"github.com/Ramsey-B/clover/pkg/routes/jobsites"
	"github.com/Ramsey-B/clover/pkg/sheets"
	"github.com/Ramsey-B/clover/pkg/startup"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, flush := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	defer func() { _ = flush() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		db              database.DB
		redisClient     *redis.Client
		producer        *kafka.Producer
		shutdownTracing func(context.Context) error
	)

	boot := startup.New(logger, cfg.StartupMaxAttempts)

	boot.AddDependency(startup.Func{
		Name: "postgres",
		StartFunc: func(ctx context.Context) error {
			var err error
			db, err = database.Connect(ctx, database.Config{
				Driver:          cfg.DatabaseDriver,
				Host:            cfg.DatabaseHost,
				Port:            cfg.DatabasePort,
				UserName:        cfg.DatabaseUserName,
				Password:        cfg.DatabasePassword,
				Name:            cfg.DatabaseName,
				SSLMode:         cfg.DatabaseSSLMode,
				MaxOpenConns:    cfg.DatabaseMaxOpenConns,
				MaxIdleConns:    cfg.DatabaseMaxIdleConns,
				ConnMaxLifetime: cfg.DatabaseConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			return database.Migrate(db, cfg.DatabaseName, database.MigrationConfig{
				FolderPath: cfg.DatabaseMigrationFolderPath,
				Version:    cfg.DatabaseMigrationVersion,
				Force:      cfg.DatabaseMigrationForce,
			}, logger)
		},
		StopFunc: func(ctx context.Context) error {
			return db.Close()
		},
	})

	boot.AddDependency(startup.Func{
		Name: "redis",
		StartFunc: func(ctx context.Context) error {
			var err error
			redisClient, err = redis.NewClient(redis.Config{
				Host:     cfg.RedisHost,
				Port:     cfg.RedisPort,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			}, logger)
			return err
		},
		StopFunc: func(ctx context.Context) error {
			return redisClient.Close()
		},
	})

	if cfg.KafkaEnabled {
		boot.AddDependency(startup.Func{
			Name: "kafka",
			StartFunc: func(ctx context.Context) error {
				producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:      cfg.KafkaBrokers,
					Topic:        cfg.KafkaOutputTopic,
					BatchSize:    cfg.KafkaBatchSize,
					BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
					RequiredAcks: cfg.KafkaRequiredAcks,
					Compression:  cfg.KafkaCompression,
				}, logger)
				return nil
			},
			StopFunc: func(ctx context.Context) error {
				return producer.Close()
			},
		})
	}

	boot.AddDependency(startup.Func{
		Name: "tracing",
		StartFunc: func(ctx context.Context) error {
			var err error
			shutdownTracing, err = tracing.Init(ctx, tracing.Config{
				ServiceName: cfg.AppName,
				Exporter:    cfg.TracingExporter,
				Endpoint:    cfg.TracingEndpoint,
				Insecure:    cfg.TracingInsecure,
			})
			return err
		},
		StopFunc: func(ctx context.Context) error {
			return shutdownTracing(ctx)
		},
	})

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("startup failed")
		os.Exit(1)
	}

	layouts, err := sheets.LoadLayouts(cfg.SheetLayoutsPath)
	if err != nil {
		logger.WithError(err).Error("failed to load sheet layouts")
		os.Exit(1)
	}

	accountRepo := accountrepo.NewRepository(db, logger)
	contactRepo := contactrepo.NewRepository(db, logger)
	estimateRepo := estimaterepo.NewRepository(db, logger)
	jobsiteRepo := jobsiterepo.NewRepository(db, logger)
	runRepo := importrunrepo.NewRepository(db, logger)

	emitter := events.NewEmitter(producer, logger)
	locker := imports.RedisLocker{Locker: redis.NewLocker(redisClient, "clover")}

	importService := imports.NewService(
		imports.Config{
			ChunkSize:  cfg.ImportChunkSize,
			LockTTL:    cfg.ImportLockTTL,
			SessionTTL: cfg.ImportSessionTTL,
		},
		layouts,
		accountRepo,
		contactRepo,
		estimateRepo,
		jobsiteRepo,
		runRepo,
		locker,
		emitter,
		logger,
	)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	checker := health.NewChecker(db, redisClient, version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	importroutes.NewHandler(importService, logger).Register(api.Group("/imports"))
	accounts.NewHandler(accountRepo, logger).Register(api.Group("/accounts"))
	contacts.NewHandler(contactRepo, logger).Register(api.Group("/contacts"))
	estimates.NewHandler(estimateRepo, logger).Register(api.Group("/estimates"))
	jobsites.NewHandler(jobsiteRepo, logger).Register(api.Group("/jobsites"))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:       time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		checker.SetReady(true)
		logger.WithField("port", cfg.Port).Infof("%s listening on port %d", cfg.AppName, cfg.Port)
		if err := e.StartServer(server); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server stopped")
			cancel()
		}
	}()

	<-ctx.Done()
	checker.SetReady(false)
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http server shutdown failed")
	}
	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("dependency shutdown failed")
	}
}

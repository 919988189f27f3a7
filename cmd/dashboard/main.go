package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"go.uber.org/zap"

	"github.com/rahmatrdn/go-sql-dashboard/config"
	"github.com/rahmatrdn/go-sql-dashboard/internal/helper"
	"github.com/rahmatrdn/go-sql-dashboard/internal/http/handler"
	"github.com/rahmatrdn/go-sql-dashboard/internal/http/middleware"
	"github.com/rahmatrdn/go-sql-dashboard/internal/metric"
	"github.com/rahmatrdn/go-sql-dashboard/internal/publisher"
	"github.com/rahmatrdn/go-sql-dashboard/internal/repository/lakehouse"
	"github.com/rahmatrdn/go-sql-dashboard/internal/scheduler"
	"github.com/rahmatrdn/go-sql-dashboard/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := helper.NewLogger(cfg.App.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("dashboard stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	loc, err := cfg.App.Location()
	if err != nil {
		return err
	}

	if len(cfg.Lakehouse.Workspaces) == 0 {
		log.Warn("no workspaces configured", zap.String("remediation", lakehouse.Remediation))
	}

	chClient := lakehouse.NewClient(cfg.Lakehouse.Workspaces, cfg.Lakehouse.CacheTTL,
		lakehouse.WithLogger(log.Named("lakehouse")))
	defer chClient.Close()

	queries, err := metric.NewQueries(cfg.Lakehouse.Table)
	if err != nil {
		return err
	}

	opts := usecase.DashboardOptions{
		Location:          loc,
		CacheTTL:          cfg.Lakehouse.CacheTTL,
		SlowThresholdMs:   cfg.Dashboard.SlowThresholdMs,
		DaysOfStat:        cfg.Dashboard.DaysOfStat,
		RowLimit:          cfg.Dashboard.RowLimit,
		Bins:              100,
		ExclusionsEnabled: cfg.Dashboard.ExclusionsEnabled,
		ErrorPatterns:     cfg.Dashboard.ErrorPatterns,
	}
	dashboardUsecase := usecase.NewDashboardUsecase(chClient, queries, opts, log.Named("dashboard"))

	validator, err := helper.NewValidator()
	if err != nil {
		return err
	}

	engine := html.New(cfg.App.ViewsDir, ".html")
	engine.AddFuncMap(handler.TemplateFuncs())

	app := fiber.New(fiber.Config{
		Views:        engine,
		ReadTimeout:  cfg.Lakehouse.QueryTimeout,
		WriteTimeout: cfg.Lakehouse.QueryTimeout,
	})
	app.Use(middleware.RequestLogger(log.Named("http")))
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), cfg.Lakehouse.QueryTimeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	if cfg.Auth.JWTSecret != "" {
		v, err := middleware.NewHS256Validator(cfg.Auth.JWTSecret)
		if err != nil {
			return err
		}
		app.Use(middleware.JWT(v))
	}

	handler.NewDashboardHandler(dashboardUsecase, validator, log.Named("handler")).Register(app)

	var summaryJob *scheduler.SummaryJob
	if cfg.Summary.Cron != "" {
		pubs := publisher.Multi{publisher.NewLogPublisher(log.Named("summary"))}
		if cfg.Summary.AMQPURL != "" {
			amqpPub, err := publisher.DialAMQP(cfg.Summary.AMQPURL, cfg.Summary.Exchange)
			if err != nil {
				return err
			}
			pubs = append(pubs, amqpPub)
		}
		defer pubs.Close()

		summaryUsecase := usecase.NewSummaryUsecase(chClient, queries, opts, log.Named("summary"))
		summaryJob = scheduler.NewSummaryJob(summaryUsecase, pubs, cfg.Lakehouse.QueryTimeout, log.Named("scheduler"))
		if err := summaryJob.Start(cfg.Summary.Cron, loc); err != nil {
			return err
		}
		defer summaryJob.Shutdown()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("dashboard listening", zap.String("port", cfg.App.Port), zap.Strings("workspaces", chClient.Workspaces()))
		errCh <- app.Listen(":" + cfg.App.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	return app.ShutdownWithTimeout(10 * time.Second)
}

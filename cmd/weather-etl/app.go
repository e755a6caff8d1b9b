package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/i474232898/weather-etl/internal/api/http"
	"github.com/i474232898/weather-etl/internal/config"
	"github.com/i474232898/weather-etl/internal/pipeline"
	"github.com/i474232898/weather-etl/internal/scheduler"
	"github.com/i474232898/weather-etl/internal/staging"
	"github.com/i474232898/weather-etl/internal/storage"
	"github.com/i474232898/weather-etl/internal/store"
	"github.com/i474232898/weather-etl/internal/weather/providers"
)

type app struct {
	cfg    *config.AppConfig
	runner *pipeline.Runner
}

// buildApp loads configuration and wires the pipeline stages, the run store
// and the runner.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Shared HTTP client for outbound weather calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	source := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		BaseURL: cfg.APIBaseURL,
		Path:    cfg.APIPath,
		APIKey:  cfg.WeatherAPIKey,
		City:    cfg.City,
	})

	s3Client, err := storage.NewS3Client(cfg.AWSRegion, cfg.S3Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	loader := storage.NewS3Loader(s3Client, cfg.BucketName, cfg.KeyPrefix, cfg.Replace)

	p := pipeline.New(source, staging.NewWriter(cfg.DataDir, cfg.City), loader, pipeline.ReadinessConfig{
		Interval: cfg.PollInterval,
		Timeout:  cfg.ReadinessTimeout,
	})

	// In-memory run history with configured retention.
	memStore := store.NewMemoryStore(cfg.RunsMaxHistory, cfg.RunsMaxAge)

	runner := pipeline.NewRunner(p, memStore, pipeline.RetryPolicy{
		Retries: cfg.RunRetries,
		Delay:   cfg.RunRetryDelay,
	}, cfg.RunTimeout, cfg.City)

	return &app{cfg: cfg, runner: runner}, nil
}

// serve runs the hourly scheduler and the status API until interrupted.
func serve(parent context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	sched := scheduler.New(a.cfg.ScheduleCron, a.runner)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	server := fiber.New(fiber.Config{
		AppName:               "weather-etl",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	server.Use(logger.New())
	server.Use(recover.New())

	server.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-etl",
		})
	})
	server.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpapi.RegisterRoutes(server, a.runner)

	go func() {
		if err := server.Listen(":" + a.cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(contextOrBackground(parent), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Println("INFO: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}

	// Let manually triggered runs finish recording their outcome.
	a.runner.Wait()
	return nil
}

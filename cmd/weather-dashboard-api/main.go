package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	httpapi "github.com/i474232898/weather-dashboard-api/internal/api/http"
	"github.com/i474232898/weather-dashboard-api/internal/config"
	"github.com/i474232898/weather-dashboard-api/internal/scheduler"
	"github.com/i474232898/weather-dashboard-api/internal/store"
	"github.com/i474232898/weather-dashboard-api/internal/weather"
	"github.com/i474232898/weather-dashboard-api/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := cfg.NewLogger()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	client := providers.NewOpenWeatherClient(cfg.OpenWeatherBaseURL, providers.HTTPClientConfig{
		Client:        httpClient,
		RatePerMinute: cfg.UpstreamRatePerMinute,
	}, log)

	// Caches live for the lifetime of the process and start empty.
	currents := store.NewMemoryStore[weather.CurrentWeather]()
	forecasts := store.NewMemoryStore[weather.Forecast]()

	opts := []weather.Option{
		weather.WithLogger(log),
		weather.WithNegativeCaching(cfg.NegativeCacheTTL),
	}
	if cfg.CoalesceFetches {
		opts = append(opts, weather.WithCoalescing())
	}
	service := weather.NewService(client, cfg.OpenWeatherAPIKey, currents, forecasts, opts...)

	sched := scheduler.New(scheduler.Config{
		PurgeInterval: cfg.CachePurgeInterval,
		WarmInterval:  cfg.WarmInterval,
		WarmCities:    cfg.WarmCities,
	}, service, log, currents, forecasts)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "weather-dashboard-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(func(c *fiber.Ctx) error {
		// Bound upstream work per request.
		ctx, cancel := context.WithTimeout(c.UserContext(), cfg.HTTPTimeout+2*time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	httpapi.RegisterRoutes(app, service, log)

	go func() {
		log.WithField("port", cfg.Port).Info("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}

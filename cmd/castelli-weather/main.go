package main

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/kelvins/geocoder"

	"github.com/castellimtb/castelli-weather/internal/alerts"
	httpapi "github.com/castellimtb/castelli-weather/internal/api/http"
	"github.com/castellimtb/castelli-weather/internal/config"
	"github.com/castellimtb/castelli-weather/internal/offline"
	"github.com/castellimtb/castelli-weather/internal/reports"
	"github.com/castellimtb/castelli-weather/internal/scheduler"
	"github.com/castellimtb/castelli-weather/internal/strava"
	"github.com/castellimtb/castelli-weather/internal/visits"
	"github.com/castellimtb/castelli-weather/internal/weather"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Locations: the fixed Castelli Romani set plus geocoded extras.
	locations := weather.DefaultLocations()
	if len(cfg.ExtraLocationNames) > 0 {
		geocoder.ApiKey = cfg.GeocoderAPIKey
		for _, name := range cfg.ExtraLocationNames {
			loc, err := weather.ResolveExtra(name, "", cfg.GeocoderCountry)
			if err != nil {
				log.Printf("skipping extra location %q: %v", name, err)
				continue
			}
			locations = append(locations, loc)
		}
	}

	upstreamURL, err := url.Parse(cfg.UpstreamBaseURL)
	if err != nil {
		log.Fatalf("invalid upstream base URL: %v", err)
	}
	origin := &url.URL{Scheme: upstreamURL.Scheme, Host: upstreamURL.Host}

	// The offline interceptor guards the forecast origin: the shell asset
	// list is every location's forecast URL, so a fresh install warms the
	// cache before any live traffic.
	shell := make([]string, 0, len(locations))
	for _, loc := range locations {
		shell = append(shell, weather.ForecastURL(cfg.UpstreamBaseURL, loc))
	}

	registry := offline.NewMemoryRegistry()
	interceptor, err := offline.New(http.DefaultTransport, registry, offline.Config{
		Origin:  origin,
		Prefix:  cfg.CachePrefix,
		Version: cfg.CacheVersion,
		Shell:   shell,
	})
	if err != nil {
		log.Fatalf("failed to build offline interceptor: %v", err)
	}

	installCtx, cancelInstall := context.WithTimeout(context.Background(), 30*time.Second)
	if err := interceptor.Install(installCtx); err != nil {
		// A failed install leaves the interceptor out of the request path;
		// the service keeps running online-only.
		log.Printf("offline cache install failed, continuing without fallback: %v", err)
	} else if err := interceptor.Activate(installCtx); err != nil {
		log.Printf("offline cache activation failed: %v", err)
	} else {
		log.Printf("INFO: offline cache %s active with %d shell assets", interceptor.CacheName(), len(shell))
	}
	cancelInstall()

	// Shared HTTP client for all outbound calls; the interceptor sits in its
	// transport chain.
	sharedClient := &http.Client{
		Transport: interceptor,
		Timeout:   cfg.HTTPTimeout,
	}

	weatherClient := weather.NewClient(sharedClient, cfg.UpstreamBaseURL)
	stravaClient := strava.NewClient(sharedClient, cfg.StravaBaseURL, cfg.StravaToken, cfg.StravaClubID)

	// Scheduler keeps the offline cache warm.
	sched := scheduler.New(locations, cfg.FetchInterval, weatherClient)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "castelli-weather",
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
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "castelli-weather",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Weather:   weatherClient,
		Locations: locations,
		Alerts:    alerts.NewService(),
		Reports:   reports.NewStore(),
		Visits:    visits.NewCounter(cfg.VisitCounterPath),
		Strava:    stravaClient,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

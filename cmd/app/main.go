package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/mauv0809/valuedash/internal/auth"
	"github.com/mauv0809/valuedash/internal/config"
	"github.com/mauv0809/valuedash/internal/db"
	"github.com/mauv0809/valuedash/internal/handlers"
	"github.com/mauv0809/valuedash/internal/ingest"
	"github.com/mauv0809/valuedash/internal/rates"
	"github.com/mauv0809/valuedash/internal/tracker"
	"github.com/mauv0809/valuedash/internal/valuation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Run migrations
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Could not run migrations: %v", err)
	}
	log.Println("Migrations completed")

	// Connect to database
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to database")

	repo := db.NewRepository(pool)
	engine := valuation.NewEngine(append(cfg.EngineOptions(), valuation.WithLogger(log.Default()))...)

	// Sharadar serves statements, prices and ticker lookups when a key is
	// set; otherwise prices come from Yahoo and statements are posted by hand.
	var (
		trackerOpts []tracker.Option
		handlerOpts []handlers.Option
		overviews   handlers.OverviewSource
	)
	if cfg.NasdaqAPIKey != "" {
		ingestClient := ingest.NewClient(cfg.NasdaqAPIKey)
		trackerOpts = append(trackerOpts, tracker.WithFundamentals(ingestClient), tracker.WithPrices(ingestClient))
		overviews = ingestClient
		handlerOpts = append(handlerOpts, handlers.WithOverviews(ingestClient))
		log.Println("Ingest client initialized")
	} else {
		trackerOpts = append(trackerOpts, tracker.WithPrices(ingest.NewYahooPrices()))
		log.Println("Warning: NASDAQ_API_KEY not set, using Yahoo prices and manual statements")
	}
	svc := tracker.NewService(repo, engine, trackerOpts...)

	rateService := rates.NewService(repo, rates.NewClient(cfg.RatesBaseURL))

	// Setup Echo
	e := echo.New()
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				log.Printf("%d %s", v.Status, v.URI)
			} else {
				log.Printf("%d %s - %v", v.Status, v.URI, v.Error)
			}
			return nil
		},
	}))
	e.Use(middleware.Recover())

	if cfg.AuthEnabled() {
		sessions := auth.NewSessions(cfg.SessionTTL)
		e.Use(auth.Middleware(sessions))
		handlerOpts = append(handlerOpts, handlers.WithAuth(sessions, auth.Credentials{
			Username: cfg.RootUsername,
			Password: cfg.RootPassword,
		}))
		log.Println("Login required")
	} else {
		log.Println("Warning: ROOT_PASSWORD not set, dashboard is open")
	}

	// Static files
	e.Static("/assets", "assets")

	// Routes
	handlers.New(repo, svc, rateService, cfg.DefaultAssumptions, handlerOpts...).Register(e)
	handlers.NewIngestHandler(svc, repo, overviews).Register(e)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

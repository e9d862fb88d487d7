package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"homeradar/server/config"
	"homeradar/server/internal/api"
	"homeradar/server/internal/database"
	"homeradar/server/internal/geocoding"
	"homeradar/server/internal/geometry"
	"homeradar/server/internal/processor"
	"homeradar/server/internal/queue"
	"homeradar/server/internal/routing"
	"homeradar/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Infof("Using database at: %s", cfg.Server.DBPath)
	db, err := database.NewDatabase(cfg.Server.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	// The ingestion pipeline writes through gorm; everything else uses the
	// raw handle.
	gormDB, err := database.NewGormDB(cfg.Server.DBPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open gorm database handle")
	}

	geocoder := geocoding.NewGeocoder(cfg, logger)
	router := routing.NewClient(cfg, logger)
	corridorBuilder := geometry.NewCorridorBuilder(geocoder, router, db, cfg, logger)
	enricher := geocoding.NewEnricher(db, geocoder, cfg, logger)

	listingQueue := queue.NewListingQueue(cfg.BatchProcessing.MaxBatchSize*cfg.BatchProcessing.ProcessorCount, logger)
	batchProcessor := processor.NewBatchProcessor(gormDB, listingQueue, cfg, logger)
	listingQueue.Start()
	batchProcessor.Start()
	defer func() {
		batchProcessor.Stop()
		listingQueue.Close()
	}()

	if cfg.Enrichment.Enabled {
		enrichScheduler := scheduler.NewScheduler(enricher, cfg, logger)
		enrichScheduler.Start()
		defer enrichScheduler.Stop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	}))

	handler := api.NewHandler(db, corridorBuilder, enricher, listingQueue, logger)
	api.SetupRoutes(engine, handler)

	go func() {
		logger.Infof("Starting server on port %d", cfg.Server.Port)
		if err := engine.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")
}

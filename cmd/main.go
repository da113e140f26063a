package main

import (
	"context"

	"github.com/lshigami/Assessa/config"
	"github.com/lshigami/Assessa/database"
	_ "github.com/lshigami/Assessa/docs" // Swagger docs
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/cache"
	"github.com/lshigami/Assessa/internal/controller"
	"github.com/lshigami/Assessa/internal/controller/candidate"
	"github.com/lshigami/Assessa/internal/controller/hr"
	"github.com/lshigami/Assessa/internal/logger"
	"github.com/lshigami/Assessa/internal/repository"
	"github.com/lshigami/Assessa/internal/server"
	"github.com/lshigami/Assessa/internal/service"
	"github.com/rs/zerolog/log"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

//go:generate swag init -g cmd/main.go -o docs --parseInternal

// @title Assessa API
// @version 1.0
// @description AI-assisted assessment platform: HR users author and assign multiple-choice tests, candidates take them once and get scored on the server.
// @contact.name API Support
// @contact.email support@assessa.local
// @host localhost:5000
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	app := fx.New(
		// Core
		fx.Provide(
			newConfig,
			database.NewDatabase,
			server.NewGinEngine,
			auth.NewTokenManager,
			newCaches,
		),

		// Repositories
		fx.Provide(
			repository.NewUserRepository,
			repository.NewTestRepository,
			repository.NewQuestionRepository,
			repository.NewAssignmentRepository,
			repository.NewAttemptRepository,
		),

		// Services
		fx.Provide(
			service.NewMailer,
			service.NewAuthService,
			service.NewTestService,
			service.NewAssignmentService,
			service.NewAttemptService,
			service.NewReportService,
			service.NewGenerationService,
			service.NewProctoringService,
		),

		// Controllers
		fx.Provide(
			controller.NewAuthController,
			controller.NewSystemController,
			hr.NewHRController,
			candidate.NewCandidateController,
		),

		fx.Invoke(migrate),
		fx.Invoke(startCacheSweeper),
		fx.Invoke(server.RegisterRoutes),
		fx.Invoke(server.StartServer),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
	if err := app.Stop(context.Background()); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// newConfig loads the configuration and then switches the global logger to
// the configured level and format.
func newConfig() (*config.Config, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func newCaches(cfg *config.Config) *cache.Caches {
	return cache.NewCaches(cfg.Cache.TestTTL, cfg.Cache.AttemptTTL)
}

func migrate(db *gorm.DB) error {
	return database.AutoMigrate(db)
}

func startCacheSweeper(lc fx.Lifecycle, caches *cache.Caches, cfg *config.Config) error {
	sweeper, err := cache.NewSweeper(caches, cfg.Cache.SweepSpec)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sweeper.Start()
			return nil
		},
		OnStop: sweeper.Stop,
	})
	return nil
}

// Package server builds the gin engine, mounts the API routes and ties the
// HTTP listener to the fx lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/Assessa/config"
	"github.com/lshigami/Assessa/internal/auth"
	"github.com/lshigami/Assessa/internal/controller"
	"github.com/lshigami/Assessa/internal/controller/candidate"
	"github.com/lshigami/Assessa/internal/controller/hr"
	"github.com/lshigami/Assessa/internal/model"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
)

func NewGinEngine(cfg *config.Config) (*gin.Engine, error) {
	switch cfg.Server.Mode {
	case gin.ReleaseMode, gin.TestMode, gin.DebugMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	if err := controller.RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		event := log.Info()
		if param.StatusCode >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(controller.BodyLimit(cfg.Server.BodyLimitBytes))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r, nil
}

// Handlers is everything RegisterRoutes mounts.
type Handlers struct {
	fx.In

	Tokens    *auth.TokenManager
	Auth      *controller.AuthController
	System    *controller.SystemController
	HR        *hr.HRController
	Candidate *candidate.CandidateController
}

func RegisterRoutes(router *gin.Engine, h Handlers) {
	authn := controller.Authenticate(h.Tokens)
	hrOnly := controller.RequireRole(model.RoleHR)
	candidateOnly := controller.RequireRole(model.RoleCandidate)

	router.GET("/health", h.System.Health)

	api := router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", authn, h.Auth.Me)
	}

	hrGroup := api.Group("/hr", authn, hrOnly)
	{
		hrGroup.POST("/create-test", h.HR.CreateTest)
		hrGroup.PUT("/tests/:testId", h.HR.UpdateTest)
		hrGroup.DELETE("/tests/:testId", h.HR.DeleteTest)
		hrGroup.GET("/my-tests", h.HR.MyTests)
		hrGroup.POST("/toggle-publish/:testId", h.HR.TogglePublish)
		hrGroup.POST("/generate-questions", h.HR.GenerateQuestions)

		hrGroup.POST("/assign-test", h.HR.AssignTest)
		hrGroup.GET("/test-assignments/:testId", h.HR.TestAssignments)
		hrGroup.GET("/assignments/grouped-by-status", h.HR.GroupedAssignments)

		hrGroup.GET("/test-reports", h.HR.TestReports)
		hrGroup.GET("/test-results/:testId", h.HR.TestResults)
		hrGroup.GET("/monitor-sessions", h.HR.MonitorSessions)
		hrGroup.GET("/attempts", h.HR.Attempts)

		hrGroup.POST("/cache/clear", h.HR.ClearCache)
	}

	// One wildcard name per segment: the test routes below all use :id.
	tests := api.Group("/tests")
	{
		tests.GET("/by-token/:token", controller.OptionalAuthenticate(h.Tokens), h.Candidate.ResolveToken)
		tests.GET("/available", authn, candidateOnly, h.Candidate.AvailableTests)
		tests.GET("/published", authn, candidateOnly, h.Candidate.DashboardTests)
		tests.GET("/my-attempts", authn, candidateOnly, h.Candidate.MyAttempts)
		tests.GET("/attempt/:id", authn, candidateOnly, h.Candidate.AttemptDetail)
		tests.GET("/:id", authn, h.Candidate.GetTest)
		tests.POST("/:id/start", authn, candidateOnly, h.Candidate.StartTest)
		tests.POST("/:id/submit", authn, candidateOnly, h.Candidate.SubmitTest)
	}

	api.GET("/proctoring/status", authn, h.System.ProctoringStatus)
}

// StartServer manages the HTTP listener lifecycle.
func StartServer(lc fx.Lifecycle, router *gin.Engine, cfg *config.Config) {
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Assessa API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

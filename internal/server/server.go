package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/calorbunga/backend/config"
	"github.com/calorbunga/backend/internal/api"
	"github.com/calorbunga/backend/internal/database"
	"github.com/calorbunga/backend/internal/middleware"
	"github.com/calorbunga/backend/internal/router"
	"github.com/calorbunga/backend/internal/service"
	"github.com/calorbunga/backend/pkg/logger"
)

// Server wires the services together and runs the HTTP listener
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	log    *logger.Logger
}

// New builds a fully wired server from configuration
func New(cfg *config.Config) (*Server, error) {
	log := logger.New("calorbunga")

	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	s3cfg, err := config.NewS3Config(context.Background())
	if err != nil {
		// Export uploads are optional; the CSV download surface still works
		log.Warnw("S3 export uploads disabled", "error", err)
		s3cfg = nil
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	store := service.NewLogStore(db, cfg.AppNamespace, log)
	estimator := service.NewEstimatorService(cfg, log)
	ingestService := service.NewIngestionService(estimator, store, redisClient, log)
	exportService := service.NewExportService(s3cfg, log)

	authHandler := api.NewAuthHandler(authService)
	logHandler := api.NewLogHandler(store, ingestService, exportService, log)
	limiter := middleware.NewIngestRateLimiter(redisClient)

	engine := router.SetupRouter(authHandler, logHandler, authService, limiter)

	return &Server{
		cfg:    cfg,
		router: engine,
		log:    log,
	}, nil
}

// Start runs the HTTP server until Shutdown is called
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%s", s.cfg.ServerHost, s.cfg.ServerPort),
		Handler: s.router,
	}

	s.log.Infow("server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}

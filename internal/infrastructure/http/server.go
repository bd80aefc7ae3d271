package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/james-reichert/cccfunctions/internal/adapter/handler/http"
	"github.com/james-reichert/cccfunctions/internal/config"
	"github.com/james-reichert/cccfunctions/internal/middleware/auth"
	"github.com/james-reichert/cccfunctions/internal/usecase"
)

type Server struct {
	config     *config.Config
	logger     *zap.Logger
	echo       *echo.Echo
	reconciler *usecase.ReconcilerService
}

func NewServer(cfg *config.Config, logger *zap.Logger, reconciler *usecase.ReconcilerService) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	return &Server{
		config:     cfg,
		logger:     logger,
		echo:       e,
		reconciler: reconciler,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize handlers
	lifecycleHandler := handlers.NewLifecycleHandler(s.reconciler, s.logger)
	paymentMethodHandler := handlers.NewPaymentMethodHandler(s.reconciler, s.logger)

	// JWT middleware configuration
	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.JWTSecret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
		},
	}
	jwtMiddleware := auth.JWTMiddleware(jwtConfig)

	// Identity provider lifecycle webhooks. The provider signs its
	// notifications with the same JWT secret.
	s.echo.POST("/hooks/auth", lifecycleHandler.HandleEvent, jwtMiddleware)

	// API v1 routes (require JWT authentication)
	v1 := s.echo.Group("/api/v1", jwtMiddleware)
	v1.GET("/payment-methods", paymentMethodHandler.List)
	v1.DELETE("/payment-methods/:id", paymentMethodHandler.Remove)
}

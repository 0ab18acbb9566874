package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/AllanBUSI/Fairpay-sub000/internal/adapter/handler/http"
	"github.com/AllanBUSI/Fairpay-sub000/internal/config"
	"github.com/AllanBUSI/Fairpay-sub000/internal/infrastructure/metrics"
	"github.com/AllanBUSI/Fairpay-sub000/internal/middleware/auth"
	"github.com/AllanBUSI/Fairpay-sub000/pkg/logger"
)

// Handlers are the route handlers mounted by the server
type Handlers struct {
	Webhook  *handlers.WebhookHandler
	Payment  *handlers.PaymentHandler
	Checkout *handlers.CheckoutHandler
}

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	handlers Handlers
}

func NewServer(cfg *config.Config, log *zap.Logger, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	logger.WithEchoLogger(e, log)

	e.Use(middleware.RequestID())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))

	s := &Server{
		config:   cfg,
		logger:   log,
		echo:     e,
		handlers: h,
	}
	s.setupRoutes()
	return s
}

// Echo exposes the router, mainly for tests
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Addr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})
	s.echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	// Provider deliveries are authenticated by their signature
	s.echo.POST("/webhook", s.handlers.Webhook.HandleWebhook)

	v1 := s.echo.Group("/api/v1")
	v1.POST("/webhooks/stripe", s.handlers.Webhook.HandleWebhook)

	protected := v1.Group("", auth.JWTMiddleware(auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Logger: s.logger,
	}))
	protected.POST("/payments/retry", s.handlers.Payment.RetryPayment)
	protected.POST("/payments/injonction", s.handlers.Payment.CreateInjonctionPayment)
	protected.POST("/checkout/dossier", s.handlers.Checkout.CreateDossierCheckout)
}

package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/ecopickup/recycling-tracker/docs" // swagger docs

	"github.com/ecopickup/recycling-tracker/internal/api/handler"
	"github.com/ecopickup/recycling-tracker/internal/api/metrics"
	"github.com/ecopickup/recycling-tracker/internal/api/middleware"
	"github.com/ecopickup/recycling-tracker/internal/core/domain"
	"github.com/ecopickup/recycling-tracker/internal/core/ports"
)

// Deps carries everything the router needs. Users may be nil when
// RequireAuth is false.
type Deps struct {
	Auth     ports.AuthService
	Requests ports.RequestService
	Users    ports.UserService

	// RequireAuth selects the authenticated deployment. When false only the
	// open request routes are mounted and no bearer token is read.
	RequireAuth bool

	CORSAllowOrigins []string
	Checks           map[string]handler.DependencyCheck

	// Registry receives both the HTTP and the domain metrics and is served
	// on /metrics.
	Registry *prometheus.Registry
	Logger   zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	if d.Registry == nil {
		d.Registry = prometheus.NewRegistry()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Logger)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Logger))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: d.CORSAllowOrigins,
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			handler.HeaderIdempotencyKey,
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "recycling",
		Subsystem:  "http",
		Registerer: d.Registry,
	}))

	m := metrics.New(d.Registry)

	// --- Health probes, metrics and docs (no auth required) ---
	health := handler.NewHealthHandler(d.Checks)
	e.GET("/health", health.Liveness)
	e.GET("/health/ready", health.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Registry}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	requestHandler := handler.NewRequestHandler(d.Requests, m)
	requests := api.Group("/requests")

	if !d.RequireAuth {
		requests.POST("", requestHandler.Create)
		requests.GET("", requestHandler.List)
		requests.PATCH("/:id", requestHandler.UpdateStatus)
		return e
	}

	authn := middleware.Auth(d.Auth)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)

	// --- Users ---
	authHandler := handler.NewAuthHandler(d.Auth, m)
	userHandler := handler.NewUserHandler(d.Users)
	users := api.Group("/users")
	users.POST("/register", authHandler.Register)
	users.POST("/login", authHandler.Login)
	users.GET("", userHandler.List, authn, adminOnly)
	users.PUT("/:id", userHandler.Update, authn, adminOnly)
	users.DELETE("/:id", userHandler.Delete, authn, adminOnly)

	// --- Pickup requests ---
	requests.POST("", requestHandler.Create, authn)
	requests.GET("", requestHandler.List, authn)
	requests.PATCH("/:id", requestHandler.UpdateStatus, authn, adminOnly)
	requests.DELETE("/:id", requestHandler.Delete, authn)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

package handler

import (
	"net/http"

	"github.com/abdusco/linkzip/internal/analytics"
	"github.com/abdusco/linkzip/internal/auth"
	"github.com/abdusco/linkzip/internal/logger"
	"github.com/abdusco/linkzip/internal/shortener"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	Service       *shortener.Service
	Aggregator    *analytics.Aggregator
	Authenticator *auth.Authenticator
	BaseURL       string
	QREndpoint    string
	Logger        zerolog.Logger
}

// corsAllowHeaders are the request headers browser clients send to the API.
var corsAllowHeaders = []string{
	echo.HeaderAuthorization,
	"x-client-info",
	"apikey",
	echo.HeaderContentType,
}

func NewRouter(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewRequestValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(logger.Middleware(cfg.Logger))
	e.Use(logger.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowHeaders: corsAllowHeaders,
	}))

	optionalIdentity := auth.OptionalIdentity(cfg.Authenticator)
	requireIdentity := auth.RequireIdentity(cfg.Authenticator)

	linkHandler := NewLinkHandler(cfg.Service, cfg.BaseURL, cfg.QREndpoint)
	analyticsHandler := NewAnalyticsHandler(cfg.Aggregator)
	authHandler := NewAuthHandler(cfg.Authenticator)

	api := e.Group("/api")
	api.POST("/auth/token", authHandler.IssueToken)
	api.POST("/links", linkHandler.CreateLink, optionalIdentity)
	api.GET("/links", linkHandler.ListLinks, requireIdentity)
	api.PATCH("/links/:id", linkHandler.UpdateLink, requireIdentity)
	api.GET("/links/:id/analytics", analyticsHandler.GetAnalytics, requireIdentity)
	api.GET("/analytics", analyticsHandler.GetAnalytics, requireIdentity)
	api.POST("/resolve", linkHandler.Resolve)

	// top-level static paths shadow short codes and must be listed in shortener.IsReservedCode
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Parameterized route (must be last)
	e.GET("/:code", linkHandler.Redirect)

	return e
}

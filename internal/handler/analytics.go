package handler

import (
	"net/http"
	"strconv"

	"github.com/abdusco/linkzip/internal/analytics"
	"github.com/abdusco/linkzip/internal/auth"
	"github.com/labstack/echo/v4"
)

type AnalyticsHandler struct {
	aggregator *analytics.Aggregator
}

func NewAnalyticsHandler(aggregator *analytics.Aggregator) *AnalyticsHandler {
	return &AnalyticsHandler{aggregator: aggregator}
}

// GetAnalytics serves GET /api/analytics?urlId=&days= and GET /api/links/:id/analytics?days=.
func (h *AnalyticsHandler) GetAnalytics(c echo.Context) error {
	rawID := c.Param("id")
	if rawID == "" {
		rawID = c.QueryParam("urlId")
	}
	if rawID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "URL ID is required")
	}
	linkID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid URL ID")
	}

	days := analytics.DefaultWindowDays
	if raw := c.QueryParam("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be a number")
		}
	}

	report, err := h.aggregator.Report(c.Request().Context(), linkID, auth.UserID(c), days)
	if err != nil {
		return toHTTPError(err)
	}
	return respond(c, http.StatusOK, report)
}

package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/abdusco/linkzip/internal"
	"github.com/abdusco/linkzip/internal/auth"
	"github.com/abdusco/linkzip/internal/shortener"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

const DefaultQREndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="

type LinkHandler struct {
	service    *shortener.Service
	baseURL    string
	qrEndpoint string
}

// NewLinkHandler builds the link endpoints. When baseURL is empty short URLs are built from
// the request's scheme and host.
func NewLinkHandler(service *shortener.Service, baseURL, qrEndpoint string) *LinkHandler {
	if qrEndpoint == "" {
		qrEndpoint = DefaultQREndpoint
	}
	return &LinkHandler{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		qrEndpoint: qrEndpoint,
	}
}

type CreateLinkRequest struct {
	OriginalURL string `json:"originalUrl" validate:"required"`
	CustomCode  string `json:"customCode" validate:"omitempty,shortcode"`
}

var createLinkMessages = map[string]string{
	"OriginalURL.required": "Original URL is required",
	"CustomCode":           internal.ErrInvalidCode.Error(),
}

type ResolveRequest struct {
	ShortCode string `json:"shortCode" validate:"required"`
}

type UpdateLinkRequest struct {
	Active *bool `json:"isActive" validate:"required"`
}

type LinkResponse struct {
	ID          int64     `json:"id"`
	OriginalURL string    `json:"originalUrl"`
	ShortURL    string    `json:"shortUrl"`
	ShortCode   string    `json:"shortCode"`
	Title       string    `json:"title"`
	ClickCount  int64     `json:"clickCount"`
	QRCodeURL   string    `json:"qrCodeUrl"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ResolveResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

func (h *LinkHandler) CreateLink(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	req.OriginalURL = strings.TrimSpace(req.OriginalURL)
	if err := c.Validate(&req); err != nil {
		return validationError(err, createLinkMessages)
	}

	link, err := h.service.Shorten(ctx, shortener.ShortenInput{
		URL:        req.OriginalURL,
		CustomCode: req.CustomCode,
		OwnerID:    auth.UserID(c),
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("custom_code", req.CustomCode).Msg("failed to shorten url")
		return toHTTPError(err)
	}

	return respond(c, http.StatusCreated, h.toResponse(c, link))
}

func (h *LinkHandler) ListLinks(c echo.Context) error {
	links, err := h.service.ListLinks(c.Request().Context(), auth.UserID(c))
	if err != nil {
		return toHTTPError(err)
	}

	return respond(c, http.StatusOK, lo.Map(links, func(link *internal.ShortLink, _ int) LinkResponse {
		return h.toResponse(c, link)
	}))
}

func (h *LinkHandler) UpdateLink(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid link id")
	}

	var req UpdateLinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err, map[string]string{"Active": "isActive is required"})
	}

	link, err := h.service.SetActive(c.Request().Context(), id, auth.UserID(c), *req.Active)
	if err != nil {
		return toHTTPError(err)
	}
	return respond(c, http.StatusOK, h.toResponse(c, link))
}

// Redirect serves GET /:code with a 302 to the destination. A temporary redirect keeps
// browsers coming back through us, so every visit is counted.
func (h *LinkHandler) Redirect(c echo.Context) error {
	link, err := h.visit(c, c.Param("code"))
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, link.OriginalURL)
}

// Resolve is the non-redirecting variant: it records the visit and returns the destination.
func (h *LinkHandler) Resolve(c echo.Context) error {
	var req ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err, map[string]string{"ShortCode": "Short code is required"})
	}

	link, err := h.visit(c, req.ShortCode)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ResolveResponse{RedirectURL: link.OriginalURL})
}

func (h *LinkHandler) visit(c echo.Context, code string) (*internal.ShortLink, error) {
	ctx := c.Request().Context()
	code = strings.TrimSpace(code)

	link, err := h.service.Visit(ctx, code, shortener.VisitFromRequest(c.Request()))
	if err != nil {
		zerolog.Ctx(ctx).Info().Err(err).Str("code", code).Msg("short code not resolved")
		return nil, toHTTPError(err)
	}

	zerolog.Ctx(ctx).Info().Str("code", code).Int64("link_id", link.ID).Msg("redirecting")
	return link, nil
}

func (h *LinkHandler) shortURL(c echo.Context, code string) string {
	base := h.baseURL
	if base == "" {
		base = c.Scheme() + "://" + c.Request().Host
	}
	return base + "/" + code
}

func (h *LinkHandler) toResponse(c echo.Context, link *internal.ShortLink) LinkResponse {
	shortURL := h.shortURL(c, link.ShortCode)
	return LinkResponse{
		ID:          link.ID,
		OriginalURL: link.OriginalURL,
		ShortURL:    shortURL,
		ShortCode:   link.ShortCode,
		Title:       link.Title,
		ClickCount:  link.ClickCount,
		QRCodeURL:   h.qrEndpoint + url.QueryEscape(shortURL),
		IsActive:    link.Active,
		CreatedAt:   link.CreatedAt,
	}
}

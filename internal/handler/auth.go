package handler

import (
	"errors"
	"net/http"

	"github.com/abdusco/linkzip/internal/auth"
	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authenticator *auth.Authenticator
}

func NewAuthHandler(authenticator *auth.Authenticator) *AuthHandler {
	return &AuthHandler{authenticator: authenticator}
}

type TokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken handles POST /api/auth/token - validates credentials and returns a bearer token,
// also set as a cookie for browser clients
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}
	if err := c.Validate(&req); err != nil {
		return validationError(err, nil)
	}

	token, err := h.authenticator.IssueToken(auth.Credentials{Username: req.Username, Password: req.Password})
	if errors.Is(err, auth.ErrUnauthorized) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err != nil {
		return err
	}

	c.SetCookie(auth.TokenCookie(token, c.IsTLS()))
	return respond(c, http.StatusOK, TokenResponse{Token: token})
}

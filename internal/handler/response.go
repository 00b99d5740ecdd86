package handler

import (
	"errors"
	"net/http"

	"github.com/abdusco/linkzip/internal"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// envelope is the uniform body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

// toHTTPError maps domain errors to status codes. Anything unrecognised is an internal error
// and its message is not exposed.
func toHTTPError(err error) *echo.HTTPError {
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var status int
	switch {
	case errors.Is(err, internal.ErrInvalidURL):
		return echo.NewHTTPError(http.StatusBadRequest, internal.ErrInvalidURL.Error())
	case errors.Is(err, internal.ErrInvalidCode):
		return echo.NewHTTPError(http.StatusBadRequest, internal.ErrInvalidCode.Error())
	case errors.Is(err, internal.ErrCodeConflict):
		return echo.NewHTTPError(http.StatusConflict, internal.ErrCodeConflict.Error())
	case errors.Is(err, internal.ErrAllocationExhausted):
		return echo.NewHTTPError(http.StatusServiceUnavailable, internal.ErrAllocationExhausted.Error())
	case errors.Is(err, internal.ErrLinkNotFound):
		status = http.StatusNotFound
	case errors.Is(err, internal.ErrLinkInactive):
		status = http.StatusGone
	case errors.Is(err, internal.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, internal.ErrUnauthenticated):
		status = http.StatusUnauthorized
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	return echo.NewHTTPError(status, err.Error())
}

// validationError turns the first failed field of a request into a client-facing error.
func validationError(err error, messages map[string]string) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	}

	fe := errs[0]
	if msg, ok := messages[fe.StructField()+"."+fe.Tag()]; ok {
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	if msg, ok := messages[fe.StructField()]; ok {
		return echo.NewHTTPError(http.StatusBadRequest, msg)
	}
	return echo.NewHTTPError(http.StatusBadRequest, "invalid "+fe.Field())
}

// ErrorHandler renders every failure in the response envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr := toHTTPError(err)
	message, ok := httpErr.Message.(string)
	if !ok {
		message = http.StatusText(httpErr.Code)
	}

	logger := zerolog.Ctx(c.Request().Context())
	ev := logger.Debug()
	if httpErr.Code >= http.StatusInternalServerError {
		ev = logger.Error()
	}
	ev.
		Int("code", httpErr.Code).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Err(err).
		Msg("http error")

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(httpErr.Code)
		return
	}
	_ = c.JSON(httpErr.Code, envelope{Success: false, Error: message})
}

package http

import (
	"errors"
	"log/slog"
	"net/http"

	"fulfillment/internal/core/domain/model/courier"
	"fulfillment/internal/core/domain/model/order"
	"fulfillment/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Error is the body of every failed response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// statusOf classifies an application error.
func statusOf(err error) int {
	switch {
	case errors.Is(err, order.ErrInvalidCart):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrInvalidOtp),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, order.ErrClaimConflict),
		errors.Is(err, order.ErrIllegalTransition),
		errors.Is(err, order.ErrOtpAlreadyIssued),
		errors.Is(err, errs.ErrVersionIsInvalid),
		errors.Is(err, courier.ErrCourierBusy),
		errors.Is(err, courier.ErrDeliveryNotHeld):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorHandler renders handler errors as Error bodies. Failures that are not
// classified are logged and reported without their details.
func NewErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, message := http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(code)
			}
		} else if code = statusOf(err); code != http.StatusInternalServerError {
			message = err.Error()
		}

		if code >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method,
				"path", c.Path(),
				"error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(code)
		} else {
			writeErr = c.JSON(code, Error{Code: code, Message: message})
		}
		if writeErr != nil {
			logger.Warn("write error response", "error", writeErr)
		}
	}
}

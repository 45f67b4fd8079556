package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/poplog/plugin/filter"
	"github.com/hrygo/poplog/plugin/sample"
	apierrors "github.com/hrygo/poplog/server/internal/errors"
	"github.com/hrygo/poplog/server/service/record"
	"github.com/hrygo/poplog/store"
)

// toAPIError maps service failures onto API error codes.
func toAPIError(err error) *apierrors.APIError {
	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, record.ErrInvalidRequest),
		errors.Is(err, record.ErrEmptyEdit),
		errors.Is(err, filter.ErrInvalidFilter),
		errors.Is(err, sample.ErrUnknownKind):
		return apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, err.Error())
	case errors.Is(err, record.ErrNoTimeFound):
		return apierrors.Wrap(err, apierrors.ErrCodeNoTimeFound, "no time found in line")
	case errors.Is(err, store.ErrRecordNotFound):
		return apierrors.Wrap(err, apierrors.ErrCodeNotFound, "record not found")
	case errors.Is(err, context.Canceled):
		return apierrors.Wrap(err, apierrors.ErrCodeContextCanceled, "request canceled")
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return &apierrors.APIError{Code: codeFromStatus(he.Code), Message: msg, Cause: err}
	}
	return apierrors.Wrap(err, apierrors.ErrCodeInternal, "internal error")
}

func codeFromStatus(status int) apierrors.ErrorCode {
	switch status {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType, http.StatusRequestEntityTooLarge:
		return apierrors.ErrCodeInvalidArgument
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		return apierrors.ErrCodeNotFound
	case http.StatusUnprocessableEntity:
		return apierrors.ErrCodeNoTimeFound
	case http.StatusTooManyRequests:
		return apierrors.ErrCodeRateLimitExceeded
	}
	return apierrors.ErrCodeInternal
}

// HTTPErrorHandler writes every handler error as {"code","message"}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err)
	status := apiErr.HTTPStatus()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
	}
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", slog.String("path", c.Path()), slog.String("error", err.Error()))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, apiErr)
	}
	if err != nil {
		slog.Error("failed to write error response", slog.String("error", err.Error()))
	}
}

package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vtttools/mediastore/internal/errors"
	"github.com/vtttools/mediastore/internal/logger"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// statusOf maps an error returned by a handler to an HTTP status.
// Invalid arguments are the caller's fault; anything else from the stores
// is a server failure.
func statusOf(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.IsInvalidArgument(err):
		return http.StatusBadRequest
	case errors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// errorClass labels failed statuses for the error counter.
func errorClass(status int) string {
	switch {
	case status == http.StatusNotFound:
		return "not_found"
	case status >= 500:
		return "system"
	case status >= 400:
		return "validation"
	default:
		return ""
	}
}

// handleError is the echo HTTPErrorHandler. Server errors are logged with
// their cause and answered with a generic message.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := statusOf(err)
	message := http.StatusText(status)

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		if m, ok := he.Message.(string); ok {
			message = m
		}
	case status < http.StatusInternalServerError:
		message = err.Error()
	}

	requestID := c.Response().Header().Get(echo.HeaderXRequestID)
	if status >= http.StatusInternalServerError {
		s.log.WithContext(c.Request().Context()).Error("request failed",
			logger.String("path", c.Path()),
			logger.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, errorResponse{Error: message, RequestID: requestID})
	}
	if err != nil {
		s.log.Warn("failed to write error response", logger.Error(err))
	}
}

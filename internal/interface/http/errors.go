package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/medtracker/internal/application"
	"github.com/oksasatya/medtracker/pkg/response"
)

// statusFor maps application error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, app.ErrAuthorization):
		return http.StatusForbidden
	case errors.Is(err, app.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, app.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the mapped status. Server-side failures are logged
// and their details withheld from the client.
func writeError(c *gin.Context, logger *logrus.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		if logger != nil {
			logger.WithError(err).
				WithField("request_id", c.GetString("request_id")).
				WithField("path", c.FullPath()).
				Error(fallback)
		}
		response.Error[any](c, status, fallback, nil)
		return
	}
	response.Error[any](c, status, err.Error(), nil)
}

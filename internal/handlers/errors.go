package handlers

import (
	"net/http"

	"reqgather/internal/common"

	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler renders every error through the response envelope so
// clients always see {success, message} on failure. Unknown errors become a
// 500 with the cause logged, never leaked.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(status)
		}
	} else {
		c.Logger().Errorf("unhandled error: %v", err)
	}

	if c.Request().Method == http.MethodHead {
		if err := c.NoContent(status); err != nil {
			c.Logger().Errorf("failed to write error response: %v", err)
		}
		return
	}

	if err := c.JSON(status, common.Envelope{Success: false, Message: message}); err != nil {
		c.Logger().Errorf("failed to write error response: %v", err)
	}
}

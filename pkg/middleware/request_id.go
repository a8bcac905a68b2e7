package middleware

import (
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Adds the request Id to the general context
func AddRequestId(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestId := c.Request().Header.Get(config.HeaderRequestId)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Set(config.HeaderRequestId, requestId)
		c.Response().Header().Set(config.HeaderRequestId, requestId)
		return next(c)
	}
}

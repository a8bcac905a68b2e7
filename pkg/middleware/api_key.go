package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/labstack/echo/v4"
)

const ApiKeyHeader = "X-API-Key"

// SkipAuth exempts liveness endpoints from the API key check.
func SkipAuth(c echo.Context) bool {
	p := c.Request().URL.Path

	skipped := []string{"ping", "health"}
	for i := 0; i < len(skipped); i++ {
		path := skipped[i]

		if p == "/"+path || p == "/"+path+"/" {
			return true
		}
		if strings.HasPrefix(p, "/api/v2/") && strings.HasSuffix(p, "/"+path) {
			return true
		}
	}

	return false
}

// EnforceApiKey rejects requests without the configured API key. With no
// key configured the check is disabled, which is the development setup.
func EnforceApiKey(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if SkipAuth(c) {
			return next(c)
		}
		configured := config.Get().Options.ApiKey
		if configured == "" {
			return next(c)
		}
		presented := c.Request().Header.Get(ApiKeyHeader)
		if subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) != 1 {
			return ce.NewErrorResponse(http.StatusUnauthorized, "Invalid API key", "A valid "+ApiKeyHeader+" header is required")
		}
		return next(c)
	}
}

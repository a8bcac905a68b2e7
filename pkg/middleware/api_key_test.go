package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func handleItWorked(c echo.Context) error {
	return c.JSON(http.StatusOK, "it worked")
}

func serveApiKeyRouter(req *http.Request) (int, []byte, error) {
	var (
		bodyResponse []byte
		err          error
	)
	e := echo.New()
	e.Use(EnforceApiKey)
	e.HTTPErrorHandler = config.CustomHTTPErrorHandler
	e.GET("/api/v2/versions", handleItWorked)
	e.GET("/ping", handleItWorked)
	e.GET("/api/v2/ping", handleItWorked)

	response := httptest.NewRecorder()
	e.ServeHTTP(response, req)
	bodyResponse, err = io.ReadAll(response.Body)
	return response.Code, bodyResponse, err
}

func TestEnforceApiKey(t *testing.T) {
	config.Load()
	config.Get().Options.ApiKey = "test-key"
	defer func() { config.Get().Options.ApiKey = "" }()

	// Missing key is rejected
	req := httptest.NewRequest(http.MethodGet, "/api/v2/versions", nil)
	code, _, err := serveApiKeyRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Wrong key is rejected
	req = httptest.NewRequest(http.MethodGet, "/api/v2/versions", nil)
	req.Header.Set(ApiKeyHeader, "wrong")
	code, _, err = serveApiKeyRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, code)

	// Correct key passes
	req = httptest.NewRequest(http.MethodGet, "/api/v2/versions", nil)
	req.Header.Set(ApiKeyHeader, "test-key")
	code, _, err = serveApiKeyRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	// Liveness endpoints skip the check
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	code, _, err = serveApiKeyRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	req = httptest.NewRequest(http.MethodGet, "/api/v2/ping", nil)
	code, _, err = serveApiKeyRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
}

func TestEnforceApiKeyDisabled(t *testing.T) {
	config.Load()
	config.Get().Options.ApiKey = ""

	req := httptest.NewRequest(http.MethodGet, "/api/v2/versions", nil)
	code, _, err := serveApiKeyRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)
}

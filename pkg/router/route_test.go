package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/cache"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/handler"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testServicesWithDao(t *testing.T) (*handler.Services, *dao.MockDaoRegistry) {
	config.Load()
	volume, err := storage.NewVolumeFileStore(t.TempDir())
	require.NoError(t, err)
	inline := storage.NewInlineBlobStore()
	mockDao := dao.GetMockDaoRegistry(t)
	daoReg := mockDao.ToDaoRegistry()

	return &handler.Services{
		Dao:         daoReg,
		Coordinator: uploads.NewCoordinator(daoReg, inline, volume),
		Cache:       cache.NewNoOpCache(),
		Inline:      inline,
		Volume:      volume,
		Metrics:     instrumentation.NewMetrics(prometheus.NewRegistry()),
	}, mockDao
}

func testServices(t *testing.T) *handler.Services {
	services, _ := testServicesWithDao(t)
	return services
}

func TestConfigureEcho(t *testing.T) {
	type TestCaseExpected map[string]map[string]string

	testCases := TestCaseExpected{
		"/ping": {
			"GET": "github.com/MaxGiu67/nexa-version-management-api/pkg/handler.ping",
		},
		"/api/v2/version/check": {
			"POST": "github.com/MaxGiu67/nexa-version-management-api/pkg/handler.(*VersionsHandler).checkUpdate-fm",
		},
		"/api/v2/version/latest": {
			"GET": "github.com/MaxGiu67/nexa-version-management-api/pkg/handler.(*VersionsHandler).latestVersion-fm",
		},
		"/api/v2/version/upload": {
			"POST": "github.com/MaxGiu67/nexa-version-management-api/pkg/handler.(*UploadsHandler).uploadVersion-fm",
		},
		"/api/v2/download/:app_identifier/:platform/:version": {
			"GET": "github.com/MaxGiu67/nexa-version-management-api/pkg/handler.(*DownloadsHandler).downloadVersion-fm",
		},
		"/api/v2/storage/info": {
			"GET": "github.com/MaxGiu67/nexa-version-management-api/pkg/handler.(*StorageHandler).storageInfo-fm",
		},
	}

	e := ConfigureEcho(testServices(t), true)
	require.NotNil(t, e)

	for path, endpoints := range testCases {
		for method, fnc := range endpoints {
			found := false

			for _, route := range e.Routes() {
				if route.Path == path && method == route.Method {
					found = true
					assert.Equal(t, fnc, route.Name)
				}
			}
			assert.True(t, found, "Could not find route for %v: %v", method, path)
		}
	}
}

func TestConfigureEchoPingOnly(t *testing.T) {
	e := ConfigureEcho(testServices(t), false)
	require.NotNil(t, e)

	for _, route := range e.Routes() {
		assert.NotContains(t, route.Path, "/api/v2/version")
	}
}

func routedApp() models.Application {
	return models.Application{
		Base:            models.Base{UUID: "9d2e54e2-6f3a-4f56-92cf-1f6f35a0b9d1"},
		Identifier:      "com.example.routed",
		Name:            "Routed App",
		PlatformSupport: pq.StringArray{"android", "ios", "all"},
	}
}

// The middleware chain must let multipart bodies through to the upload
// handler instead of rejecting them as non-JSON.
func TestUploadThroughMiddleware(t *testing.T) {
	services, mockDao := testServicesWithDao(t)
	content := []byte("routed apk bytes")

	mockDao.Application.On("Fetch", mock.Anything, "com.example.routed").Return(routedApp(), nil)
	mockDao.Version.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Version) bool {
		return v.Version == "2.0.0" && v.Platform == "android"
	})).Return(nil)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"app_identifier": "com.example.routed",
		"version":        "2.0.0",
		"platform":       "android",
		"version_code":   "20",
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", "app-2.0.0.apk")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	response := httptest.NewRecorder()
	ConfigureEcho(services, true).ServeHTTP(response, req)

	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	var uploaded api.UploadResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &uploaded))
	assert.Equal(t, storage.Digest(content), uploaded.FileHash)
}

// Raw chunk bodies carry application/octet-stream and must also pass the
// content-type enforcement.
func TestChunkThroughMiddleware(t *testing.T) {
	services, mockDao := testServicesWithDao(t)
	e := ConfigureEcho(services, true)
	content := []byte("routed chunk bytes")

	mockDao.Application.On("Fetch", mock.Anything, "com.example.routed").Return(routedApp(), nil)

	payload := fmt.Sprintf(
		`{"app_identifier":"com.example.routed","version":"2.0.0","platform":"android","version_code":20,"file_size":%d,"file_name":"app-2.0.0.apk"}`,
		len(content))
	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload-chunked/start", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	response := httptest.NewRecorder()
	e.ServeHTTP(response, req)
	require.Equal(t, http.StatusCreated, response.Code, response.Body.String())

	var started api.StartChunkedUploadResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &started))

	chunkPath := fmt.Sprintf("/api/v2/version/upload-chunked/%s/chunk/0", started.UploadID)
	req = httptest.NewRequest(http.MethodPost, chunkPath, bytes.NewReader(content))
	req.Header.Set("Content-Type", "application/octet-stream")
	response = httptest.NewRecorder()
	e.ServeHTTP(response, req)

	require.Equal(t, http.StatusOK, response.Code, response.Body.String())

	var ack api.ChunkAckResponse
	require.NoError(t, json.Unmarshal(response.Body.Bytes(), &ack))
	assert.True(t, ack.Received)
}

func TestEchoWithMetrics(t *testing.T) {
	services := testServices(t)
	var e *echo.Echo
	require.NotPanics(t, func() {
		e = ConfigureEchoWithMetrics(services, services.Metrics)
	})
	assert.NotNil(t, e)
}

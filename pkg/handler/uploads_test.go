package handler

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
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type UploadsSuite struct {
	VersionsSuite
}

func TestUploadsSuite(t *testing.T) {
	suite.Run(t, new(UploadsSuite))
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func (s *UploadsSuite) TestUploadVersion() {
	t := s.T()
	content := []byte("apk bytes")

	s.dao.Application.On("Fetch", mock.Anything, "com.example.app").Return(mockApp(), nil)
	s.dao.Version.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Version) bool {
		return v.Version == "1.0.0" && v.Platform == "android" && v.VersionCode == 10
	})).Return(nil)

	body, contentType := multipartUpload(t, map[string]string{
		"app_identifier": "com.example.app",
		"version":        "1.0.0",
		"platform":       "android",
		"version_code":   "10",
	}, "app-1.0.0.apk", content)

	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload", body)
	req.Header.Set("Content-Type", contentType)

	code, responseBody, err := s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, code)

	var response api.UploadResponse
	require.NoError(t, json.Unmarshal(responseBody, &response))
	assert.Equal(t, storage.Digest(content), response.FileHash)
	assert.Equal(t, models.StorageInline, response.StorageKind)
}

func (s *UploadsSuite) TestUploadVersionMissingFile() {
	t := s.T()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("app_identifier", "com.example.app"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	code, _, err := s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
}

func (s *UploadsSuite) TestUploadVersionWrongExtension() {
	t := s.T()

	s.dao.Application.On("Fetch", mock.Anything, "com.example.app").Return(mockApp(), nil)

	body, contentType := multipartUpload(t, map[string]string{
		"app_identifier": "com.example.app",
		"version":        "1.0.0",
		"platform":       "android",
		"version_code":   "10",
	}, "app-1.0.0.ipa", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload", body)
	req.Header.Set("Content-Type", contentType)

	code, _, err := s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
}

func (s *UploadsSuite) startSession(fileSize int64) api.StartChunkedUploadResponse {
	t := s.T()
	s.dao.Application.On("Fetch", mock.Anything, "com.example.app").Return(mockApp(), nil)

	payload := fmt.Sprintf(
		`{"app_identifier":"com.example.app","version":"1.0.0","platform":"android","version_code":10,"file_size":%d,"file_name":"app-1.0.0.apk"}`,
		fileSize)
	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload-chunked/start", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	code, body, err := s.serveRouter(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, code)

	var response api.StartChunkedUploadResponse
	require.NoError(t, json.Unmarshal(body, &response))
	return response
}

func (s *UploadsSuite) TestChunkedUploadFlow() {
	t := s.T()
	content := []byte("chunked upload body")

	s.dao.Version.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Version) bool {
		return v.FileHash == storage.Digest(content)
	})).Return(nil)

	started := s.startSession(int64(len(content)))
	assert.Equal(t, 1, started.TotalChunks)

	chunkPath := fmt.Sprintf("/api/v2/version/upload-chunked/%s/chunk/0", started.UploadID)
	req := httptest.NewRequest(http.MethodPost, chunkPath, bytes.NewReader(content))
	req.Header.Set("Content-Type", "application/octet-stream")

	code, body, err := s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	var ack api.ChunkAckResponse
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.True(t, ack.Received)

	completePath := fmt.Sprintf("/api/v2/version/upload-chunked/%s/complete", started.UploadID)
	req = httptest.NewRequest(http.MethodPost, completePath, nil)
	code, body, err = s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, code)

	var response api.UploadResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, storage.Digest(content), response.FileHash)
}

func (s *UploadsSuite) TestCompleteReportsMissingChunks() {
	t := s.T()

	started := s.startSession(12_000_000)
	require.Equal(t, 3, started.TotalChunks)

	chunkPath := fmt.Sprintf("/api/v2/version/upload-chunked/%s/chunk/1", started.UploadID)
	req := httptest.NewRequest(http.MethodPost, chunkPath, bytes.NewReader([]byte("middle")))
	code, _, err := s.serveRouter(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, code)

	completePath := fmt.Sprintf("/api/v2/version/upload-chunked/%s/complete", started.UploadID)
	req = httptest.NewRequest(http.MethodPost, completePath, nil)
	code, body, err := s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)

	var response api.MissingChunksResponse
	require.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, []int{0, 2}, response.MissingChunks)
}

func (s *UploadsSuite) TestChunkUnknownSession() {
	t := s.T()

	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload-chunked/bogus/chunk/0", bytes.NewReader([]byte("x")))
	code, _, err := s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, code)
}

func (s *UploadsSuite) TestChunkBadNumber() {
	t := s.T()

	req := httptest.NewRequest(http.MethodPost, "/api/v2/version/upload-chunked/bogus/chunk/abc", bytes.NewReader([]byte("x")))
	code, _, err := s.serveRouter(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, code)
}

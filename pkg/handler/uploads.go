package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/cache"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/notifications"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type UploadsHandler struct {
	Coordinator *uploads.Coordinator
	Cache       cache.Cache
	Metrics     *instrumentation.Metrics
}

func RegisterUploadRoutes(engine *echo.Group, services *Services) {
	uh := UploadsHandler{
		Coordinator: services.Coordinator,
		Cache:       services.Cache,
		Metrics:     services.Metrics,
	}
	engine.POST("/version/upload", uh.uploadVersion)
	engine.POST("/version/upload-chunked/start", uh.startChunkedUpload)
	engine.POST("/version/upload-chunked/:upload_id/chunk/:chunk_number", uh.uploadChunk)
	engine.POST("/version/upload-chunked/:upload_id/complete", uh.completeChunkedUpload)
}

// uploadVersion accepts a whole binary in one multipart request.
func (uh *UploadsHandler) uploadVersion(c echo.Context) error {
	var request api.UploadRequest
	if err := c.Bind(&request); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error binding parameters", err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error reading file", "A 'file' form part is required")
	}
	if fileHeader.Size > config.Get().Options.MaxUploadBytes {
		return ce.NewErrorResponse(http.StatusRequestEntityTooLarge, "File too large",
			"Maximum upload size is "+strconv.FormatInt(config.Get().Options.MaxUploadBytes, 10)+" bytes")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return ce.NewErrorResponseFromError("Error reading file", err)
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return ce.NewErrorResponseFromError("Error reading file", err)
	}

	response, err := uh.Coordinator.UploadSingle(c.Request().Context(), request, fileHeader.Filename, content)
	if err != nil {
		return uploadErrorResponse(err)
	}

	uh.afterUpload(c, request.AppIdentifier, response)
	return c.JSON(http.StatusCreated, response)
}

func (uh *UploadsHandler) startChunkedUpload(c echo.Context) error {
	var request api.StartChunkedUploadRequest
	if err := c.Bind(&request); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error binding parameters", err.Error())
	}

	response, err := uh.Coordinator.StartChunked(c.Request().Context(), request)
	if err != nil {
		return uploadErrorResponse(err)
	}
	return c.JSON(http.StatusCreated, response)
}

// uploadChunk stores one chunk. The body is the raw chunk bytes.
func (uh *UploadsHandler) uploadChunk(c echo.Context) error {
	uploadID := c.Param("upload_id")
	chunkNumber, err := strconv.Atoi(c.Param("chunk_number"))
	if err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error validating parameters", "chunk_number must be an integer")
	}

	content, err := readChunkBody(c)
	if err != nil {
		return ce.NewErrorResponseFromError("Error reading chunk", err)
	}

	response, err := uh.Coordinator.PutChunk(c.Request().Context(), uploadID, chunkNumber, content)
	if err != nil {
		return uploadErrorResponse(err)
	}
	return c.JSON(http.StatusOK, response)
}

func (uh *UploadsHandler) completeChunkedUpload(c echo.Context) error {
	uploadID := c.Param("upload_id")

	appIdentifier, err := uh.Coordinator.SessionAppIdentifier(uploadID)
	if err != nil {
		return uploadErrorResponse(err)
	}

	response, err := uh.Coordinator.CompleteChunked(c.Request().Context(), uploadID)
	if err != nil {
		missingError := &uploads.MissingChunksError{}
		if errors.As(err, &missingError) {
			return c.JSON(http.StatusBadRequest, api.MissingChunksResponse{MissingChunks: missingError.Missing})
		}
		return uploadErrorResponse(err)
	}

	uh.afterUpload(c, appIdentifier, response)
	return c.JSON(http.StatusCreated, response)
}

// afterUpload invalidates cached resolutions and emits the published event.
func (uh *UploadsHandler) afterUpload(c echo.Context, appIdentifier string, response api.UploadResponse) {
	ctx := c.Request().Context()
	uh.Metrics.RecordUpload(response.StorageKind)

	platforms := []string{response.Platform}
	if response.Platform == config.PlatformAll {
		platforms = config.RequestablePlatforms[:]
	}
	for _, p := range platforms {
		if err := uh.Cache.DeleteLatestResolution(ctx, appIdentifier, p); err != nil {
			log.Warn().Err(err).Str("app", appIdentifier).Str("platform", p).Msg("could not invalidate cached resolution")
		}
	}

	go notifications.SendNotification(uh.Metrics, notifications.VersionPublished, notifications.MapUploadResponse(appIdentifier, response))
}

// readChunkBody accepts both raw bodies and a multipart "chunk" part.
func readChunkBody(c echo.Context) ([]byte, error) {
	if fileHeader, err := c.FormFile("chunk"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(c.Request().Body)
}

// uploadErrorResponse maps coordinator errors onto the API error envelope.
func uploadErrorResponse(err error) error {
	switch {
	case errors.Is(err, uploads.ErrFileTooLarge):
		return ce.NewErrorResponse(http.StatusRequestEntityTooLarge, "File too large", err.Error())
	case errors.Is(err, uploads.ErrSessionNotFound):
		return ce.NewErrorResponse(http.StatusNotFound, "Upload session not found", err.Error())
	case errors.Is(err, uploads.ErrSessionExpired):
		return ce.NewErrorResponse(http.StatusGone, "Upload session expired", err.Error())
	}
	return ce.NewErrorResponseFromError("Could not store version", err)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type DownloadsHandler struct {
	Dao     dao.DaoRegistry
	Inline  *storage.InlineBlobStore
	Volume  *storage.VolumeFileStore
	Metrics *instrumentation.Metrics
}

func RegisterDownloadRoutes(engine *echo.Group, services *Services) {
	dh := DownloadsHandler{
		Dao:     *services.Dao,
		Inline:  services.Inline,
		Volume:  services.Volume,
		Metrics: services.Metrics,
	}
	engine.GET("/download/:app_identifier/:platform/:version", dh.downloadVersion)
}

// downloadVersion streams a stored binary. The download counter is bumped
// before the first byte goes out, so an aborted transfer still counts.
func (dh *DownloadsHandler) downloadVersion(c echo.Context) error {
	appIdentifier := c.Param("app_identifier")
	platform := c.Param("platform")
	versionLabel := c.Param("version")

	if !config.ValidRequestPlatform(platform) {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error validating parameters", "Invalid platform: "+platform)
	}

	ctx := c.Request().Context()
	app, err := dh.Dao.Application.Fetch(ctx, appIdentifier)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not download version", err)
	}
	version, err := dh.Dao.Version.FetchActive(ctx, app.UUID, platform, versionLabel)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not download version", err)
	}

	locator := storage.Locator{Kind: version.StorageKind, Path: version.StoragePath}
	backend, err := storage.ForLocator(locator, dh.Inline, dh.Volume)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not download version", err)
	}
	content, err := backend.Read(ctx, locator, version.AppFile)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not download version", err)
	}
	if int64(len(content)) != version.FileSize {
		return ce.NewErrorResponseFromError("Could not download version", &ce.DaoError{
			Message: "stored size " + strconv.Itoa(len(content)) +
				" does not match recorded size " + strconv.FormatInt(version.FileSize, 10),
			Corrupted: true,
		})
	}

	if err = dh.Dao.Version.IncrementDownloadCount(ctx, version.UUID); err != nil {
		log.Warn().Err(err).Str("uuid", version.UUID).Msg("could not increment download count")
	}
	dh.Metrics.RecordDownload(platform)

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+version.FileName+`"`)
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(content)))
	return c.Blob(http.StatusOK, "application/octet-stream", content)
}

package handler

import (
	"context"
	"net/http"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/cache"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/notifications"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type VersionsHandler struct {
	Dao     dao.DaoRegistry
	Cache   cache.Cache
	Inline  *storage.InlineBlobStore
	Volume  *storage.VolumeFileStore
	Metrics *instrumentation.Metrics
}

func RegisterVersionRoutes(engine *echo.Group, services *Services) {
	vh := VersionsHandler{
		Dao:     *services.Dao,
		Cache:   services.Cache,
		Inline:  services.Inline,
		Volume:  services.Volume,
		Metrics: services.Metrics,
	}
	engine.POST("/version/check", vh.checkUpdate)
	engine.GET("/version/latest", vh.latestVersion)
	engine.GET("/versions", vh.listVersions)
	engine.PATCH("/versions/:app_identifier/:platform/:version", vh.updateVersionFlags)
	engine.DELETE("/versions/:app_identifier/:platform/:version", vh.deleteVersion)
}

// checkUpdate resolves whether the calling client should update. The
// decision is by version code; an unknown application is an error but an
// empty catalog is not.
func (vh *VersionsHandler) checkUpdate(c echo.Context) error {
	var request api.UpdateCheckRequest
	if err := c.Bind(&request); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error binding parameters", err.Error())
	}
	if request.AppIdentifier == "" || request.Platform == "" {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error validating parameters", "app_identifier and platform are required")
	}

	ctx := c.Request().Context()
	app, err := vh.Dao.Application.Fetch(ctx, request.AppIdentifier)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not check for updates", err)
	}

	response, err := vh.resolveLatest(c, app, request)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not check for updates", err)
	}

	if request.UserUUID != "" {
		go notifications.SendNotification(vh.Metrics, notifications.VersionDownloaded, notifications.VersionEvent{
			AppIdentifier: request.AppIdentifier,
			Version:       response.LatestVersion,
			Platform:      request.Platform,
			UserUUID:      request.UserUUID,
		})
	}

	return c.JSON(http.StatusOK, response)
}

// resolveLatest serves the latest-release fields from the cache when warm.
// The per-client fields are recomputed on every request.
func (vh *VersionsHandler) resolveLatest(c echo.Context, app models.Application, request api.UpdateCheckRequest) (api.UpdateCheckResponse, error) {
	ctx := c.Request().Context()

	cached, err := vh.Cache.GetLatestResolution(ctx, request.AppIdentifier, request.Platform)
	if err == nil && cached != nil {
		response := *cached
		response.CurrentVersionCode = request.CurrentVersionCode
		response.IsUpdateAvailable = response.LatestVersionCode != 0 &&
			response.LatestVersionCode != request.CurrentVersionCode
		return response, nil
	}
	if err != nil && err != cache.NotFound {
		log.Warn().Err(err).Msg("update-check cache read failed")
	}

	response, err := vh.Dao.Version.CheckUpdate(ctx, app, request.Platform, request.CurrentVersionCode)
	if err != nil {
		return api.UpdateCheckResponse{}, err
	}
	if setErr := vh.Cache.SetLatestResolution(ctx, request.AppIdentifier, request.Platform, response); setErr != nil {
		log.Warn().Err(setErr).Msg("update-check cache write failed")
	}
	return response, nil
}

func (vh *VersionsHandler) latestVersion(c echo.Context) error {
	appIdentifier := c.QueryParam("app_identifier")
	platform := c.QueryParam("platform")
	if appIdentifier == "" || platform == "" {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error validating parameters", "app_identifier and platform are required")
	}

	ctx := c.Request().Context()
	app, err := vh.Dao.Application.Fetch(ctx, appIdentifier)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not fetch latest version", err)
	}
	response, err := vh.Dao.Version.FetchLatest(ctx, app, platform)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not fetch latest version", err)
	}
	return c.JSON(http.StatusOK, response)
}

func (vh *VersionsHandler) listVersions(c echo.Context) error {
	var filter api.VersionFilterData
	if err := c.Bind(&filter); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error binding parameters", err.Error())
	}
	response, err := vh.Dao.Version.List(c.Request().Context(), filter)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not list versions", err)
	}
	return c.JSON(http.StatusOK, response)
}

func (vh *VersionsHandler) updateVersionFlags(c echo.Context) error {
	appIdentifier := c.Param("app_identifier")
	platform := c.Param("platform")
	versionLabel := c.Param("version")

	var request api.VersionUpdateRequest
	if err := c.Bind(&request); err != nil {
		return ce.NewErrorResponse(http.StatusBadRequest, "Error binding parameters", err.Error())
	}

	ctx := c.Request().Context()
	app, err := vh.Dao.Application.Fetch(ctx, appIdentifier)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not update version", err)
	}
	version, err := vh.Dao.Version.Fetch(ctx, app.UUID, platform, versionLabel)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not update version", err)
	}
	if err = vh.Dao.Version.UpdateFlags(ctx, version.UUID, request); err != nil {
		return ce.NewErrorResponseFromError("Could not update version", err)
	}

	vh.invalidateResolution(ctx, appIdentifier, version.Platform)
	go notifications.SendNotification(vh.Metrics, notifications.VersionFlagsSet, notifications.VersionEvent{
		AppIdentifier: appIdentifier,
		Version:       versionLabel,
		Platform:      version.Platform,
		VersionCode:   version.VersionCode,
	})

	return c.NoContent(http.StatusNoContent)
}

// deleteVersion removes the catalog row and its stored bytes for good.
// Deactivation via PATCH is the reversible alternative.
func (vh *VersionsHandler) deleteVersion(c echo.Context) error {
	appIdentifier := c.Param("app_identifier")
	platform := c.Param("platform")
	versionLabel := c.Param("version")

	ctx := c.Request().Context()
	app, err := vh.Dao.Application.Fetch(ctx, appIdentifier)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not delete version", err)
	}
	version, err := vh.Dao.Version.Fetch(ctx, app.UUID, platform, versionLabel)
	if err != nil {
		return ce.NewErrorResponseFromError("Could not delete version", err)
	}

	if err = vh.Dao.Version.Delete(ctx, version.UUID); err != nil {
		return ce.NewErrorResponseFromError("Could not delete version", err)
	}

	locator := storage.Locator{Kind: version.StorageKind, Path: version.StoragePath}
	backend, err := storage.ForLocator(locator, vh.Inline, vh.Volume)
	if err == nil {
		if err = backend.Delete(ctx, locator); err != nil {
			log.Warn().Err(err).Str("path", version.StoragePath).Msg("could not remove stored binary")
		}
	}

	vh.invalidateResolution(ctx, appIdentifier, version.Platform)
	go notifications.SendNotification(vh.Metrics, notifications.VersionDeleted, notifications.VersionEvent{
		AppIdentifier: appIdentifier,
		Version:       versionLabel,
		Platform:      version.Platform,
		VersionCode:   version.VersionCode,
	})

	return c.NoContent(http.StatusNoContent)
}

// invalidateResolution drops cached resolutions the changed row could have
// served. A row stored for "all" feeds every requestable platform.
func (vh *VersionsHandler) invalidateResolution(ctx context.Context, appIdentifier string, platform string) {
	platforms := []string{platform}
	if platform == config.PlatformAll {
		platforms = config.RequestablePlatforms[:]
	}
	for _, p := range platforms {
		if err := vh.Cache.DeleteLatestResolution(ctx, appIdentifier, p); err != nil {
			log.Warn().Err(err).Str("app", appIdentifier).Str("platform", p).Msg("could not invalidate cached resolution")
		}
	}
}

package handler

import (
	"net/http"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type StorageHandler struct {
	Dao         dao.DaoRegistry
	Volume      *storage.VolumeFileStore
	Coordinator *uploads.Coordinator
}

func RegisterStorageRoutes(engine *echo.Group, services *Services) {
	sh := StorageHandler{
		Dao:         *services.Dao,
		Volume:      services.Volume,
		Coordinator: services.Coordinator,
	}
	engine.GET("/storage/info", sh.storageInfo)
}

// storageInfo reports catalog aggregates plus what is actually sitting on
// the volume. A divergence between the two is how operators spot orphans.
func (sh *StorageHandler) storageInfo(c echo.Context) error {
	info, err := sh.Dao.Version.StorageInfo(c.Request().Context())
	if err != nil {
		return ce.NewErrorResponseFromError("Could not read storage info", err)
	}

	files, _, err := sh.Volume.Stats()
	if err != nil {
		log.Warn().Err(err).Msg("could not walk the storage volume")
	} else {
		info.VolumeFiles = files
	}
	info.ActiveSessions = sh.Coordinator.ActiveSessions()

	return c.JSON(http.StatusOK, info)
}

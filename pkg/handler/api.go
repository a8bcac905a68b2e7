package handler

import (
	"encoding/json"
	"net/http"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/cache"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/db"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/instrumentation"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/uploads"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func fullRootPath() string {
	return api.FullRootPath()
}

// Services bundles the collaborators every route group needs.
type Services struct {
	Dao         *dao.DaoRegistry
	Coordinator *uploads.Coordinator
	Cache       cache.Cache
	Inline      *storage.InlineBlobStore
	Volume      *storage.VolumeFileStore
	Metrics     *instrumentation.Metrics
}

// NewServices wires the default production collaborators.
func NewServices(metrics *instrumentation.Metrics) (*Services, error) {
	volume, err := storage.NewVolumeFileStore(config.Get().Storage.Path)
	if err != nil {
		return nil, err
	}
	daoReg := dao.GetDaoRegistry(db.DB)
	inline := storage.NewInlineBlobStore()
	return &Services{
		Dao:         daoReg,
		Coordinator: uploads.NewCoordinator(daoReg, inline, volume),
		Cache:       cache.Initialize(),
		Inline:      inline,
		Volume:      volume,
		Metrics:     metrics,
	}, nil
}

func RegisterRoutes(engine *echo.Echo, services *Services) {
	group := engine.Group(fullRootPath())
	group.GET("/ping", ping)
	group.GET("/health", health)

	RegisterVersionRoutes(group, services)
	RegisterUploadRoutes(group, services)
	RegisterDownloadRoutes(group, services)
	RegisterStorageRoutes(group, services)

	data, err := json.MarshalIndent(engine.Routes(), "", "  ")
	if err == nil {
		log.Debug().Msg(string(data))
	}
}

func RegisterPing(engine *echo.Echo) {
	engine.GET("/ping", ping)
	engine.GET("/ping/", ping)
	engine.GET("/health", health)
}

func ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "pong",
	})
}

func health(c echo.Context) error {
	status := "healthy"
	code := http.StatusOK
	if db.DB == nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	} else if sqlDb, err := db.DB.DB(); err != nil || sqlDb.Ping() != nil {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, echo.Map{
		"status":  status,
		"version": api.ApiVersion,
	})
}

package dao

import (
	"context"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"gorm.io/gorm"
)

type DaoRegistry struct {
	Application ApplicationDao
	Version     VersionDao
}

func GetDaoRegistry(db *gorm.DB) *DaoRegistry {
	reg := DaoRegistry{
		Application: applicationDaoImpl{db: db},
		Version:     versionDaoImpl{db: db},
	}
	return &reg
}

// ApplicationDao is the read-only view of the app registry the version API
// consumes. Registration CRUD lives in the admin tooling.
type ApplicationDao interface {
	Fetch(ctx context.Context, identifier string) (models.Application, error)
	SupportedPlatforms(ctx context.Context, identifier string) ([]string, error)
}

type VersionDao interface {
	Create(ctx context.Context, version *models.Version) error
	CheckUpdate(ctx context.Context, app models.Application, platform string, clientVersionCode int64) (api.UpdateCheckResponse, error)
	FetchLatest(ctx context.Context, app models.Application, platform string) (api.VersionResponse, error)
	Fetch(ctx context.Context, appUUID string, platform string, version string) (models.Version, error)
	FetchActive(ctx context.Context, appUUID string, platform string, version string) (models.Version, error)
	List(ctx context.Context, filter api.VersionFilterData) (api.VersionCollectionResponse, error)
	UpdateFlags(ctx context.Context, uuid string, request api.VersionUpdateRequest) error
	IncrementDownloadCount(ctx context.Context, uuid string) error
	Delete(ctx context.Context, uuid string) error
	StorageInfo(ctx context.Context) (api.StorageInfoResponse, error)
}

package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type versionDaoImpl struct {
	db *gorm.DB
}

func GetVersionDao(db *gorm.DB) VersionDao {
	return versionDaoImpl{db: db}
}

// Create inserts a version row, replacing a previous upload of the same
// (application, platform, version) tuple. The binary or its locator must
// already be in place; metadata lands last.
func (v versionDaoImpl) Create(ctx context.Context, version *models.Version) error {
	result := v.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "application_uuid"}, {Name: "platform"}, {Name: "version"}},
			UpdateAll: true,
		}).
		Create(version)
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			// The app/platform/version conflict is absorbed above, so this
			// can only be a duplicate version code.
			return &ce.DaoError{
				Message:       fmt.Sprintf("Version code %d already exists for this application and platform", version.VersionCode),
				BadValidation: true,
				Err:           result.Error,
			}
		}
		if dbError, ok := result.Error.(models.Error); ok {
			return &ce.DaoError{Message: dbError.Message, BadValidation: dbError.Validation, Err: result.Error}
		}
		return &ce.DaoError{Message: "error creating version", Err: result.Error}
	}
	return nil
}

// latestQuery scopes to the newest active row visible to a platform. A row
// stored with platform "all" applies to every requested platform.
func (v versionDaoImpl) latestQuery(ctx context.Context, appUUID string, platform string) *gorm.DB {
	return v.db.WithContext(ctx).
		Model(models.Version{}).
		Where("application_uuid = ?", appUUID).
		Where("platform IN (?, ?)", platform, config.PlatformAll).
		Where("is_active = ?", true).
		Order("version_code DESC")
}

// CheckUpdate resolves the update decision for a client. Version codes are
// compared, never the dotted strings. No stored version is not an error.
func (v versionDaoImpl) CheckUpdate(ctx context.Context, app models.Application, platform string, clientVersionCode int64) (api.UpdateCheckResponse, error) {
	if !config.ValidRequestPlatform(platform) {
		return api.UpdateCheckResponse{}, &ce.DaoError{
			Message:       "Invalid platform: " + platform,
			BadValidation: true,
		}
	}

	var latest models.Version
	result := v.latestQuery(ctx, app.UUID, platform).First(&latest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return api.UpdateCheckResponse{
				CurrentVersionCode: clientVersionCode,
				IsUpdateAvailable:  false,
			}, nil
		}
		return api.UpdateCheckResponse{}, &ce.DaoError{Message: "error resolving latest version", Err: result.Error}
	}

	response := api.UpdateCheckResponse{
		CurrentVersionCode: clientVersionCode,
		IsUpdateAvailable:  latest.VersionCode != clientVersionCode,
		LatestVersion:      latest.Version,
		LatestVersionCode:  latest.VersionCode,
		IsMandatory:        latest.IsMandatory,
		DownloadUrl:        fmt.Sprintf("/api/v2/download/%s/%s/%s", app.Identifier, platform, latest.Version),
		FileSize:           latest.FileSize,
		Changelog:          []string(latest.Changelog),
	}
	if latest.ReleaseDate != nil {
		response.ReleaseDate = latest.ReleaseDate.Format(time.RFC3339)
	}
	return response, nil
}

func (v versionDaoImpl) FetchLatest(ctx context.Context, app models.Application, platform string) (api.VersionResponse, error) {
	if !config.ValidRequestPlatform(platform) {
		return api.VersionResponse{}, &ce.DaoError{
			Message:       "Invalid platform: " + platform,
			BadValidation: true,
		}
	}

	var latest models.Version
	result := v.latestQuery(ctx, app.UUID, platform).First(&latest)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return api.VersionResponse{}, &ce.DaoError{
				Message:  "No active version for application " + app.Identifier,
				NotFound: true,
			}
		}
		return api.VersionResponse{}, &ce.DaoError{Message: "error resolving latest version", Err: result.Error}
	}
	return versionToResponse(latest, app.Identifier), nil
}

func (v versionDaoImpl) Fetch(ctx context.Context, appUUID string, platform string, version string) (models.Version, error) {
	return v.fetch(ctx, appUUID, platform, version, false)
}

func (v versionDaoImpl) FetchActive(ctx context.Context, appUUID string, platform string, version string) (models.Version, error) {
	return v.fetch(ctx, appUUID, platform, version, true)
}

func (v versionDaoImpl) fetch(ctx context.Context, appUUID string, platform string, version string, activeOnly bool) (models.Version, error) {
	var found models.Version
	query := v.db.WithContext(ctx).
		Where("application_uuid = ?", appUUID).
		Where("platform IN (?, ?)", platform, config.PlatformAll).
		Where("version = ?", version)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	// Exact platform rows sort before "all" rows.
	result := query.Order("platform = '" + config.PlatformAll + "'").First(&found)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.Version{}, &ce.DaoError{
				Message:  fmt.Sprintf("Could not find version %v for platform %v", version, platform),
				NotFound: true,
			}
		}
		return models.Version{}, &ce.DaoError{Message: "error fetching version", Err: result.Error}
	}
	return found, nil
}

func (v versionDaoImpl) List(ctx context.Context, filter api.VersionFilterData) (api.VersionCollectionResponse, error) {
	type versionRow struct {
		models.Version
		AppIdentifier string
	}
	var rows []versionRow

	query := v.db.WithContext(ctx).
		Model(models.Version{}).
		Select("versions.*, applications.identifier AS app_identifier").
		Joins("JOIN applications ON applications.uuid = versions.application_uuid")

	if filter.AppIdentifier != "" {
		query = query.Where("applications.identifier = ?", filter.AppIdentifier)
	}
	if filter.Platform != "" {
		query = query.Where("versions.platform = ?", filter.Platform)
	}
	if filter.IsActive != "" {
		query = query.Where("versions.is_active = ?", filter.IsActive == "true")
	}

	result := query.Order("versions.created_at DESC").Find(&rows)
	if result.Error != nil {
		return api.VersionCollectionResponse{}, &ce.DaoError{Message: "error listing versions", Err: result.Error}
	}

	versions := make([]api.VersionResponse, len(rows))
	for i := range rows {
		versions[i] = versionToResponse(rows[i].Version, rows[i].AppIdentifier)
	}
	return api.VersionCollectionResponse{Versions: versions}, nil
}

func (v versionDaoImpl) UpdateFlags(ctx context.Context, uuid string, request api.VersionUpdateRequest) error {
	forUpdate := make(map[string]interface{})
	if request.IsActive != nil {
		forUpdate["is_active"] = *request.IsActive
	}
	if request.IsMandatory != nil {
		forUpdate["is_mandatory"] = *request.IsMandatory
	}
	if len(forUpdate) == 0 {
		return &ce.DaoError{Message: "Nothing to update.", BadValidation: true}
	}

	result := v.db.WithContext(ctx).
		Model(models.Version{}).
		Where("uuid = ?", UuidifyString(uuid)).
		Updates(forUpdate)
	if result.Error != nil {
		return &ce.DaoError{Message: "error updating version flags", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &ce.DaoError{Message: "Could not find version with UUID " + uuid, NotFound: true}
	}
	return nil
}

// IncrementDownloadCount bumps the counter before streaming starts, so an
// aborted download still counts as an attempt.
func (v versionDaoImpl) IncrementDownloadCount(ctx context.Context, uuid string) error {
	result := v.db.WithContext(ctx).
		Model(models.Version{}).
		Where("uuid = ?", UuidifyString(uuid)).
		Update("download_count", gorm.Expr("download_count + 1"))
	if result.Error != nil {
		return &ce.DaoError{Message: "error incrementing download count", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &ce.DaoError{Message: "Could not find version with UUID " + uuid, NotFound: true}
	}
	return nil
}

// Delete removes the row for good. The caller is responsible for removing
// the stored bytes first; this is the irreversible administrative path.
func (v versionDaoImpl) Delete(ctx context.Context, uuid string) error {
	result := v.db.WithContext(ctx).
		Where("uuid = ?", UuidifyString(uuid)).
		Delete(models.Version{})
	if result.Error != nil {
		return &ce.DaoError{Message: "error deleting version", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &ce.DaoError{Message: "Could not find version with UUID " + uuid, NotFound: true}
	}
	return nil
}

func (v versionDaoImpl) StorageInfo(ctx context.Context) (api.StorageInfoResponse, error) {
	type storageAgg struct {
		StorageKind string
		Count       int64
		Bytes       int64
		Downloads   int64
	}
	var aggs []storageAgg

	result := v.db.WithContext(ctx).
		Model(models.Version{}).
		Select("storage_kind, COUNT(*) AS count, COALESCE(SUM(file_size), 0) AS bytes, COALESCE(SUM(download_count), 0) AS downloads").
		Group("storage_kind").
		Find(&aggs)
	if result.Error != nil {
		return api.StorageInfoResponse{}, &ce.DaoError{Message: "error aggregating storage info", Err: result.Error}
	}

	var info api.StorageInfoResponse
	for _, agg := range aggs {
		info.TotalVersions += agg.Count
		info.TotalDownloads += agg.Downloads
		switch agg.StorageKind {
		case models.StorageInline:
			info.InlineVersions = agg.Count
			info.InlineBytes = agg.Bytes
		case models.StorageVolume:
			info.VolumeVersions = agg.Count
			info.VolumeBytes = agg.Bytes
		}
	}
	info.TotalSizeMb = float64(info.InlineBytes+info.VolumeBytes) / (1024 * 1024)
	return info, nil
}

func versionToResponse(version models.Version, appIdentifier string) api.VersionResponse {
	response := api.VersionResponse{
		UUID:          version.UUID,
		AppIdentifier: appIdentifier,
		Version:       version.Version,
		Platform:      version.Platform,
		VersionCode:   version.VersionCode,
		FileName:      version.FileName,
		FileSize:      version.FileSize,
		FileHash:      version.FileHash,
		Changelog:     []string(version.Changelog),
		IsActive:      version.IsActive,
		IsMandatory:   version.IsMandatory,
		DownloadCount: version.DownloadCount,
		StorageKind:   version.StorageKind,
		CreatedAt:     version.CreatedAt.Format(time.RFC3339),
	}
	if version.ReleaseDate != nil {
		response.ReleaseDate = version.ReleaseDate.Format(time.RFC3339)
	}
	return response
}

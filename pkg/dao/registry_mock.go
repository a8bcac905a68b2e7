package dao

import (
	"context"
	"testing"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/stretchr/testify/mock"
)

type MockDaoRegistry struct {
	Application MockApplicationDao
	Version     MockVersionDao
}

func (m *MockDaoRegistry) ToDaoRegistry() *DaoRegistry {
	r := DaoRegistry{
		Application: &m.Application,
		Version:     &m.Version,
	}
	return &r
}

func GetMockDaoRegistry(t *testing.T) *MockDaoRegistry {
	reg := MockDaoRegistry{
		Application: MockApplicationDao{},
		Version:     MockVersionDao{},
	}
	t.Cleanup(func() {
		reg.Application.AssertExpectations(t)
		reg.Version.AssertExpectations(t)
	})
	return &reg
}

type MockApplicationDao struct {
	mock.Mock
}

func (m *MockApplicationDao) Fetch(ctx context.Context, identifier string) (models.Application, error) {
	args := m.Called(ctx, identifier)
	app, ok := args.Get(0).(models.Application)
	if ok {
		return app, args.Error(1)
	}
	return models.Application{}, args.Error(1)
}

func (m *MockApplicationDao) SupportedPlatforms(ctx context.Context, identifier string) ([]string, error) {
	args := m.Called(ctx, identifier)
	platforms, ok := args.Get(0).([]string)
	if ok {
		return platforms, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockVersionDao struct {
	mock.Mock
}

func (m *MockVersionDao) Create(ctx context.Context, version *models.Version) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockVersionDao) CheckUpdate(ctx context.Context, app models.Application, platform string, clientVersionCode int64) (api.UpdateCheckResponse, error) {
	args := m.Called(ctx, app, platform, clientVersionCode)
	response, ok := args.Get(0).(api.UpdateCheckResponse)
	if ok {
		return response, args.Error(1)
	}
	return api.UpdateCheckResponse{}, args.Error(1)
}

func (m *MockVersionDao) FetchLatest(ctx context.Context, app models.Application, platform string) (api.VersionResponse, error) {
	args := m.Called(ctx, app, platform)
	response, ok := args.Get(0).(api.VersionResponse)
	if ok {
		return response, args.Error(1)
	}
	return api.VersionResponse{}, args.Error(1)
}

func (m *MockVersionDao) Fetch(ctx context.Context, appUUID string, platform string, version string) (models.Version, error) {
	args := m.Called(ctx, appUUID, platform, version)
	found, ok := args.Get(0).(models.Version)
	if ok {
		return found, args.Error(1)
	}
	return models.Version{}, args.Error(1)
}

func (m *MockVersionDao) FetchActive(ctx context.Context, appUUID string, platform string, version string) (models.Version, error) {
	args := m.Called(ctx, appUUID, platform, version)
	found, ok := args.Get(0).(models.Version)
	if ok {
		return found, args.Error(1)
	}
	return models.Version{}, args.Error(1)
}

func (m *MockVersionDao) List(ctx context.Context, filter api.VersionFilterData) (api.VersionCollectionResponse, error) {
	args := m.Called(ctx, filter)
	response, ok := args.Get(0).(api.VersionCollectionResponse)
	if ok {
		return response, args.Error(1)
	}
	return api.VersionCollectionResponse{}, args.Error(1)
}

func (m *MockVersionDao) UpdateFlags(ctx context.Context, uuid string, request api.VersionUpdateRequest) error {
	args := m.Called(ctx, uuid, request)
	return args.Error(0)
}

func (m *MockVersionDao) IncrementDownloadCount(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}

func (m *MockVersionDao) Delete(ctx context.Context, uuid string) error {
	args := m.Called(ctx, uuid)
	return args.Error(0)
}

func (m *MockVersionDao) StorageInfo(ctx context.Context) (api.StorageInfoResponse, error) {
	args := m.Called(ctx)
	response, ok := args.Get(0).(api.StorageInfoResponse)
	if ok {
		return response, args.Error(1)
	}
	return api.StorageInfoResponse{}, args.Error(1)
}

package uploads

import (
	"context"
	"strconv"
	"testing"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CoordinatorSuite struct {
	suite.Suite

	mockDao     *dao.MockDaoRegistry
	coordinator *Coordinator
	volume      *storage.VolumeFileStore
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, &CoordinatorSuite{})
}

func (s *CoordinatorSuite) SetupSuite() {
	config.Load()
}

func (s *CoordinatorSuite) SetupTest() {
	t := s.T()
	volume, err := storage.NewVolumeFileStore(t.TempDir())
	require.NoError(t, err)
	s.volume = volume
	s.mockDao = dao.GetMockDaoRegistry(t)
	s.coordinator = NewCoordinator(s.mockDao.ToDaoRegistry(), storage.NewInlineBlobStore(), volume)
}

func testApp() models.Application {
	return models.Application{
		Base:            models.Base{UUID: "c176b229-6f87-47bb-abbc-1bb80f97c6a1"},
		Identifier:      "com.example.app",
		Name:            "Example App",
		PlatformSupport: pq.StringArray{"android", "ios", "all"},
	}
}

func uploadRequest() api.UploadRequest {
	return api.UploadRequest{
		AppIdentifier: "com.example.app",
		Version:       "2.1.0",
		Platform:      config.PlatformAndroid,
		VersionCode:   21,
		Changelog:     `["Fixed crash on startup","New login flow"]`,
	}
}

func (s *CoordinatorSuite) TestUploadSingleInline() {
	t := s.T()
	content := []byte("small binary")

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)
	s.mockDao.Version.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Version) bool {
		return v.StorageKind == models.StorageInline &&
			len(v.AppFile) == len(content) &&
			v.VersionCode == 21 &&
			len(v.Changelog) == 2
	})).Return(nil)

	response, err := s.coordinator.UploadSingle(context.Background(), uploadRequest(), "app-2.1.0.apk", content)
	assert.NoError(t, err)
	assert.Equal(t, models.StorageInline, response.StorageKind)
	assert.Equal(t, int64(len(content)), response.FileSize)
	assert.Equal(t, storage.Digest(content), response.FileHash)
}

func (s *CoordinatorSuite) TestUploadSingleVolumeWhenForced() {
	t := s.T()
	t.Setenv("OPTIONS_FORCE_VOLUME_STORAGE", "true")
	config.Load()
	defer func() {
		t.Setenv("OPTIONS_FORCE_VOLUME_STORAGE", "false")
		config.Load()
	}()

	content := []byte("binary routed to the volume")
	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)
	s.mockDao.Version.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Version) bool {
		return v.StorageKind == models.StorageVolume && v.StoragePath != "" && len(v.AppFile) == 0
	})).Return(nil)

	response, err := s.coordinator.UploadSingle(context.Background(), uploadRequest(), "app-2.1.0.apk", content)
	assert.NoError(t, err)
	assert.Equal(t, models.StorageVolume, response.StorageKind)
}

func (s *CoordinatorSuite) TestBackendSelectionBoundary() {
	t := s.T()
	t.Setenv("OPTIONS_INLINE_STORAGE_LIMIT", "1024")
	config.Load()
	defer func() {
		t.Setenv("OPTIONS_INLINE_STORAGE_LIMIT", strconv.FormatInt(config.DefaultInlineStorageLimit, 10))
		config.Load()
	}()

	_, kind := s.coordinator.chooseBackend(1023)
	assert.Equal(t, models.StorageInline, kind)
	_, kind = s.coordinator.chooseBackend(1024)
	assert.Equal(t, models.StorageInline, kind)
	_, kind = s.coordinator.chooseBackend(1025)
	assert.Equal(t, models.StorageVolume, kind)
}

func (s *CoordinatorSuite) TestUploadSingleWrongExtension() {
	t := s.T()

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)

	_, err := s.coordinator.UploadSingle(context.Background(), uploadRequest(), "app-2.1.0.ipa", []byte("x"))
	require.Error(t, err)
	daoError, ok := err.(*ce.DaoError)
	assert.True(t, ok)
	assert.True(t, daoError.BadValidation)
}

func (s *CoordinatorSuite) TestUploadSingleUnsupportedPlatform() {
	t := s.T()

	app := testApp()
	app.PlatformSupport = pq.StringArray{"ios"}
	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(app, nil)

	_, err := s.coordinator.UploadSingle(context.Background(), uploadRequest(), "app-2.1.0.apk", []byte("x"))
	require.Error(t, err)
	daoError, ok := err.(*ce.DaoError)
	assert.True(t, ok)
	assert.True(t, daoError.BadValidation)
}

func (s *CoordinatorSuite) TestUploadSingleUnknownApp() {
	t := s.T()

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").
		Return(models.Application{}, &ce.DaoError{Message: "not found", NotFound: true})

	_, err := s.coordinator.UploadSingle(context.Background(), uploadRequest(), "app-2.1.0.apk", []byte("x"))
	require.Error(t, err)
	daoError, ok := err.(*ce.DaoError)
	assert.True(t, ok)
	assert.True(t, daoError.NotFound)
}

func (s *CoordinatorSuite) TestUploadSingleRetriesTransientErrors() {
	t := s.T()
	content := []byte("retried binary")

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)
	s.mockDao.Version.On("Create", mock.Anything, mock.Anything).
		Twice().Return(&ce.DaoError{Message: "connection reset"})
	s.mockDao.Version.On("Create", mock.Anything, mock.Anything).
		Once().Return(nil)

	_, err := s.coordinator.UploadSingle(context.Background(), uploadRequest(), "app-2.1.0.apk", content)
	assert.NoError(t, err)
	s.mockDao.Version.AssertNumberOfCalls(t, "Create", 3)
}

func (s *CoordinatorSuite) TestUploadSingleDoesNotRetryValidationErrors() {
	t := s.T()

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)
	s.mockDao.Version.On("Create", mock.Anything, mock.Anything).
		Once().Return(&ce.DaoError{Message: "duplicate version code", BadValidation: true})

	_, err := s.coordinator.UploadSingle(context.Background(), uploadRequest(), "app-2.1.0.apk", []byte("x"))
	require.Error(t, err)
	s.mockDao.Version.AssertNumberOfCalls(t, "Create", 1)
}

func (s *CoordinatorSuite) TestStartChunked() {
	t := s.T()

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)

	response, err := s.coordinator.StartChunked(context.Background(), api.StartChunkedUploadRequest{
		AppIdentifier: "com.example.app",
		Version:       "2.1.0",
		Platform:      config.PlatformAndroid,
		VersionCode:   21,
		FileSize:      12_000_000,
		FileName:      "app-2.1.0.apk",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, response.UploadID)
	assert.Equal(t, int64(config.UploadChunkSize), response.ChunkSize)
	assert.Equal(t, 3, response.TotalChunks)
	assert.Equal(t, 1, s.coordinator.ActiveSessions())
}

func (s *CoordinatorSuite) TestChunkedRoundTrip() {
	t := s.T()
	content := []byte("chunked binary content")

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)
	s.mockDao.Version.On("Create", mock.Anything, mock.MatchedBy(func(v *models.Version) bool {
		return v.FileHash == storage.Digest(content) && v.FileSize == int64(len(content))
	})).Return(nil)

	started, err := s.coordinator.StartChunked(context.Background(), api.StartChunkedUploadRequest{
		AppIdentifier: "com.example.app",
		Version:       "2.1.0",
		Platform:      config.PlatformAndroid,
		VersionCode:   21,
		FileSize:      int64(len(content)),
		FileName:      "app-2.1.0.apk",
	})
	require.NoError(t, err)
	require.Equal(t, 1, started.TotalChunks)

	ack, err := s.coordinator.PutChunk(context.Background(), started.UploadID, 0, content)
	assert.NoError(t, err)
	assert.True(t, ack.Received)
	assert.Equal(t, int64(len(content)), ack.Size)

	response, err := s.coordinator.CompleteChunked(context.Background(), started.UploadID)
	assert.NoError(t, err)
	assert.Equal(t, storage.Digest(content), response.FileHash)
	assert.Equal(t, 0, s.coordinator.ActiveSessions())
}

func (s *CoordinatorSuite) TestCompleteWithMissingChunks() {
	t := s.T()

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)

	started, err := s.coordinator.StartChunked(context.Background(), api.StartChunkedUploadRequest{
		AppIdentifier: "com.example.app",
		Version:       "2.1.0",
		Platform:      config.PlatformAndroid,
		VersionCode:   21,
		FileSize:      12_000_000,
		FileName:      "app-2.1.0.apk",
	})
	require.NoError(t, err)

	_, err = s.coordinator.PutChunk(context.Background(), started.UploadID, 1, []byte("middle"))
	require.NoError(t, err)

	_, err = s.coordinator.CompleteChunked(context.Background(), started.UploadID)
	require.Error(t, err)
	missingError := &MissingChunksError{}
	require.ErrorAs(t, err, &missingError)
	assert.Equal(t, []int{0, 2}, missingError.Missing)
	assert.Equal(t, 1, s.coordinator.ActiveSessions())
}

func (s *CoordinatorSuite) TestCompleteSizeMismatchIsCorruption() {
	t := s.T()

	s.mockDao.Application.On("Fetch", mock.Anything, "com.example.app").Return(testApp(), nil)

	started, err := s.coordinator.StartChunked(context.Background(), api.StartChunkedUploadRequest{
		AppIdentifier: "com.example.app",
		Version:       "2.1.0",
		Platform:      config.PlatformAndroid,
		VersionCode:   21,
		FileSize:      10,
		FileName:      "app-2.1.0.apk",
	})
	require.NoError(t, err)

	_, err = s.coordinator.PutChunk(context.Background(), started.UploadID, 0, []byte("short"))
	require.NoError(t, err)

	_, err = s.coordinator.CompleteChunked(context.Background(), started.UploadID)
	require.Error(t, err)
	daoError, ok := err.(*ce.DaoError)
	assert.True(t, ok)
	assert.True(t, daoError.Corrupted)
}

func (s *CoordinatorSuite) TestCompleteUnknownSession() {
	t := s.T()

	_, err := s.coordinator.CompleteChunked(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func (s *CoordinatorSuite) TestParseChangelog() {
	t := s.T()

	assert.Nil(t, parseChangelog(""))
	assert.Equal(t, pq.StringArray{"one", "two"}, parseChangelog(`["one","two"]`))
	assert.Equal(t, pq.StringArray{"plain text note"}, parseChangelog("plain text note"))
}

package uploads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/dao"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

var (
	ErrSessionNotFound = errors.New("upload session not found")
	ErrSessionExpired  = errors.New("upload session expired")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
)

// MissingChunksError reports a Complete call issued before every chunk
// arrived.
type MissingChunksError struct {
	Missing []int
}

func (e *MissingChunksError) Error() string {
	return fmt.Sprintf("upload incomplete, %d chunks missing", len(e.Missing))
}

// createAttempts bounds the metadata insert retries after the binary has
// already been stored.
const createAttempts = 3

// Coordinator runs uploads end to end: validation, storage backend
// selection, digesting, and metadata persistence. The binary is stored
// before the metadata row so a failed insert never leaves a dangling
// catalog entry.
type Coordinator struct {
	daoReg   *dao.DaoRegistry
	inline   storage.Backend
	volume   storage.Backend
	registry *Registry
}

func NewCoordinator(daoReg *dao.DaoRegistry, inline storage.Backend, volume storage.Backend) *Coordinator {
	return &Coordinator{
		daoReg:   daoReg,
		inline:   inline,
		volume:   volume,
		registry: NewRegistry(),
	}
}

func (c *Coordinator) ActiveSessions() int {
	return c.registry.Len()
}

// SessionAppIdentifier reports which application a live session belongs to.
func (c *Coordinator) SessionAppIdentifier(uploadID string) (string, error) {
	session, err := c.registry.Get(uploadID)
	if err != nil {
		return "", err
	}
	return session.Request.AppIdentifier, nil
}

func (c *Coordinator) SweepStaleSessions() {
	c.registry.SweepStale(time.Now())
}

// UploadSingle persists a binary delivered whole in one multipart request.
func (c *Coordinator) UploadSingle(ctx context.Context, request api.UploadRequest, fileName string, content []byte) (api.UploadResponse, error) {
	app, err := c.validateUpload(ctx, request.AppIdentifier, request.Platform, fileName, int64(len(content)))
	if err != nil {
		return api.UploadResponse{}, err
	}
	return c.persist(ctx, app, versionMeta{
		Version:     request.Version,
		Platform:    request.Platform,
		VersionCode: request.VersionCode,
		IsMandatory: request.IsMandatory,
		Changelog:   request.Changelog,
		FileName:    fileName,
	}, content)
}

// StartChunked opens an upload session and hands back the chunking
// parameters the client must follow.
func (c *Coordinator) StartChunked(ctx context.Context, request api.StartChunkedUploadRequest) (api.StartChunkedUploadResponse, error) {
	if request.FileSize <= 0 {
		return api.StartChunkedUploadResponse{}, &ce.DaoError{Message: "file_size must be positive", BadValidation: true}
	}
	_, err := c.validateUpload(ctx, request.AppIdentifier, request.Platform, request.FileName, request.FileSize)
	if err != nil {
		return api.StartChunkedUploadResponse{}, err
	}

	totalChunks := int((request.FileSize + config.UploadChunkSize - 1) / config.UploadChunkSize)
	session := c.registry.Start(request, totalChunks)
	log.Info().
		Str("upload_id", session.ID).
		Str("app", request.AppIdentifier).
		Int64("file_size", request.FileSize).
		Int("total_chunks", totalChunks).
		Msg("chunked upload started")

	return api.StartChunkedUploadResponse{
		UploadID:    session.ID,
		ChunkSize:   config.UploadChunkSize,
		TotalChunks: totalChunks,
	}, nil
}

// PutChunk stores one chunk of an open session.
func (c *Coordinator) PutChunk(ctx context.Context, uploadID string, chunkNumber int, content []byte) (api.ChunkAckResponse, error) {
	session, err := c.registry.Get(uploadID)
	if err != nil {
		return api.ChunkAckResponse{}, err
	}
	if err := session.PutChunk(chunkNumber, content); err != nil {
		return api.ChunkAckResponse{}, &ce.DaoError{Message: err.Error(), BadValidation: true}
	}
	return api.ChunkAckResponse{
		ChunkNumber: chunkNumber,
		Size:        int64(len(content)),
		Received:    true,
	}, nil
}

// CompleteChunked reassembles the session and persists the binary. The
// session is discarded only after the version row is in place, so a failed
// completion can be retried.
func (c *Coordinator) CompleteChunked(ctx context.Context, uploadID string) (api.UploadResponse, error) {
	session, err := c.registry.Get(uploadID)
	if err != nil {
		return api.UploadResponse{}, err
	}
	if missing := session.MissingChunks(); len(missing) > 0 {
		return api.UploadResponse{}, &MissingChunksError{Missing: missing}
	}

	content := session.Assemble()
	if int64(len(content)) != session.Request.FileSize {
		return api.UploadResponse{}, &ce.DaoError{
			Message: fmt.Sprintf("reassembled size %d does not match declared size %d",
				len(content), session.Request.FileSize),
			Corrupted: true,
		}
	}

	app, err := c.daoReg.Application.Fetch(ctx, session.Request.AppIdentifier)
	if err != nil {
		return api.UploadResponse{}, err
	}
	response, err := c.persist(ctx, app, versionMeta{
		Version:     session.Request.Version,
		Platform:    session.Request.Platform,
		VersionCode: session.Request.VersionCode,
		IsMandatory: session.Request.IsMandatory,
		Changelog:   session.Request.Changelog,
		FileName:    session.Request.FileName,
	}, content)
	if err != nil {
		return api.UploadResponse{}, err
	}
	c.registry.Remove(uploadID)
	return response, nil
}

type versionMeta struct {
	Version     string
	Platform    string
	VersionCode int64
	IsMandatory bool
	Changelog   string
	FileName    string
}

func (c *Coordinator) validateUpload(ctx context.Context, appIdentifier string, platform string, fileName string, size int64) (models.Application, error) {
	app, err := c.daoReg.Application.Fetch(ctx, appIdentifier)
	if err != nil {
		return models.Application{}, err
	}
	if !config.ValidStoragePlatform(platform) {
		return models.Application{}, &ce.DaoError{Message: "Invalid platform: " + platform, BadValidation: true}
	}
	if !app.SupportsPlatform(platform) {
		return models.Application{}, &ce.DaoError{
			Message:       fmt.Sprintf("Application %s does not support platform %s", appIdentifier, platform),
			BadValidation: true,
		}
	}
	if extension := config.ExtensionForPlatform(platform); extension != "" {
		if !strings.HasSuffix(strings.ToLower(fileName), extension) {
			return models.Application{}, &ce.DaoError{
				Message:       fmt.Sprintf("Platform %s requires a %s file", platform, extension),
				BadValidation: true,
			}
		}
	}
	if size > config.Get().Options.MaxUploadBytes {
		return models.Application{}, ErrFileTooLarge
	}
	return app, nil
}

// persist writes the binary first and the metadata row last.
func (c *Coordinator) persist(ctx context.Context, app models.Application, meta versionMeta, content []byte) (api.UploadResponse, error) {
	digest := storage.Digest(content)
	backend, kind := c.chooseBackend(int64(len(content)))

	locator, err := backend.Save(ctx, storage.Key{
		ApplicationUUID: app.UUID,
		Platform:        meta.Platform,
		Version:         meta.Version,
		FileName:        meta.FileName,
	}, content)
	if err != nil {
		return api.UploadResponse{}, err
	}

	now := time.Now()
	version := models.Version{
		ApplicationUUID: app.UUID,
		Version:         meta.Version,
		Platform:        meta.Platform,
		VersionCode:     meta.VersionCode,
		FileName:        meta.FileName,
		FileSize:        int64(len(content)),
		FileHash:        digest,
		Changelog:       parseChangelog(meta.Changelog),
		IsActive:        true,
		IsMandatory:     meta.IsMandatory,
		ReleaseDate:     &now,
		StorageKind:     kind,
		StoragePath:     locator.Path,
	}
	if kind == models.StorageInline {
		version.AppFile = content
	}

	if err := c.createWithRetry(ctx, &version); err != nil {
		if kind == models.StorageVolume {
			if deleteErr := backend.Delete(ctx, locator); deleteErr != nil {
				log.Warn().Err(deleteErr).Str("path", locator.Path).Msg("could not remove orphaned binary")
			}
		}
		return api.UploadResponse{}, err
	}

	log.Info().
		Str("app", app.Identifier).
		Str("version", meta.Version).
		Str("platform", meta.Platform).
		Str("storage_kind", kind).
		Int("file_size", len(content)).
		Msg("version uploaded")

	return api.UploadResponse{
		VersionUUID: version.UUID,
		Version:     version.Version,
		Platform:    version.Platform,
		FileSize:    version.FileSize,
		FileHash:    version.FileHash,
		StorageKind: version.StorageKind,
	}, nil
}

func (c *Coordinator) chooseBackend(size int64) (storage.Backend, string) {
	options := config.Get().Options
	if options.ForceVolumeStorage || size > options.InlineStorageLimit {
		return c.volume, models.StorageVolume
	}
	return c.inline, models.StorageInline
}

func (c *Coordinator) createWithRetry(ctx context.Context, version *models.Version) error {
	var err error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		err = c.daoReg.Version.Create(ctx, version)
		if err == nil {
			return nil
		}
		daoError := &ce.DaoError{}
		if errors.As(err, &daoError) && daoError.BadValidation {
			return err
		}
		if attempt < createAttempts {
			log.Warn().Err(err).Int("attempt", attempt).Msg("retrying version insert")
		}
	}
	return err
}

// parseChangelog accepts either a JSON string array or plain text.
func parseChangelog(raw string) pq.StringArray {
	if raw == "" {
		return nil
	}
	var entries []string
	if err := json.Unmarshal([]byte(raw), &entries); err == nil {
		return pq.StringArray(entries)
	}
	return pq.StringArray{raw}
}

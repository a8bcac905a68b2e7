package seeds

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type SeedOptions struct {
	Platform    string
	IsActive    *bool
	IsMandatory *bool
	StorageKind string
}

// SeedApplication creates one registered application with the given
// identifier, supporting every storable platform.
func SeedApplication(db *gorm.DB, identifier string) (models.Application, error) {
	app := models.Application{
		Identifier:      identifier,
		Name:            fmt.Sprintf("%s - TestApp - %s", RandStringBytes(2), RandStringBytes(10)),
		Description:     "seeded application",
		PlatformSupport: pq.StringArray(config.StorablePlatforms[:]),
	}
	result := db.Create(&app)
	if result.Error != nil {
		return models.Application{}, errors.New("could not save seed")
	}
	return app, nil
}

// SeedVersions creates size version rows for the application, with
// ascending version codes starting at 1.
func SeedVersions(db *gorm.DB, app models.Application, size int, options SeedOptions) ([]models.Version, error) {
	var versions []models.Version

	for i := 0; i < size; i++ {
		content := []byte(RandStringBytes(64))
		digest := sha256.Sum256(content)
		releaseDate := time.Now().Add(time.Duration(-size+i) * 24 * time.Hour)

		version := models.Version{
			ApplicationUUID: app.UUID,
			Version:         fmt.Sprintf("1.%d.0", i),
			Platform:        createPlatform(options.Platform),
			VersionCode:     int64(i + 1),
			FileName:        fmt.Sprintf("%s-1.%d.0.apk", app.Identifier, i),
			FileSize:        int64(len(content)),
			FileHash:        hex.EncodeToString(digest[:]),
			Changelog:       pq.StringArray{"seeded change " + RandStringBytes(5)},
			IsActive:        createFlag(options.IsActive, true),
			IsMandatory:     createFlag(options.IsMandatory, false),
			ReleaseDate:     &releaseDate,
			StorageKind:     createStorageKind(options.StorageKind),
		}
		if version.StorageKind == models.StorageInline {
			version.AppFile = content
		} else {
			version.StoragePath = fmt.Sprintf("versions/%s/%s/%s/%s",
				app.UUID, version.Platform, version.Version, version.FileName)
		}
		versions = append(versions, version)
	}
	result := db.Create(&versions)
	if result.Error != nil {
		return nil, errors.New("could not save seed")
	}
	return versions, nil
}

func createPlatform(existingPlatform string) string {
	if existingPlatform != "" {
		return existingPlatform
	}
	return config.PlatformAndroid
}

func createFlag(existing *bool, fallback bool) bool {
	if existing != nil {
		return *existing
	}
	return fallback
}

func createStorageKind(existing string) string {
	if existing != "" {
		return existing
	}
	return models.StorageInline
}

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func RandStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}

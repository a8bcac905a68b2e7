// Package storage persists version binaries either inline in the catalog
// row or as files on a persistent volume, addressed by a tagged locator.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
)

// Locator is the tagged storage location kept on a version row. Kind is one
// of models.StorageInline or models.StorageVolume; Path is set for volume
// locators only and is relative to the volume base directory.
type Locator struct {
	Kind string
	Path string
}

func InlineLocator() Locator {
	return Locator{Kind: models.StorageInline}
}

func VolumeLocator(path string) Locator {
	return Locator{Kind: models.StorageVolume, Path: path}
}

// Key identifies where a binary belongs in a backend.
type Key struct {
	ApplicationUUID string
	Platform        string
	Version         string
	FileName        string
}

// Backend persists and retrieves binary bytes for a logical key.
type Backend interface {
	// Save writes the bytes and returns the locator to record on the
	// version row. The inline backend does not copy anything; its locator
	// tells the caller to keep the bytes on the row itself.
	Save(ctx context.Context, key Key, content []byte) (Locator, error)

	// Read resolves a locator back to bytes. The inlineBytes argument is
	// the row's blob column, used by the inline backend only.
	Read(ctx context.Context, locator Locator, inlineBytes []byte) ([]byte, error)

	// Delete removes the stored bytes. A no-op for inline locators, whose
	// bytes disappear with the row.
	Delete(ctx context.Context, locator Locator) error
}

// Digest computes the hex SHA-256 content digest recorded on every version.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ForLocator picks the backend a locator dispatches to. Dispatch is
// exhaustive; an unknown kind is stored-state corruption.
func ForLocator(locator Locator, inline *InlineBlobStore, volume *VolumeFileStore) (Backend, error) {
	switch locator.Kind {
	case models.StorageInline:
		return inline, nil
	case models.StorageVolume:
		return volume, nil
	}
	return nil, &ce.DaoError{
		Message:   "Unknown storage kind: " + locator.Kind,
		Corrupted: true,
	}
}

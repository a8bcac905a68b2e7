package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
)

// VolumeFileStore writes binaries under a persistent volume using the
// layout versions/{application}/{platform}/{version}/{filename}, with a
// JSON sidecar next to each binary for out-of-band auditing.
type VolumeFileStore struct {
	basePath string
}

// SidecarMeta is the audit record written next to each stored binary.
type SidecarMeta struct {
	RelativePath string    `json:"relative_path"` // Locator path of the binary
	Size         int64     `json:"size"`          // Size in bytes
	Sha256       string    `json:"sha256"`        // SHA-256 digest of the content
	CreatedAt    time.Time `json:"created_at"`    // Timestamp of the write
}

const sidecarSuffix = ".meta.json"

func NewVolumeFileStore(basePath string) (*VolumeFileStore, error) {
	if err := os.MkdirAll(filepath.Join(basePath, "versions"), 0o755); err != nil {
		return nil, fmt.Errorf("could not create storage directory: %w", err)
	}
	return &VolumeFileStore{basePath: basePath}, nil
}

func (s *VolumeFileStore) BasePath() string {
	return s.basePath
}

// relativePath builds the deterministic locator path for a key.
func (s *VolumeFileStore) relativePath(key Key) string {
	return path.Join("versions", key.ApplicationUUID, key.Platform, key.Version, sanitizeFilename(key.FileName))
}

func (s *VolumeFileStore) Save(ctx context.Context, key Key, content []byte) (Locator, error) {
	relPath := s.relativePath(key)
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return Locator{}, fmt.Errorf("could not create version directory: %w", err)
	}
	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		return Locator{}, fmt.Errorf("could not write binary: %w", err)
	}

	meta := SidecarMeta{
		RelativePath: relPath,
		Size:         int64(len(content)),
		Sha256:       Digest(content),
		CreatedAt:    time.Now().UTC(),
	}
	buf, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Locator{}, fmt.Errorf("could not marshal sidecar: %w", err)
	}
	if err := os.WriteFile(fullPath+sidecarSuffix, buf, 0o644); err != nil {
		return Locator{}, fmt.Errorf("could not write sidecar: %w", err)
	}

	return VolumeLocator(relPath), nil
}

func (s *VolumeFileStore) Read(ctx context.Context, locator Locator, inlineBytes []byte) ([]byte, error) {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(locator.Path))
	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			// The catalog row references bytes the volume no longer has.
			return nil, &ce.DaoError{
				Message:   "Stored binary missing from volume: " + locator.Path,
				Corrupted: true,
			}
		}
		return nil, fmt.Errorf("could not read binary: %w", err)
	}
	return content, nil
}

func (s *VolumeFileStore) Delete(ctx context.Context, locator Locator) error {
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(locator.Path))

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete binary: %w", err)
	}
	if err := os.Remove(fullPath + sidecarSuffix); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete sidecar: %w", err)
	}

	// Prune now-empty version/platform/application directories. Failure to
	// prune is not an error.
	dir := filepath.Dir(fullPath)
	for i := 0; i < 3; i++ {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
	return nil
}

// ReadSidecar loads the audit record for a locator.
func (s *VolumeFileStore) ReadSidecar(locator Locator) (SidecarMeta, error) {
	var meta SidecarMeta
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(locator.Path))
	buf, err := os.ReadFile(fullPath + sidecarSuffix)
	if err != nil {
		return meta, fmt.Errorf("could not read sidecar: %w", err)
	}
	if err := json.Unmarshal(buf, &meta); err != nil {
		return meta, fmt.Errorf("could not unmarshal sidecar: %w", err)
	}
	return meta, nil
}

// Stats walks the volume and totals binaries, skipping sidecars.
func (s *VolumeFileStore) Stats() (files int64, bytes int64, err error) {
	err = filepath.Walk(s.basePath, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || strings.HasSuffix(p, sidecarSuffix) {
			return nil
		}
		files++
		bytes += info.Size()
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("could not walk storage directory: %w", err)
	}
	return files, bytes, nil
}

// List walks the volume and returns the locator path of every binary on
// it, skipping sidecars.
func (s *VolumeFileStore) List() ([]string, error) {
	paths := []string{}
	err := filepath.Walk(s.basePath, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || strings.HasSuffix(p, sidecarSuffix) {
			return nil
		}
		relPath, err := filepath.Rel(s.basePath, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(relPath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not walk storage directory: %w", err)
	}
	return paths, nil
}

// sanitizeFilename keeps the stored filename to a single path element.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload.bin"
	}
	return name
}

package jobs

import (
	"context"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CleanupOrphanedBinaries removes volume files no catalog row points at.
// Orphans appear when a version row is deleted but the file removal failed,
// or when a binary landed on the volume and the row insert did not.
// It also logs rows whose recorded file is gone, which needs a re-upload.
func CleanupOrphanedBinaries(ctx context.Context, db *gorm.DB, volume *storage.VolumeFileStore, dryRun bool) error {
	referenced := []string{}
	result := db.Model(models.Version{}).
		Where("storage_kind = ?", models.StorageVolume).
		Pluck("storage_path", &referenced)
	if result.Error != nil {
		return result.Error
	}
	referencedSet := make(map[string]bool, len(referenced))
	for _, p := range referenced {
		referencedSet[p] = true
	}

	onDisk, err := volume.List()
	if err != nil {
		return err
	}
	onDiskSet := make(map[string]bool, len(onDisk))
	for _, p := range onDisk {
		onDiskSet[p] = true
	}

	removed := 0
	for _, p := range onDisk {
		if referencedSet[p] {
			continue
		}
		if dryRun {
			log.Info().Str("path", p).Msg("orphaned binary (dry run, not removed)")
			continue
		}
		if err := volume.Delete(ctx, storage.VolumeLocator(p)); err != nil {
			log.Error().Err(err).Str("path", p).Msg("could not remove orphaned binary")
			continue
		}
		removed++
		log.Info().Str("path", p).Msg("removed orphaned binary")
	}

	missing := 0
	for _, p := range referenced {
		if !onDiskSet[p] {
			missing++
			log.Error().Str("path", p).Msg("version row points at a missing binary")
		}
	}

	log.Info().
		Int("binaries", len(onDisk)).
		Int("removed", removed).
		Int("missing", missing).
		Bool("dry_run", dryRun).
		Msg("orphaned binary cleanup finished")
	return nil
}

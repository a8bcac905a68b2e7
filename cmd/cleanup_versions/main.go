package main

import (
	"context"
	"os"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/db"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/jobs"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/storage"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func main() {
	args := os.Args
	config.Load()
	config.ConfigureLogging()

	if len(args) < 2 || (args[1] != "--force" && args[1] != "--dry-run") {
		log.Fatal().Msg("Requires arguments: --force or --dry-run")
	}
	dryRun := args[1] == "--dry-run"

	if err := db.Connect(); err != nil {
		log.Panic().Err(err).Msg("Failed to connect to database")
	}

	volume, err := storage.NewVolumeFileStore(config.Get().Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage volume")
	}

	if err := jobs.CleanupOrphanedBinaries(context.Background(), db.DB, volume, dryRun); err != nil {
		log.Fatal().Err(err).Msg("Cleanup failed")
	}
}

// Package cache provides the update-check resolution cache.
package cache

import (
	"context"
	"errors"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/config"
	"github.com/rs/zerolog/log"
)

var NotFound = errors.New("not found in cache")

// Cache stores the resolved latest release per application and platform.
// The cached response carries the latest-release fields only; the caller
// fills in the per-client fields after a hit.
type Cache interface {
	GetLatestResolution(ctx context.Context, appIdentifier string, platform string) (*api.UpdateCheckResponse, error)
	SetLatestResolution(ctx context.Context, appIdentifier string, platform string, response api.UpdateCheckResponse) error
	DeleteLatestResolution(ctx context.Context, appIdentifier string, platform string) error
}

func Initialize() Cache {
	if config.Get().Clients.Redis.Host != "" {
		return NewRedisCache()
	} else {
		log.Logger.Warn().Msg("No application cache in use")
		return NewNoOpCache()
	}
}

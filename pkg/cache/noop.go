package cache

import (
	"context"

	"github.com/MaxGiu67/nexa-version-management-api/pkg/api"
)

// A noop cache doesn't actually cache anything, but provides an implementation
// of the caching interfaces
type noOpCache struct {
}

func NewNoOpCache() *noOpCache {
	return &noOpCache{}
}

// GetLatestResolution a NoOp version to fetch a cached resolution
func (c *noOpCache) GetLatestResolution(ctx context.Context, appIdentifier string, platform string) (*api.UpdateCheckResponse, error) {
	return nil, NotFound
}

// SetLatestResolution a NoOp version to store a resolution
func (c *noOpCache) SetLatestResolution(ctx context.Context, appIdentifier string, platform string, response api.UpdateCheckResponse) error {
	return nil
}

// DeleteLatestResolution a NoOp version to drop a cached resolution
func (c *noOpCache) DeleteLatestResolution(ctx context.Context, appIdentifier string, platform string) error {
	return nil
}

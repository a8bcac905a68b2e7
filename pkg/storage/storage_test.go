package storage

import (
	"context"
	"testing"

	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	// sha256 of the empty string is a well-known constant
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", Digest(nil))
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", Digest([]byte("hello")))
}

func TestInlineSaveIsPassThrough(t *testing.T) {
	store := NewInlineBlobStore()
	ctx := context.Background()

	locator, err := store.Save(ctx, Key{}, []byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, models.StorageInline, locator.Kind)
	assert.Empty(t, locator.Path)

	read, err := store.Read(ctx, locator, []byte("row bytes"))
	require.NoError(t, err)
	assert.Equal(t, []byte("row bytes"), read)

	assert.NoError(t, store.Delete(ctx, locator))
}

func TestInlineReadEmptyBlobIsCorruption(t *testing.T) {
	store := NewInlineBlobStore()

	_, err := store.Read(context.Background(), InlineLocator(), nil)
	require.Error(t, err)
	daoError, ok := err.(*ce.DaoError)
	require.True(t, ok)
	assert.True(t, daoError.Corrupted)
}

func TestForLocator(t *testing.T) {
	inline := NewInlineBlobStore()
	volume, err := NewVolumeFileStore(t.TempDir())
	require.NoError(t, err)

	backend, err := ForLocator(InlineLocator(), inline, volume)
	require.NoError(t, err)
	assert.Equal(t, Backend(inline), backend)

	backend, err = ForLocator(VolumeLocator("versions/x"), inline, volume)
	require.NoError(t, err)
	assert.Equal(t, Backend(volume), backend)

	_, err = ForLocator(Locator{Kind: "s3"}, inline, volume)
	require.Error(t, err)
	daoError, ok := err.(*ce.DaoError)
	require.True(t, ok)
	assert.True(t, daoError.Corrupted)
}

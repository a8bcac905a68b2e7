package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func validVersion() Version {
	return Version{
		ApplicationUUID: "9b0ab822-8356-4cb8-b8c9-d9a3a88d5f23",
		Version:         "1.2.0",
		Platform:        "android",
		VersionCode:     12,
		FileName:        "app-release.apk",
		FileSize:        1024,
		FileHash:        "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Changelog:       pq.StringArray{"Initial release"},
		StorageKind:     StorageInline,
	}
}

func TestVersionValidate(t *testing.T) {
	v := validVersion()
	assert.NoError(t, v.validate())
}

func TestVersionValidateBlankFields(t *testing.T) {
	v := validVersion()
	v.ApplicationUUID = ""
	assert.Error(t, v.validate())

	v = validVersion()
	v.Version = ""
	assert.Error(t, v.validate())

	v = validVersion()
	v.Platform = ""
	assert.Error(t, v.validate())

	v = validVersion()
	v.FileHash = ""
	assert.Error(t, v.validate())
}

func TestVersionValidateVersionCode(t *testing.T) {
	v := validVersion()
	v.VersionCode = 0
	assert.Error(t, v.validate())

	v.VersionCode = -3
	assert.Error(t, v.validate())
}

func TestVersionValidateStorageKind(t *testing.T) {
	v := validVersion()
	v.StorageKind = "s3"
	assert.Error(t, v.validate())

	v = validVersion()
	v.StorageKind = StorageInline
	v.StoragePath = "versions/foo/android/1.2.0/app.apk"
	assert.Error(t, v.validate())

	v = validVersion()
	v.StorageKind = StorageVolume
	v.StoragePath = ""
	assert.Error(t, v.validate())

	v = validVersion()
	v.StorageKind = StorageVolume
	v.StoragePath = "versions/foo/android/1.2.0/app.apk"
	v.AppFile = []byte("bytes")
	assert.Error(t, v.validate())

	v.AppFile = nil
	assert.NoError(t, v.validate())
}

func TestApplicationSupportsPlatform(t *testing.T) {
	app := Application{
		Identifier:      "demo-app",
		Name:            "Demo App",
		PlatformSupport: pq.StringArray{"android", "ios"},
	}
	assert.True(t, app.SupportsPlatform("android"))
	assert.True(t, app.SupportsPlatform("ios"))
	assert.False(t, app.SupportsPlatform("all"))
	assert.False(t, app.SupportsPlatform("windows"))
}

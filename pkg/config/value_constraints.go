package config

import "github.com/MaxGiu67/nexa-version-management-api/pkg/utils"

const (
	PlatformAndroid = "android"
	PlatformIos     = "ios"
	PlatformAll     = "all" // release that applies to every platform
)

// Platforms a client may report on a version check or download.
var RequestablePlatforms = [...]string{PlatformAndroid, PlatformIos}

// Platforms a version row may carry; "all" is assignable on upload only
// when the application supports it.
var StorablePlatforms = [...]string{PlatformAndroid, PlatformIos, PlatformAll}

const (
	ExtensionApk = ".apk"
	ExtensionIpa = ".ipa"
)

// UploadChunkSize is the fixed chunk length handed to clients at the start
// of a chunked upload.
const UploadChunkSize = 5 * 1024 * 1024

// ValidRequestPlatform verifies the label is a platform a client can ask for.
func ValidRequestPlatform(label string) bool {
	return utils.Contains(RequestablePlatforms[:], label)
}

// ValidStoragePlatform verifies the label is a platform a version row can carry.
func ValidStoragePlatform(label string) bool {
	return utils.Contains(StorablePlatforms[:], label)
}

// ExtensionForPlatform returns the binary file extension convention for a
// platform, or empty when any extension is acceptable ("all").
func ExtensionForPlatform(platform string) string {
	switch platform {
	case PlatformAndroid:
		return ExtensionApk
	case PlatformIos:
		return ExtensionIpa
	}
	return ""
}

package api

// UpdateCheckRequest is a client asking whether a newer build exists.
type UpdateCheckRequest struct {
	AppIdentifier      string `json:"app_identifier" validate:"required"` // Application identifier
	Platform           string `json:"platform" validate:"required"`       // Platform of the client (android, ios)
	CurrentVersionCode int64  `json:"current_version_code"`               // Version code the client is running
	UserUUID           string `json:"user_uuid,omitempty"`                // Optional client identity for installation tracking
}

// UpdateCheckResponse is the update decision for one client.
type UpdateCheckResponse struct {
	CurrentVersionCode int64    `json:"current_version_code"`          // Echo of the client's version code
	IsUpdateAvailable  bool     `json:"is_update_available"`           // Latest stored code differs from the client's
	LatestVersion      string   `json:"latest_version,omitempty"`      // Dotted version string of the latest release
	LatestVersionCode  int64    `json:"latest_version_code,omitempty"` // Version code of the latest release
	IsMandatory        bool     `json:"is_mandatory,omitempty"`        // The latest release forces an update
	DownloadUrl        string   `json:"download_url,omitempty"`        // Path to download the latest binary
	FileSize           int64    `json:"file_size,omitempty"`           // Size of the latest binary in bytes
	ReleaseDate        string   `json:"release_date,omitempty"`        // Timestamp of the latest release
	Changelog          []string `json:"changelog,omitempty"`           // Changes in the latest release
}

// VersionResponse holds data returned by the versions API
type VersionResponse struct {
	UUID          string   `json:"uuid" readonly:"true"` // UUID of the object
	AppIdentifier string   `json:"app_identifier"`       // Application identifier the version belongs to
	Version       string   `json:"version"`              // Dotted version string
	Platform      string   `json:"platform"`             // Platform of the binary (android, ios, all)
	VersionCode   int64    `json:"version_code"`         // Release ordering code, authoritative over the version string
	FileName      string   `json:"file_name"`            // Original filename of the uploaded binary
	FileSize      int64    `json:"file_size"`            // Size of the binary in bytes
	FileHash      string   `json:"file_hash"`            // SHA-256 digest of the binary
	Changelog     []string `json:"changelog"`            // Changes in this release
	IsActive      bool     `json:"is_active"`            // Inactive versions are never resolved or served
	IsMandatory   bool     `json:"is_mandatory"`         // Clients below this version must update
	DownloadCount int64    `json:"download_count"`       // Times this binary has been requested
	ReleaseDate   string   `json:"release_date"`         // Timestamp of release
	StorageKind   string   `json:"storage_kind"`         // Where the bytes live (inline, volume)
	CreatedAt     string   `json:"created_at"`           // Timestamp of creation
}

type VersionCollectionResponse struct {
	Versions []VersionResponse `json:"versions"` // Requested versions
}

// VersionUpdateRequest flips the mutable flags on a version.
type VersionUpdateRequest struct {
	IsActive    *bool `json:"is_active"`    // Deactivation is a flag flip, never a row removal
	IsMandatory *bool `json:"is_mandatory"` // Force clients below this version to update
}

// VersionFilterData filters the versions listing.
type VersionFilterData struct {
	AppIdentifier string `query:"app_identifier" json:"app_identifier"` // Restrict to one application
	Platform      string `query:"platform" json:"platform"`             // Restrict to one platform
	IsActive      string `query:"is_active" json:"is_active"`           // "true"/"false", empty means both
}

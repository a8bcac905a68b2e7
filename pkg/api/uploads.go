package api

// UploadRequest is the multipart form of a single-shot upload. The binary
// itself travels as the "file" part.
type UploadRequest struct {
	AppIdentifier string `form:"app_identifier" validate:"required"` // Application identifier
	Version       string `form:"version" validate:"required"`        // Dotted version string
	Platform      string `form:"platform" validate:"required"`       // Platform of the binary
	VersionCode   int64  `form:"version_code" validate:"required"`   // Release ordering code
	IsMandatory   bool   `form:"is_mandatory"`                       // Clients below this version must update
	Changelog     string `form:"changelog"`                          // JSON array of changes, or a plain string
}

// UploadResponse reports a persisted version after a successful upload.
type UploadResponse struct {
	VersionUUID string `json:"version_uuid"` // UUID of the created version
	Version     string `json:"version"`      // Dotted version string
	Platform    string `json:"platform"`     // Platform of the binary
	FileSize    int64  `json:"file_size"`    // Size of the stored binary in bytes
	FileHash    string `json:"file_hash"`    // SHA-256 digest of the stored binary
	StorageKind string `json:"storage_kind"` // Where the bytes landed (inline, volume)
}

// StartChunkedUploadRequest opens a chunked upload session.
type StartChunkedUploadRequest struct {
	AppIdentifier string `form:"app_identifier" json:"app_identifier" validate:"required"` // Application identifier
	Version       string `form:"version" json:"version" validate:"required"`               // Dotted version string
	Platform      string `form:"platform" json:"platform" validate:"required"`             // Platform of the binary
	VersionCode   int64  `form:"version_code" json:"version_code" validate:"required"`     // Release ordering code
	IsMandatory   bool   `form:"is_mandatory" json:"is_mandatory"`                         // Clients below this version must update
	Changelog     string `form:"changelog" json:"changelog"`                               // JSON array of changes, or a plain string
	FileSize      int64  `form:"file_size" json:"file_size" validate:"required"`           // Declared total size in bytes
	FileName      string `form:"file_name" json:"file_name" validate:"required"`           // Original filename
}

// StartChunkedUploadResponse hands the client its session parameters.
type StartChunkedUploadResponse struct {
	UploadID    string `json:"upload_id"`    // Opaque session identifier
	ChunkSize   int64  `json:"chunk_size"`   // Fixed chunk length in bytes
	TotalChunks int    `json:"total_chunks"` // ceil(file_size / chunk_size)
}

// ChunkAckResponse acknowledges one received chunk.
type ChunkAckResponse struct {
	ChunkNumber int   `json:"chunk_number"` // Index of the acknowledged chunk
	Size        int64 `json:"size"`         // Received length in bytes
	Received    bool  `json:"received"`     // Always true on success
}

// MissingChunksResponse lists the chunk indices a Complete call still needs.
type MissingChunksResponse struct {
	MissingChunks []int `json:"missing_chunks"` // Indices never received
}

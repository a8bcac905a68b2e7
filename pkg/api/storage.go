package api

// StorageInfoResponse summarizes where uploaded binaries live.
type StorageInfoResponse struct {
	TotalVersions  int64   `json:"total_versions"`   // Catalog rows
	TotalDownloads int64   `json:"total_downloads"`  // Sum of all download counters
	InlineVersions int64   `json:"inline_versions"`  // Rows stored in the database blob column
	InlineBytes    int64   `json:"inline_bytes"`     // Bytes held inline
	VolumeVersions int64   `json:"volume_versions"`  // Rows stored on the volume
	VolumeBytes    int64   `json:"volume_bytes"`     // Bytes held on the volume
	VolumeFiles    int64   `json:"volume_files"`     // Binary files found on the volume
	TotalSizeMb    float64 `json:"total_size_mb"`    // Combined size in MiB
	ActiveSessions int     `json:"upload_sessions"`  // In-flight chunked upload sessions
}

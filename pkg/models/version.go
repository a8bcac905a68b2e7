package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Storage kinds for a version's binary. Inline rows keep the bytes in the
// AppFile column; volume rows keep only a relative path into the storage
// volume. Dispatch on this tag must stay exhaustive.
const (
	StorageInline = "inline"
	StorageVolume = "volume"
)

// Version is one uploaded binary for an (application, platform) pair.
// Version codes, not the dotted version string, decide ordering.
type Version struct {
	Base
	ApplicationUUID string         `json:"application_uuid" gorm:"default:null"`
	Version         string         `json:"version" gorm:"default:null"`
	Platform        string         `json:"platform" gorm:"default:null"`
	VersionCode     int64          `json:"version_code" gorm:"default:null"`
	FileName        string         `json:"file_name" gorm:"default:null"`
	FileSize        int64          `json:"file_size" gorm:"default:0"`
	FileHash        string         `json:"file_hash" gorm:"default:null"`
	Changelog       pq.StringArray `json:"changelog" gorm:"type:text[]"`
	IsActive        bool           `json:"is_active" gorm:"default:true"`
	IsMandatory     bool           `json:"is_mandatory" gorm:"default:false"`
	DownloadCount   int64          `json:"download_count" gorm:"default:0"`
	ReleaseDate     *time.Time     `json:"release_date"`
	StorageKind     string         `json:"storage_kind" gorm:"default:inline"`
	StoragePath     string         `json:"storage_path" gorm:"default:''"`
	AppFile         []byte         `json:"-" gorm:"type:bytea"`
}

func (v *Version) BeforeCreate(tx *gorm.DB) (err error) {
	v.Base.UUID = uuid.NewString()
	if err := v.validate(); err != nil {
		return err
	}
	return nil
}

func (v *Version) validate() error {
	var err error
	if v.ApplicationUUID == "" {
		err = Error{Message: "Application UUID cannot be blank.", Validation: true}
		return err
	}

	if v.Version == "" {
		err = Error{Message: "Version cannot be blank.", Validation: true}
		return err
	}

	if v.Platform == "" {
		err = Error{Message: "Platform cannot be blank.", Validation: true}
		return err
	}

	if v.VersionCode <= 0 {
		err = Error{Message: "Version code must be positive.", Validation: true}
		return err
	}

	if v.FileHash == "" {
		err = Error{Message: "File hash cannot be blank.", Validation: true}
		return err
	}

	switch v.StorageKind {
	case StorageInline:
		if v.StoragePath != "" {
			err = Error{Message: "Inline storage cannot carry a path.", Validation: true}
			return err
		}
	case StorageVolume:
		if v.StoragePath == "" {
			err = Error{Message: "Volume storage requires a path.", Validation: true}
			return err
		}
		if len(v.AppFile) != 0 {
			err = Error{Message: "Volume storage cannot carry an inline blob.", Validation: true}
			return err
		}
	default:
		err = Error{Message: "Storage kind must be inline or volume.", Validation: true}
		return err
	}

	return nil
}

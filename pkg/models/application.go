package models

import (
	"github.com/MaxGiu67/nexa-version-management-api/pkg/utils"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Application is the registered app a version belongs to. Registration CRUD
// is owned by the admin tooling; the API only reads these rows.
type Application struct {
	Base
	Identifier      string         `json:"app_identifier" gorm:"unique;default:null"`
	Name            string         `json:"app_name" gorm:"default:null"`
	Description     string         `json:"description" gorm:"default:''"`
	PlatformSupport pq.StringArray `json:"platform_support" gorm:"type:text[]"`
}

func (a *Application) BeforeCreate(tx *gorm.DB) (err error) {
	a.Base.UUID = uuid.NewString()

	if a.Identifier == "" {
		err = Error{Message: "App identifier cannot be blank.", Validation: true}
	}
	if a.Name == "" {
		err = Error{Message: "App name cannot be blank.", Validation: true}
	}
	if len(a.PlatformSupport) == 0 {
		err = Error{Message: "Platform support cannot be empty.", Validation: true}
	}
	return
}

// SupportsPlatform reports whether the application accepts uploads for the
// given platform label.
func (a *Application) SupportsPlatform(platform string) bool {
	return utils.Contains(a.PlatformSupport, platform)
}

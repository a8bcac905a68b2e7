package dao

import (
	"context"
	"errors"

	ce "github.com/MaxGiu67/nexa-version-management-api/pkg/errors"
	"github.com/MaxGiu67/nexa-version-management-api/pkg/models"
	"gorm.io/gorm"
)

type applicationDaoImpl struct {
	db *gorm.DB
}

func GetApplicationDao(db *gorm.DB) ApplicationDao {
	return applicationDaoImpl{db: db}
}

func (a applicationDaoImpl) Fetch(ctx context.Context, identifier string) (models.Application, error) {
	var app models.Application
	result := a.db.WithContext(ctx).Where("identifier = ?", identifier).First(&app)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return models.Application{}, &ce.DaoError{
				Message:  "Could not find application with identifier " + identifier,
				NotFound: true,
			}
		}
		return models.Application{}, &ce.DaoError{Message: "error fetching application", Err: result.Error}
	}
	return app, nil
}

func (a applicationDaoImpl) SupportedPlatforms(ctx context.Context, identifier string) ([]string, error) {
	app, err := a.Fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return app.PlatformSupport, nil
}

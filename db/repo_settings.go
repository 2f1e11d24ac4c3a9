package db

import (
	"context"

	"Gin_postgres_redis_tool_lending/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var ErrInvalidSettings = errors.New("maxLoansPerBorrower must be >= 0")

func (r *Repo) GetSettings(ctx context.Context) (*models.Settings, error) {
	s := models.DefaultSettings()
	err := r.DB.WithContext(ctx).First(&s, models.SettingsRowID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "load settings")
	}
	return &s, nil
}

func (r *Repo) UpdateSettings(ctx context.Context, maxLoans int, actor Actor) (*models.Settings, error) {
	if maxLoans < 0 {
		return nil, ErrInvalidSettings
	}
	s := models.Settings{
		ID:                  models.SettingsRowID,
		MaxLoansPerBorrower: maxLoans,
		UpdatedBy:           actor.ID,
		UpdatedAt:           r.now(),
	}
	if err := r.DB.WithContext(ctx).Save(&s).Error; err != nil {
		return nil, errors.Wrap(err, "save settings")
	}
	return &s, nil
}

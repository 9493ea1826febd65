package db

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/havenhq/haven/internal/models"
	"gorm.io/gorm"
)

// GetOrCreateInstanceID returns the ID identifying this deployment, creating
// it on first start. Call after migrations.
func GetOrCreateInstanceID(db *gorm.DB) (string, error) {
	var setting models.Setting

	err := db.Where("key = ?", models.SettingInstanceID).First(&setting).Error
	if err == nil {
		return setting.Value, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to query settings: %w", err)
	}

	setting = models.Setting{
		Key:   models.SettingInstanceID,
		Value: uuid.New().String(),
	}
	if err := db.Create(&setting).Error; err != nil {
		return "", fmt.Errorf("failed to create instance ID: %w", err)
	}

	slog.Info("Generated new instance ID", "instance_id", setting.Value)
	return setting.Value, nil
}

// GetInstanceID returns the stored instance ID, or an error before
// GetOrCreateInstanceID has run.
func GetInstanceID(db *gorm.DB) (string, error) {
	var setting models.Setting

	err := db.Where("key = ?", models.SettingInstanceID).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("instance ID not initialized")
		}
		return "", fmt.Errorf("failed to query settings: %w", err)
	}
	return setting.Value, nil
}

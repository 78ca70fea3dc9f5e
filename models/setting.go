package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Well-known setting keys.
const (
	SettingLoyaltyProgram = "loyalty_program"
	SettingSystem         = "system"
)

type SystemSetting struct {
	Id           string         `json:"id" gorm:"primaryKey"`
	SettingKey   string         `json:"setting_key" gorm:"uniqueIndex;not null"`
	SettingValue datatypes.JSON `json:"setting_value" gorm:"type:jsonb;not null"`
	Description  string         `json:"description"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (setting *SystemSetting) BeforeCreate(tx *gorm.DB) (err error) {
	if setting.Id == "" {
		setting.Id = uuid.NewString()
	}
	return
}

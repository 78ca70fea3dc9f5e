package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/services"
)

func GetSettings(c *fiber.Ctx) error {
	var settings []models.SystemSetting
	if err := database.DB.Order("setting_key").Find(&settings).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"settings": settings, "message": "success"})
}

func GetSetting(c *fiber.Ctx) error {
	var setting models.SystemSetting
	if err := database.DB.Where("setting_key = ?", c.Params("key")).First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "setting not found")
		}
		return err
	}
	return c.JSON(setting)
}

type settingUpsertInput struct {
	SettingValue json.RawMessage `json:"setting_value" validate:"required"`
	Description  string          `json:"description"`
}

// UpsertSetting creates or replaces the JSON value under a key, auditing the
// old value on replacement. The sale path reads "loyalty_program" from here.
func UpsertSetting(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	key := c.Params("key")

	var input settingUpsertInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if !json.Valid(input.SettingValue) {
		return fiber.NewError(fiber.StatusBadRequest, "setting value must be valid JSON")
	}

	var setting models.SystemSetting
	err := database.DB.Where("setting_key = ?", key).First(&setting).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		setting = models.SystemSetting{
			SettingKey:   key,
			SettingValue: []byte(input.SettingValue),
			Description:  input.Description,
		}
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&setting).Error; err != nil {
				return err
			}
			return services.RecordAudit(tx, userID, "CREATE", "system_settings", &setting.Id,
				nil, map[string]any{"setting_key": key})
		})
		if txErr != nil {
			return txErr
		}
		c.Status(fiber.StatusCreated)
	case err != nil:
		return err
	default:
		old := map[string]any{"setting_value": string(setting.SettingValue)}
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			updates := map[string]any{"setting_value": []byte(input.SettingValue)}
			if input.Description != "" {
				updates["description"] = input.Description
			}
			if err := tx.Model(&setting).Updates(updates).Error; err != nil {
				return err
			}
			return services.RecordAudit(tx, userID, "UPDATE", "system_settings", &setting.Id,
				old, map[string]any{"setting_value": string(input.SettingValue)})
		})
		if txErr != nil {
			return txErr
		}
		setting.SettingValue = []byte(input.SettingValue)
	}

	return c.JSON(setting)
}

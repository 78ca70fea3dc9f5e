package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/utils"
)

type promotionCreateInput struct {
	Name              string    `json:"name" validate:"required"`
	Type              string    `json:"type" validate:"required,oneof=percentage fixed"`
	Value             float64   `json:"value" validate:"gt=0"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required"`
	MaxUses           *int      `json:"max_uses" validate:"omitempty,gt=0"`
	MinPurchaseAmount float64   `json:"min_purchase_amount" validate:"gte=0"`
}

func CreatePromotion(c *fiber.Ctx) error {
	var input promotionCreateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if !input.EndDate.After(input.StartDate) {
		return fiber.NewError(fiber.StatusBadRequest, "end date must be after start date")
	}

	promotion := models.Promotion{
		Name:              input.Name,
		Type:              input.Type,
		Value:             input.Value,
		StartDate:         input.StartDate,
		EndDate:           input.EndDate,
		MaxUses:           input.MaxUses,
		MinPurchaseAmount: input.MinPurchaseAmount,
		IsActive:          true,
	}
	if err := database.DB.Create(&promotion).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create promotion")
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(promotion)
}

func GetPromotions(c *fiber.Ctx) error {
	query := database.DB.Order("start_date DESC")
	if c.QueryBool("active", false) {
		now := time.Now().UTC()
		query = query.Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
			Where("max_uses IS NULL OR current_uses < max_uses")
	}

	var promotions []models.Promotion
	if err := query.Find(&promotions).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"promotions": promotions, "message": "success"})
}

type promotionUpdateInput struct {
	Name              *string    `json:"name"`
	Type              *string    `json:"type"`
	Value             *float64   `json:"value"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	MaxUses           *int       `json:"max_uses"`
	MinPurchaseAmount *float64   `json:"min_purchase_amount"`
	IsActive          *bool      `json:"is_active"`
}

func UpdatePromotion(c *fiber.Ctx) error {
	var promotion models.Promotion
	if err := database.DB.Where("id = ?", c.Params("id")).First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "promotion not found")
		}
		return err
	}

	var input promotionUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if input.Type != nil && *input.Type != "percentage" && *input.Type != "fixed" {
		return fiber.NewError(fiber.StatusBadRequest, "invalid promotion type")
	}
	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.JSON(promotion)
	}

	if err := database.DB.Model(&promotion).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update promotion")
	}
	return c.JSON(promotion)
}

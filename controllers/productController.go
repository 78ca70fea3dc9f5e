package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/services"
	"github.com/OKB20/spos-api/utils"
)

type productCreateInput struct {
	Name          string  `json:"name" validate:"required"`
	Description   string  `json:"description"`
	Price         float64 `json:"price" validate:"gte=0"`
	Cost          float64 `json:"cost" validate:"gte=0"`
	SKU           string  `json:"sku"`
	Barcode       string  `json:"barcode"`
	Category      string  `json:"category"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	MinStockLevel int     `json:"min_stock_level" validate:"gte=0"`
	Unit          string  `json:"unit"`
}

func CreateProduct(c *fiber.Ctx) error {
	var input productCreateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	product := models.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		Cost:          input.Cost,
		SKU:           input.SKU,
		Barcode:       input.Barcode,
		Category:      input.Category,
		StockQuantity: input.StockQuantity,
		MinStockLevel: input.MinStockLevel,
		Unit:          input.Unit,
		IsActive:      true,
	}
	if err := database.DB.Create(&product).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create product")
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(product)
}

func GetProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Where("is_active = ?", true)
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR sku ILIKE ? OR barcode ILIKE ?", pattern, pattern, pattern)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var products []models.Product
	if err := query.Order("name").Limit(limit).Find(&products).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": products, "message": "success"})
}

func GetProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := database.DB.Where("id = ?", c.Params("id")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}
	return c.JSON(product)
}

type productUpdateInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *float64 `json:"price"`
	Cost          *float64 `json:"cost"`
	SKU           *string  `json:"sku"`
	Barcode       *string  `json:"barcode"`
	Category      *string  `json:"category"`
	MinStockLevel *int     `json:"min_stock_level"`
	Unit          *string  `json:"unit"`
	IsActive      *bool    `json:"is_active"`
}

// UpdateProduct applies a partial update; stock_quantity is deliberately not
// updatable here, stock moves only through inventory transactions.
func UpdateProduct(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var product models.Product
	if err := database.DB.Where("id = ?", c.Params("id")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var input productUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizePtrDTO(&input)
	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.JSON(product)
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
		return services.RecordAudit(tx, userID, "UPDATE", "products", &product.Id, nil, updates)
	})
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// DeleteProduct soft-deletes: sold products stay referenced by sale items.
func DeleteProduct(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var product models.Product
	if err := database.DB.Where("id = ?", c.Params("id")).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product).Update("is_active", false).Error; err != nil {
			return err
		}
		return services.RecordAudit(tx, userID, "DELETE", "products", &product.Id,
			map[string]any{"is_active": true}, map[string]any{"is_active": false})
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}

// GetLowStockProducts lists active products at or below their minimum level.
func GetLowStockProducts(c *fiber.Ctx) error {
	var products []models.Product
	if err := database.DB.
		Where("is_active = ? AND min_stock_level > 0 AND stock_quantity <= min_stock_level", true).
		Order("stock_quantity").Find(&products).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"products": products, "message": "success"})
}

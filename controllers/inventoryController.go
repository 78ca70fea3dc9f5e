package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/services"
)

func GetInventoryTransactions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 200)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Order("created_at DESC").Limit(limit)
	if productID := c.Query("product_id"); productID != "" {
		query = query.Where("product_id = ?", productID)
	}

	var transactions []models.InventoryTransaction
	if err := query.Find(&transactions).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"transactions": transactions, "message": "success"})
}

type adjustmentInput struct {
	ProductId       string `json:"product_id" validate:"required"`
	QuantityChange  int    `json:"quantity_change" validate:"required"`
	TransactionType string `json:"transaction_type" validate:"required"`
	Notes           string `json:"notes"`
}

// CreateInventoryTransaction applies a manual stock adjustment.
func CreateInventoryTransaction(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var input adjustmentInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if input.QuantityChange == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity change cannot be zero")
	}

	var entry *models.InventoryTransaction
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		_, created, err := services.AdjustStock(tx, input.ProductId, input.QuantityChange,
			input.TransactionType, userID, nil, "", input.Notes)
		if err != nil {
			if errors.Is(err, services.ErrProductNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "product not found")
			}
			return err
		}
		entry = created
		return services.RecordAudit(tx, userID, "CREATE", "inventory_transactions", &created.Id,
			nil, map[string]any{"delta": input.QuantityChange})
	})
	if err != nil {
		return err
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(entry)
}

type countInput struct {
	ProductId     string `json:"product_id" validate:"required"`
	PhysicalCount int    `json:"physical_count" validate:"gte=0"`
}

// CreateInventoryCount snapshots a physical count against the system quantity.
// The difference is recorded but not applied until the count is resolved.
func CreateInventoryCount(c *fiber.Ctx) error {
	var input countInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	var product models.Product
	if err := database.DB.Where("id = ?", input.ProductId).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "product not found")
		}
		return err
	}

	now := time.Now().UTC()
	count := models.InventoryCount{
		ProductId:     input.ProductId,
		PhysicalCount: input.PhysicalCount,
		SystemCount:   product.StockQuantity,
		Difference:    input.PhysicalCount - product.StockQuantity,
		Status:        models.CountStatusOpen,
		CountDate:     &now,
	}
	if err := database.DB.Create(&count).Error; err != nil {
		return err
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(count)
}

func GetInventoryCounts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 200)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Order("updated_at DESC").Limit(limit)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var counts []models.InventoryCount
	if err := query.Find(&counts).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"counts": counts, "message": "success"})
}

// ResolveInventoryCount applies an open count's difference as a stock
// adjustment and closes it. The open→resolved transition is a conditional
// update, so of two concurrent resolutions exactly one adjusts stock.
func ResolveInventoryCount(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var count models.InventoryCount
	if err := database.DB.Where("id = ?", c.Params("id")).First(&count).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "count not found")
		}
		return err
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InventoryCount{}).
			Where("id = ? AND status = ?", count.Id, models.CountStatusOpen).
			Update("status", models.CountStatusResolved)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "count already resolved")
		}
		if count.Difference != 0 {
			if _, _, err := services.AdjustStock(tx, count.ProductId, count.Difference,
				"adjustment", userID, &count.Id, "inventory_count", "count resolution"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	count.Status = models.CountStatusResolved
	return c.JSON(count)
}

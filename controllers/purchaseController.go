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

type purchaseItemInput struct {
	ProductId  string  `json:"product_id" validate:"required"`
	Quantity   int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice  float64 `json:"unit_price" validate:"gte=0"`
	TotalPrice float64 `json:"total_price" validate:"gte=0"`
}

type purchaseCreateInput struct {
	SupplierName string              `json:"supplier_name" validate:"required"`
	TotalAmount  float64             `json:"total_amount" validate:"gte=0"`
	Status       string              `json:"status" validate:"omitempty,oneof=pending received canceled"`
	Notes        string              `json:"notes"`
	Items        []purchaseItemInput `json:"items" validate:"required,min=1,dive"`
}

// CreatePurchase records a supplier order. A purchase created directly in
// "received" status stocks in immediately.
func CreatePurchase(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var input purchaseCreateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if input.Status == "" {
		input.Status = models.PurchaseStatusPending
	}

	now := time.Now().UTC()
	purchase := models.Purchase{
		SupplierName: input.SupplierName,
		TotalAmount:  input.TotalAmount,
		PurchaseDate: &now,
		Status:       input.Status,
		Notes:        input.Notes,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}
		for _, itemIn := range input.Items {
			item := models.PurchaseItem{
				PurchaseId: purchase.Id,
				ProductId:  itemIn.ProductId,
				Quantity:   itemIn.Quantity,
				UnitPrice:  itemIn.UnitPrice,
				TotalPrice: itemIn.TotalPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			purchase.Items = append(purchase.Items, item)

			if purchase.Status == models.PurchaseStatusReceived {
				if _, _, err := services.AdjustStock(tx, itemIn.ProductId, itemIn.Quantity,
					"purchase", userID, &purchase.Id, "purchase", ""); err != nil {
					if errors.Is(err, services.ErrProductNotFound) {
						return fiber.NewError(fiber.StatusBadRequest, "product not found")
					}
					return err
				}
			}
		}
		return services.RecordAudit(tx, userID, "CREATE", "purchases", &purchase.Id, nil, map[string]any{
			"supplier_name": purchase.SupplierName,
			"total_amount":  purchase.TotalAmount,
			"status":        purchase.Status,
		})
	})
	if err != nil {
		return err
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(purchase)
}

func GetPurchases(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Preload("Items")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var purchases []models.Purchase
	if err := query.Order("created_at DESC").Limit(limit).Find(&purchases).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"purchases": purchases, "message": "success"})
}

func GetPurchase(c *fiber.Ctx) error {
	var purchase models.Purchase
	if err := database.DB.Preload("Items").
		Where("id = ?", c.Params("id")).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "purchase not found")
		}
		return err
	}
	return c.JSON(purchase)
}

// ReceivePurchase transitions a pending purchase to received and stocks in
// every item. Receiving twice is rejected.
func ReceivePurchase(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var purchase models.Purchase
	if err := database.DB.Preload("Items").
		Where("id = ?", c.Params("id")).First(&purchase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "purchase not found")
		}
		return err
	}
	if purchase.Status != models.PurchaseStatusPending {
		return fiber.NewError(fiber.StatusBadRequest, "purchase is not pending")
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&purchase).Update("status", models.PurchaseStatusReceived).Error; err != nil {
			return err
		}
		for _, item := range purchase.Items {
			if _, _, err := services.AdjustStock(tx, item.ProductId, item.Quantity,
				"purchase", userID, &purchase.Id, "purchase", ""); err != nil {
				return err
			}
		}
		return services.RecordAudit(tx, userID, "UPDATE", "purchases", &purchase.Id,
			map[string]any{"status": models.PurchaseStatusPending},
			map[string]any{"status": models.PurchaseStatusReceived})
	})
	if err != nil {
		return err
	}

	purchase.Status = models.PurchaseStatusReceived
	return c.JSON(purchase)
}

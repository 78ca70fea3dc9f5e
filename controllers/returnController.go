package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/services"
)

type returnCreateInput struct {
	SaleId       string  `json:"sale_id" validate:"required"`
	ProductId    string  `json:"product_id" validate:"required"`
	Quantity     int     `json:"quantity" validate:"required,gt=0"`
	Reason       string  `json:"reason" validate:"required"`
	RefundAmount float64 `json:"refund_amount" validate:"gte=0"`
}

// CreateReturn restocks returned quantity. The quantity may not exceed what
// the sale actually sold for that product, minus prior returns; the check runs
// inside the transaction under a lock on the sale row, so concurrent returns
// for the same sale serialize and cannot jointly exceed the sold quantity.
func CreateReturn(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var input returnCreateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	ret := models.Return{
		SaleId:       input.SaleId,
		ProductId:    input.ProductId,
		ProcessedBy:  userID,
		Quantity:     input.Quantity,
		Reason:       input.Reason,
		RefundAmount: input.RefundAmount,
		Status:       "completed",
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Items").
			Where("id = ?", input.SaleId).First(&sale).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "sale not found")
			}
			return err
		}
		if sale.Status == models.SaleStatusVoided {
			return fiber.NewError(fiber.StatusBadRequest, "cannot return items from a voided sale")
		}

		sold := 0
		for _, item := range sale.Items {
			if item.ProductId == input.ProductId {
				sold += item.Quantity
			}
		}
		if sold == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "product was not part of this sale")
		}

		var returned int64
		if err := tx.Model(&models.Return{}).
			Where("sale_id = ? AND product_id = ?", input.SaleId, input.ProductId).
			Select("COALESCE(SUM(quantity), 0)").Scan(&returned).Error; err != nil {
			return err
		}
		if int64(input.Quantity)+returned > int64(sold) {
			return fiber.NewError(fiber.StatusBadRequest, "return quantity exceeds sold quantity")
		}

		if err := tx.Create(&ret).Error; err != nil {
			return err
		}
		if _, _, err := services.AdjustStock(tx, input.ProductId, input.Quantity,
			"return", userID, &ret.Id, "return", input.Reason); err != nil {
			return err
		}
		return services.RecordAudit(tx, userID, "CREATE", "returns", &ret.Id, nil, map[string]any{
			"sale_id":       input.SaleId,
			"product_id":    input.ProductId,
			"quantity":      input.Quantity,
			"refund_amount": input.RefundAmount,
		})
	})
	if err != nil {
		return err
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(ret)
}

func GetReturns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Order("created_at DESC").Limit(limit)
	if saleID := c.Query("sale_id"); saleID != "" {
		query = query.Where("sale_id = ?", saleID)
	}

	var returns []models.Return
	if err := query.Find(&returns).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"returns": returns, "message": "success"})
}

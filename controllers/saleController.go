package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/idempotency"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/services"
)

type saleItemInput struct {
	ProductId      string  `json:"product_id" validate:"required"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice      float64 `json:"unit_price" validate:"gte=0"`
	DiscountAmount float64 `json:"discount_amount" validate:"gte=0"`
	TotalPrice     float64 `json:"total_price" validate:"gte=0"`
}

type saleCreateInput struct {
	IdempotencyKey string          `json:"idempotency_key"`
	CustomerId     *string         `json:"customer_id"`
	Subtotal       float64         `json:"subtotal" validate:"gte=0"`
	TaxAmount      float64         `json:"tax_amount" validate:"gte=0"`
	DiscountAmount float64         `json:"discount_amount" validate:"gte=0"`
	TotalAmount    float64         `json:"total_amount" validate:"gte=0"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=cash card mobile other"`
	PaymentStatus  string          `json:"payment_status" validate:"omitempty,oneof=paid pending refunded"`
	Notes          string          `json:"notes"`
	PointsRedeemed int             `json:"points_redeemed" validate:"gte=0"`
	Items          []saleItemInput `json:"items" validate:"required,min=1,dive"`
}

type loyaltyProgram struct {
	Enabled           bool    `json:"enabled"`
	PointsPerCurrency float64 `json:"points_per_currency"`
}

func generateSaleNumber() string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("SALE-%s-%s", timestamp, suffix)
}

// CreateSale is the idempotent checkout endpoint. The guard decides whether
// this request runs the transaction, replays a prior result, or is rejected;
// the transaction itself validates stock under row locks and updates the
// customer's totals and loyalty balance.
func CreateSale(c *fiber.Ctx) error {
	var input saleCreateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	key := strings.TrimSpace(c.Get("X-Idempotency-Key"))
	if key == "" {
		key = strings.TrimSpace(input.IdempotencyKey)
	}
	if key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "X-Idempotency-Key header (or idempotency_key field) is required")
	}
	if len(key) > 128 {
		return fiber.NewError(fiber.StatusBadRequest, "idempotency key too long")
	}

	cashierID, _ := c.Locals("userID").(string)
	fingerprint := idempotency.Fingerprint(c.Method(), c.Path(), cashierID, c.Body())

	decision, err := guard.Begin(c.Context(), key, fingerprint)
	if err != nil {
		return err
	}

	switch decision.Outcome {
	case idempotency.DuplicateCompleted:
		// Replay the committed sale; the transaction must not run again.
		var sale models.Sale
		if err := database.DB.Preload("Items.Product").
			Where("sale_number = ?", decision.ResultReference).First(&sale).Error; err != nil {
			return err
		}
		return c.JSON(sale)
	case idempotency.DuplicateInFlight:
		return fiber.NewError(fiber.StatusConflict, "a request with this idempotency key is still in progress, retry later")
	case idempotency.Conflict:
		return fiber.NewError(fiber.StatusConflict, "idempotency key reused with a different request")
	}

	// Proceed: this request owns the pending record and must settle it.
	sale, err := executeSale(c, cashierID, key, &input)
	if err != nil {
		if failErr := guard.Fail(c.Context(), key); failErr != nil {
			log.Printf("idempotency fail for key %q: %v", key, failErr)
		}
		return err
	}

	if err := guard.Complete(c.Context(), key, sale.SaleNumber); err != nil {
		// The sale committed; losing the record means a later retry may see
		// Proceed again, but the unique sales.idempotency_key column still
		// blocks a second commit.
		log.Printf("idempotency complete for key %q: %v", key, err)
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(sale)
}

func executeSale(c *fiber.Ctx, cashierID, key string, input *saleCreateInput) (*models.Sale, error) {
	var computed float64
	for _, item := range input.Items {
		computed += item.TotalPrice
	}
	if math.Abs(computed-input.TotalAmount) > 0.01 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "total amount does not match sum of item totals")
	}

	var sale *models.Sale
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		created := models.Sale{
			SaleNumber:     generateSaleNumber(),
			IdempotencyKey: &key,
			CashierId:      cashierID,
			CustomerId:     input.CustomerId,
			Subtotal:       input.Subtotal,
			TaxAmount:      input.TaxAmount,
			DiscountAmount: input.DiscountAmount,
			TotalAmount:    input.TotalAmount,
			PaymentMethod:  input.PaymentMethod,
			PaymentStatus:  input.PaymentStatus,
			Status:         models.SaleStatusCompleted,
			Notes:          input.Notes,
			SaleDate:       now,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("could not create sale: %w", err)
		}

		auditItems := make([]map[string]any, 0, len(input.Items))
		for _, itemIn := range input.Items {
			// AdjustStock locks the product row; the stock check below reads
			// the locked quantity, so concurrent sales cannot oversell.
			product, _, err := services.AdjustStock(tx, itemIn.ProductId, -itemIn.Quantity,
				"sale", cashierID, &created.Id, "sale", "")
			if err != nil {
				if err == services.ErrProductNotFound {
					return fiber.NewError(fiber.StatusBadRequest, "product not found")
				}
				return err
			}
			if product.StockQuantity < 0 {
				return fiber.NewError(fiber.StatusBadRequest,
					fmt.Sprintf("insufficient stock for product %s", product.Name))
			}

			item := models.SaleItem{
				SaleId:         created.Id,
				ProductId:      itemIn.ProductId,
				Quantity:       itemIn.Quantity,
				UnitPrice:      itemIn.UnitPrice,
				DiscountAmount: itemIn.DiscountAmount,
				TotalPrice:     itemIn.TotalPrice,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("could not create sale item: %w", err)
			}
			created.Items = append(created.Items, item)
			auditItems = append(auditItems, map[string]any{
				"product_id": itemIn.ProductId,
				"qty":        itemIn.Quantity,
				"total":      itemIn.TotalPrice,
			})
		}

		if err := services.RecordAudit(tx, cashierID, "CREATE", "sales", &created.Id, nil, map[string]any{
			"sale_number":  created.SaleNumber,
			"total_amount": created.TotalAmount,
			"items":        auditItems,
		}); err != nil {
			return err
		}

		if input.CustomerId != nil {
			if err := applyCustomerTotals(tx, *input.CustomerId, &created, input.PointsRedeemed); err != nil {
				return err
			}
		}

		sale = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// applyCustomerTotals rolls the sale into the customer's purchase history and,
// when the loyalty program is enabled, redeems and accrues points. Accrual is
// computed on the subtotal so discounts don't earn points.
func applyCustomerTotals(tx *gorm.DB, customerID string, sale *models.Sale, pointsRedeemed int) error {
	var customer models.Customer
	if err := tx.Where("id = ?", customerID).First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusBadRequest, "customer not found")
		}
		return err
	}

	customer.TotalPurchases += sale.TotalAmount
	customer.LastPurchaseDate = &sale.SaleDate

	var setting models.SystemSetting
	err := tx.Where("setting_key = ?", models.SettingLoyaltyProgram).First(&setting).Error
	if err == nil {
		var program loyaltyProgram
		if jsonErr := json.Unmarshal(setting.SettingValue, &program); jsonErr == nil && program.Enabled {
			if pointsRedeemed > 0 {
				if customer.LoyaltyPoints < pointsRedeemed {
					return fiber.NewError(fiber.StatusBadRequest,
						fmt.Sprintf("insufficient loyalty points, available: %d", customer.LoyaltyPoints))
				}
				customer.LoyaltyPoints -= pointsRedeemed
			}
			customer.LoyaltyPoints += int(sale.Subtotal * program.PointsPerCurrency)
		}
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	return tx.Model(&customer).Updates(map[string]any{
		"total_purchases":    customer.TotalPurchases,
		"loyalty_points":     customer.LoyaltyPoints,
		"last_purchase_date": customer.LastPurchaseDate,
	}).Error
}

func parseDateTime(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		if endOfDay {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, fiber.NewError(fiber.StatusBadRequest, "invalid date format")
}

func GetSales(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	startDate, err := parseDateTime(c.Query("start_date"), false)
	if err != nil {
		return err
	}
	endDate, err := parseDateTime(c.Query("end_date"), true)
	if err != nil {
		return err
	}

	query := database.DB.Preload("Items.Product")
	if startDate != nil {
		query = query.Where("sale_date >= ?", *startDate)
	}
	if endDate != nil {
		query = query.Where("sale_date <= ?", *endDate)
	}
	if cashierID := c.Query("cashier_id"); cashierID != "" {
		query = query.Where("cashier_id = ?", cashierID)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		query = query.Where("customer_id = ?", customerID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var sales []models.Sale
	if err := query.Order("created_at DESC").Limit(limit).Find(&sales).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sales": sales, "message": "success"})
}

func GetSale(c *fiber.Ctx) error {
	var sale models.Sale
	if err := database.DB.Preload("Items.Product").
		Where("id = ?", c.Params("id")).First(&sale).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "sale not found")
		}
		return err
	}
	return c.JSON(sale)
}

// VoidSale reverses a completed sale: stock is restored item by item and the
// customer's purchase total rolled back. The completed→voided transition is a
// conditional update, so of two concurrent voids exactly one restocks.
func VoidSale(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var sale models.Sale
	if err := database.DB.Preload("Items").
		Where("id = ?", c.Params("id")).First(&sale).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "sale not found")
		}
		return err
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Sale{}).
			Where("id = ? AND status = ?", sale.Id, models.SaleStatusCompleted).
			Update("status", models.SaleStatusVoided)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "sale already voided")
		}

		for _, item := range sale.Items {
			if _, _, err := services.AdjustStock(tx, item.ProductId, item.Quantity,
				"sale_void", userID, &sale.Id, "sale",
				fmt.Sprintf("voiding sale %s", sale.SaleNumber)); err != nil {
				return err
			}
		}

		if err := services.RecordAudit(tx, userID, "VOID", "sales", &sale.Id, nil, map[string]any{
			"status":      models.SaleStatusVoided,
			"sale_number": sale.SaleNumber,
		}); err != nil {
			return err
		}

		if sale.CustomerId != nil {
			if err := tx.Model(&models.Customer{}).Where("id = ?", *sale.CustomerId).
				Update("total_purchases", gorm.Expr("total_purchases - ?", sale.TotalAmount)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	sale.Status = models.SaleStatusVoided
	return c.JSON(sale)
}

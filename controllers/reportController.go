package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/utils"
)

// GetReportSummary aggregates sales totals and inventory value, optionally
// limited to the trailing N days.
func GetReportSummary(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	if days < 0 || days > 365 {
		return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 365")
	}

	salesQuery := func() *gorm.DB {
		q := database.DB.Model(&models.Sale{}).Where("status = ?", models.SaleStatusCompleted)
		if days > 0 {
			start := time.Now().UTC().AddDate(0, 0, -days)
			q = q.Where("sale_date >= ?", start)
		}
		return q
	}

	var totalSalesAmount float64
	if err := salesQuery().
		Select("COALESCE(SUM(total_amount), 0)").Scan(&totalSalesAmount).Error; err != nil {
		return err
	}
	var totalSalesCount int64
	if err := salesQuery().Count(&totalSalesCount).Error; err != nil {
		return err
	}

	var totalProducts int64
	if err := database.DB.Model(&models.Product{}).
		Where("is_active = ?", true).Count(&totalProducts).Error; err != nil {
		return err
	}

	var inventoryValue float64
	if err := database.DB.Model(&models.Product{}).
		Where("is_active = ?", true).
		Select("COALESCE(SUM(stock_quantity * COALESCE(cost, 0)), 0)").
		Scan(&inventoryValue).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"total_sales_amount": utils.Round2(totalSalesAmount),
		"total_sales_count":  totalSalesCount,
		"total_products":     totalProducts,
		"inventory_value":    utils.Round2(inventoryValue),
	})
}

type topProduct struct {
	ProductId string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int64   `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// GetTopProducts ranks products by revenue over the trailing window.
func GetTopProducts(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days < 1 || days > 365 {
		return fiber.NewError(fiber.StatusBadRequest, "days must be between 1 and 365")
	}
	limit := c.QueryInt("limit", 10)
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}
	start := time.Now().UTC().AddDate(0, 0, -days)

	var top []topProduct
	err := database.DB.Model(&models.SaleItem{}).
		Select("sale_items.product_id, products.name, SUM(sale_items.quantity) AS quantity, SUM(sale_items.total_price) AS revenue").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN products ON products.id = sale_items.product_id").
		Where("sales.status = ? AND sales.sale_date >= ?", models.SaleStatusCompleted, start).
		Group("sale_items.product_id, products.name").
		Order("revenue DESC").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"top_products": top, "message": "success"})
}

package database

import (
	"fmt"

	"github.com/OKB20/spos-api/models"
)

// AutoMigrate applies (idempotent) schema migrations:
// - AutoMigrate for tables/columns/index tags
// - unique indexes the correctness contracts depend on (idempotency key,
//   refresh token jti, sale number and sale idempotency key)
func AutoMigrate() error {
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Customer{},
		&models.Sale{},
		&models.SaleItem{},
		&models.Return{},
		&models.Purchase{},
		&models.PurchaseItem{},
		&models.InventoryTransaction{},
		&models.InventoryCount{},
		&models.Promotion{},
		&models.SystemSetting{},
		&models.AuditLog{},
		&models.IdempotencyRecord{},
		&models.RefreshToken{},
	); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}

	// The gorm tags request these too; the explicit DDL keeps them present on
	// databases migrated by older builds. The guard's atomic insert and the
	// token rotation CAS depend on them.
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_records_key ON idempotency_records (key)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_refresh_tokens_jti ON refresh_tokens (jti)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sales_sale_number ON sales (sale_number)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sales_idempotency_key ON sales (idempotency_key)`,
	}
	for _, stmt := range indexes {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
		}
	}

	return nil
}

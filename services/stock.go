package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/OKB20/spos-api/models"
)

// ErrProductNotFound is returned by AdjustStock for an unknown product id.
var ErrProductNotFound = errors.New("product not found")

// AdjustStock applies a stock delta under a row lock and appends the matching
// ledger entry. It runs inside the caller's transaction; callers decide
// commit/rollback.
func AdjustStock(tx *gorm.DB, productID string, delta int, transactionType, createdBy string, referenceID *string, referenceType, notes string) (*models.Product, *models.InventoryTransaction, error) {
	var product models.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", productID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, err
	}

	product.StockQuantity += delta
	if err := tx.Model(&product).Update("stock_quantity", product.StockQuantity).Error; err != nil {
		return nil, nil, fmt.Errorf("stock update failed: %w", err)
	}

	entry := models.InventoryTransaction{
		ProductId:       productID,
		QuantityChange:  delta,
		TransactionType: transactionType,
		ReferenceId:     referenceID,
		ReferenceType:   referenceType,
		CreatedBy:       createdBy,
		Notes:           notes,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, nil, fmt.Errorf("inventory transaction failed: %w", err)
	}

	return &product, &entry, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventoryTransaction is the append-only stock ledger. Every stock change
// (sale, void, return, purchase receipt, manual adjustment) writes one row.
type InventoryTransaction struct {
	Id              string    `json:"id" gorm:"primaryKey"`
	ProductId       string    `json:"product_id" gorm:"not null;index"`
	QuantityChange  int       `json:"quantity_change" gorm:"not null"`
	TransactionType string    `json:"transaction_type" gorm:"not null"` // sale|sale_void|return|purchase|adjustment
	ReferenceId     *string   `json:"reference_id"`
	ReferenceType   string    `json:"reference_type"`
	CreatedBy       string    `json:"created_by" gorm:"not null"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at" gorm:"index"`
}

func (t *InventoryTransaction) BeforeCreate(tx *gorm.DB) (err error) {
	if t.Id == "" {
		t.Id = uuid.NewString()
	}
	return
}

const (
	CountStatusOpen     = "open"
	CountStatusResolved = "resolved"
)

type InventoryCount struct {
	Id            string     `json:"id" gorm:"primaryKey"`
	ProductId     string     `json:"product_id" gorm:"index"`
	PhysicalCount int        `json:"physical_count" gorm:"not null"`
	SystemCount   int        `json:"system_count" gorm:"not null"`
	Difference    int        `json:"difference"`
	Status        string     `json:"status" gorm:"not null"`
	CountDate     *time.Time `json:"count_date"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (count *InventoryCount) BeforeCreate(tx *gorm.DB) (err error) {
	if count.Id == "" {
		count.Id = uuid.NewString()
	}
	return
}

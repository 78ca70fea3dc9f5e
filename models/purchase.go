package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PurchaseStatusPending  = "pending"
	PurchaseStatusReceived = "received"
	PurchaseStatusCanceled = "canceled"
)

type Purchase struct {
	Id           string     `json:"id" gorm:"primaryKey"`
	SupplierName string     `json:"supplier_name" gorm:"not null"`
	TotalAmount  float64    `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	PurchaseDate *time.Time `json:"purchase_date"`
	Status       string     `json:"status" gorm:"not null"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Items []PurchaseItem `json:"items" gorm:"foreignKey:PurchaseId;constraint:OnDelete:CASCADE"`
}

func (purchase *Purchase) BeforeCreate(tx *gorm.DB) (err error) {
	if purchase.Id == "" {
		purchase.Id = uuid.NewString()
	}
	return
}

type PurchaseItem struct {
	Id         string    `json:"id" gorm:"primaryKey"`
	PurchaseId string    `json:"-" gorm:"not null;index"`
	ProductId  string    `json:"product_id" gorm:"not null;index"`
	Quantity   int       `json:"quantity" gorm:"not null"`
	UnitPrice  float64   `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TotalPrice float64   `json:"total_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (item *PurchaseItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.Id == "" {
		item.Id = uuid.NewString()
	}
	return
}

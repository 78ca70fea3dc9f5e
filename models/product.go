package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	Id             string     `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name" gorm:"not null;index"`
	Description    string     `json:"description"`
	Price          float64    `json:"price" gorm:"type:numeric(12,2);not null"`
	Cost           float64    `json:"cost" gorm:"type:numeric(12,2)"`
	SKU            string     `json:"sku" gorm:"index"`
	Barcode        string     `json:"barcode" gorm:"index"`
	Category       string     `json:"category"`
	StockQuantity  int        `json:"stock_quantity" gorm:"not null;default:0"`
	MinStockLevel  int        `json:"min_stock_level"`
	Unit           string     `json:"unit"`
	IsActive       bool       `json:"is_active" gorm:"default:true"`
	ExpirationDate *time.Time `json:"expiration_date" gorm:"type:date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (product *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if product.Id == "" {
		product.Id = uuid.NewString()
	}
	return
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SaleStatusCompleted = "completed"
	SaleStatusVoided    = "voided"
)

// Sale is the committed result of a checkout. The idempotency guard ensures at
// most one Sale per Idempotency-Key; SaleNumber is the result reference it stores.
type Sale struct {
	Id             string     `json:"id" gorm:"primaryKey"`
	SaleNumber     string     `json:"sale_number" gorm:"uniqueIndex;not null"`
	IdempotencyKey *string    `json:"-" gorm:"uniqueIndex"`
	CashierId      string     `json:"cashier_id" gorm:"not null;index"`
	CustomerId     *string    `json:"customer_id" gorm:"index"`
	Subtotal       float64    `json:"subtotal" gorm:"type:numeric(12,2);not null"`
	TaxAmount      float64    `json:"tax_amount" gorm:"type:numeric(12,2)"`
	DiscountAmount float64    `json:"discount_amount" gorm:"type:numeric(12,2)"`
	TotalAmount    float64    `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	PaymentMethod  string     `json:"payment_method" gorm:"not null"` // cash|card|mobile|other
	PaymentStatus  string     `json:"payment_status"`                 // paid|pending|refunded
	Status         string     `json:"status" gorm:"not null;default:completed"`
	Notes          string     `json:"notes"`
	SaleDate       time.Time  `json:"sale_date" gorm:"not null;index"`
	CreatedAt      time.Time  `json:"created_at"`

	Items []SaleItem `json:"items" gorm:"foreignKey:SaleId;constraint:OnDelete:CASCADE"`
}

func (sale *Sale) BeforeCreate(tx *gorm.DB) (err error) {
	if sale.Id == "" {
		sale.Id = uuid.NewString()
	}
	return
}

type SaleItem struct {
	Id             string    `json:"id" gorm:"primaryKey"`
	SaleId         string    `json:"-" gorm:"not null;index"`
	ProductId      string    `json:"product_id" gorm:"not null;index"`
	Product        Product   `json:"product" gorm:"foreignKey:ProductId;references:Id;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	Quantity       int       `json:"quantity" gorm:"not null"`
	UnitPrice      float64   `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	DiscountAmount float64   `json:"discount_amount" gorm:"type:numeric(12,2)"`
	TotalPrice     float64   `json:"total_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt      time.Time `json:"created_at"`
}

func (item *SaleItem) BeforeCreate(tx *gorm.DB) (err error) {
	if item.Id == "" {
		item.Id = uuid.NewString()
	}
	return
}

// Return restocks sold quantity and records the refund.
type Return struct {
	Id           string    `json:"id" gorm:"primaryKey"`
	SaleId       string    `json:"sale_id" gorm:"not null;index"`
	ProductId    string    `json:"product_id" gorm:"not null"`
	ProcessedBy  string    `json:"processed_by" gorm:"not null"`
	Quantity     int       `json:"quantity" gorm:"not null"`
	Reason       string    `json:"reason" gorm:"not null"`
	RefundAmount float64   `json:"refund_amount" gorm:"type:numeric(12,2);not null"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ret *Return) BeforeCreate(tx *gorm.DB) (err error) {
	if ret.Id == "" {
		ret.Id = uuid.NewString()
	}
	return
}

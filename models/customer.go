package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Customer struct {
	Id                 string     `json:"id" gorm:"primaryKey"`
	Name               string     `json:"name" gorm:"not null"`
	Phone              string     `json:"phone"`
	Email              string     `json:"email"`
	Address            string     `json:"address"`
	CustomerType       string     `json:"customer_type"`
	DiscountPercentage float64    `json:"discount_percentage" gorm:"type:numeric(5,2)"`
	TotalPurchases     float64    `json:"total_purchases" gorm:"type:numeric(12,2)"`
	LoyaltyPoints      int        `json:"loyalty_points" gorm:"default:0"`
	IsActive           bool       `json:"is_active" gorm:"default:true"`
	LastPurchaseDate   *time.Time `json:"last_purchase_date"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (customer *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if customer.Id == "" {
		customer.Id = uuid.NewString()
	}
	return
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Promotion struct {
	Id                string    `json:"id" gorm:"primaryKey"`
	Name              string    `json:"name" gorm:"not null"`
	Type              string    `json:"type" gorm:"not null"` // percentage|fixed
	Value             float64   `json:"value" gorm:"type:numeric(12,2);not null"`
	StartDate         time.Time `json:"start_date" gorm:"not null"`
	EndDate           time.Time `json:"end_date" gorm:"not null"`
	CurrentUses       int       `json:"current_uses"`
	MaxUses           *int      `json:"max_uses"`
	MinPurchaseAmount float64   `json:"min_purchase_amount" gorm:"type:numeric(12,2)"`
	IsActive          bool      `json:"is_active" gorm:"default:true"`
	CreatedAt         time.Time `json:"created_at"`
}

func (promotion *Promotion) BeforeCreate(tx *gorm.DB) (err error) {
	if promotion.Id == "" {
		promotion.Id = uuid.NewString()
	}
	return
}

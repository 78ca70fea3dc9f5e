package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	Id        string         `json:"id" gorm:"primaryKey"`
	UserId    string         `json:"user_id" gorm:"not null;index"`
	Action    string         `json:"action" gorm:"not null"` // CREATE|UPDATE|DELETE|VOID
	TableName string         `json:"table_name" gorm:"not null;index"`
	RecordId  *string        `json:"record_id"`
	OldValues datatypes.JSON `json:"old_values" gorm:"type:jsonb"`
	NewValues datatypes.JSON `json:"new_values" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

func (log *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if log.Id == "" {
		log.Id = uuid.NewString()
	}
	return
}

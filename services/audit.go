package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/OKB20/spos-api/models"
)

// RecordAudit appends an audit log row inside the caller's transaction.
// old/new values are marshaled to JSON; a nil map stores NULL.
func RecordAudit(tx *gorm.DB, userID, action, tableName string, recordID *string, oldValues, newValues map[string]any) error {
	entry := models.AuditLog{
		UserId:    userID,
		Action:    action,
		TableName: tableName,
		RecordId:  recordID,
	}
	if oldValues != nil {
		blob, err := json.Marshal(oldValues)
		if err != nil {
			return err
		}
		entry.OldValues = blob
	}
	if newValues != nil {
		blob, err := json.Marshal(newValues)
		if err != nil {
			return err
		}
		entry.NewValues = blob
	}
	return tx.Create(&entry).Error
}

package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/models"
)

// GetAuditLogs lists the append-only audit trail, newest first.
func GetAuditLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Order("created_at DESC").Limit(limit)
	if userID := c.Query("user_id"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	if tableName := c.Query("table_name"); tableName != "" {
		query = query.Where("table_name = ?", tableName)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"audit_logs": logs, "message": "success"})
}

package controllers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/services"
	"github.com/OKB20/spos-api/utils"
)

func GetUsers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Order("email")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email ILIKE ? OR full_name ILIKE ?", pattern, pattern)
	}

	var users []models.User
	if err := query.Limit(limit).Find(&users).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": users, "message": "success"})
}

type userUpdateInput struct {
	FullName    *string          `json:"full_name"`
	Phone       *string          `json:"phone"`
	StoreName   *string          `json:"store_name"`
	Role        *string          `json:"role"`
	Disabled    *bool            `json:"disabled"`
	Permissions *json.RawMessage `json:"permissions"`
}

// UpdateUser is the admin-side account patch: profile fields, role, disabled
// flag, and permission overrides. Disabling an account also revokes every live
// refresh token, so the lockout does not wait out the access token expiry.
func UpdateUser(c *fiber.Ctx) error {
	actorID, _ := c.Locals("userID").(string)

	var user models.User
	if err := database.DB.Where("id = ?", c.Params("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	var input userUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if input.Role != nil && !models.ValidRole(*input.Role) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}
	if input.Permissions != nil && !json.Valid(*input.Permissions) {
		return fiber.NewError(fiber.StatusBadRequest, "permissions must be valid JSON")
	}
	utils.NormalizePtrDTO(&input)

	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if perms := input.Permissions; perms != nil {
		updates["permissions"] = []byte(*perms)
	}
	if len(updates) == 0 {
		return c.JSON(user)
	}

	old := map[string]any{
		"full_name": user.FullName,
		"role":      user.Role,
		"disabled":  user.Disabled,
	}
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return services.RecordAudit(tx, actorID, "UPDATE", "users", &user.Id, old, updates)
	})
	if err != nil {
		return err
	}

	if input.Disabled != nil && *input.Disabled {
		if err := authority.RevokeAllForUser(c.Context(), user.Id); err != nil {
			return err
		}
	}
	return c.JSON(user)
}

type resetPasswordInput struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ResetPassword sets a new password for the account and revokes all of its
// refresh tokens, forcing a fresh login everywhere.
func ResetPassword(c *fiber.Ctx) error {
	actorID, _ := c.Locals("userID").(string)

	var input resetPasswordInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}

	var user models.User
	if err := database.DB.Where("id = ?", c.Params("id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	if err := user.SetPassword(input.NewPassword); err != nil {
		if errors.Is(err, models.ErrPasswordTooLong) {
			return fiber.NewError(fiber.StatusBadRequest, "password too long")
		}
		return err
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("password", user.Password).Error; err != nil {
			return err
		}
		return services.RecordAudit(tx, actorID, "UPDATE", "users", &user.Id,
			nil, map[string]any{"password": "reset"})
	})
	if err != nil {
		return err
	}

	if err := authority.RevokeAllForUser(c.Context(), user.Id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}

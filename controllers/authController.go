package controllers

import (
	"encoding/json"
	"errors"
	"net/mail"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/idempotency"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/services"
	"github.com/OKB20/spos-api/tokens"
	"github.com/OKB20/spos-api/utils"
)

var (
	authority *tokens.Authority
	guard     *idempotency.Guard
)

// Setup injects the token authority and idempotency guard the handlers use.
// Called once from routes.Register.
func Setup(a *tokens.Authority, g *idempotency.Guard) {
	authority = a
	guard = g
}

type registerInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	Role      string `json:"role" validate:"required"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	StoreName string `json:"store_name"`
}

func RegisterUser(c *fiber.Ctx) error {
	var input registerInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if !models.ValidRole(input.Role) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid role")
	}

	var existing models.User
	err := database.DB.Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		return fiber.NewError(fiber.StatusBadRequest, "email already registered")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user := models.User{
		Email:     input.Email,
		FullName:  input.FullName,
		Phone:     input.Phone,
		Role:      input.Role,
		StoreName: input.StoreName,
	}
	if err := user.SetPassword(input.Password); err != nil {
		if errors.Is(err, models.ErrPasswordTooLong) {
			return fiber.NewError(fiber.StatusBadRequest, "password too long")
		}
		return err
	}

	if defaults := middlewares.DefaultPermissions(input.Role); len(defaults) > 0 {
		blob, err := json.Marshal(map[string]any{"allow": defaults, "deny": []string{}})
		if err != nil {
			return err
		}
		user.Permissions = blob
	}

	if err := database.DB.Create(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create user")
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(user)
}

// Login authenticates form credentials (username holds the email) and issues
// a token pair. Wrong email and wrong password produce the same 401.
func Login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "username and password are required")
	}
	if _, err := mail.ParseAddress(username); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid email format")
	}
	if len(password) > 72 {
		return fiber.NewError(fiber.StatusBadRequest, "password too long")
	}

	var user models.User
	if err := database.DB.Where("email = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "incorrect email or password")
		}
		return err
	}
	if err := user.ComparePassword(password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "incorrect email or password")
	}
	if user.Disabled {
		return fiber.NewError(fiber.StatusForbidden, "account disabled")
	}

	pair, err := authority.Issue(c.Context(), user.Id, user.Role)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

type refreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// revoked in the same call (single-use rotation); replays fail with 401.
func Refresh(c *fiber.Ctx) error {
	var input refreshInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	pair, err := authority.Refresh(c.Context(), input.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

// Logout revokes the presented refresh token. Access tokens simply age out.
func Logout(c *fiber.Ctx) error {
	var input refreshInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	if err := authority.Revoke(c.Context(), input.RefreshToken); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}

func Me(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)
	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
	}
	return c.JSON(user)
}

type selfUpdateInput struct {
	FullName  *string `json:"full_name"`
	Phone     *string `json:"phone"`
	StoreName *string `json:"store_name"`
}

func UpdateMe(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	var input selfUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizePtrDTO(&input)
	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return Me(c)
	}

	var user models.User
	if err := database.DB.Where("id = ?", userID).First(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
	}

	old := map[string]any{
		"full_name":  user.FullName,
		"phone":      user.Phone,
		"store_name": user.StoreName,
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return services.RecordAudit(tx, userID, "UPDATE", "users", &user.Id, old, updates)
	})
	if err != nil {
		return err
	}

	return c.JSON(user)
}

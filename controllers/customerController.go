package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/utils"
)

type customerCreateInput struct {
	Name               string  `json:"name" validate:"required"`
	Phone              string  `json:"phone"`
	Email              string  `json:"email" validate:"omitempty,email"`
	Address            string  `json:"address"`
	CustomerType       string  `json:"customer_type"`
	DiscountPercentage float64 `json:"discount_percentage" validate:"gte=0,lte=100"`
}

func CreateCustomer(c *fiber.Ctx) error {
	var input customerCreateInput
	if err := middlewares.BindAndValidate(c, &input); err != nil {
		return err
	}
	utils.NormalizeDTO(&input)

	customer := models.Customer{
		Name:               input.Name,
		Phone:              input.Phone,
		Email:              input.Email,
		Address:            input.Address,
		CustomerType:       input.CustomerType,
		DiscountPercentage: input.DiscountPercentage,
		IsActive:           true,
	}
	if err := database.DB.Create(&customer).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create customer")
	}

	c.Status(fiber.StatusCreated)
	return c.JSON(customer)
}

func GetCustomers(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 100)
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}

	query := database.DB.Where("is_active = ?", true)
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	var customers []models.Customer
	if err := query.Order("name").Limit(limit).Find(&customers).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customers": customers, "message": "success"})
}

func GetCustomer(c *fiber.Ctx) error {
	var customer models.Customer
	if err := database.DB.Where("id = ?", c.Params("id")).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		return err
	}
	return c.JSON(customer)
}

type customerUpdateInput struct {
	Name               *string  `json:"name"`
	Phone              *string  `json:"phone"`
	Email              *string  `json:"email"`
	Address            *string  `json:"address"`
	CustomerType       *string  `json:"customer_type"`
	DiscountPercentage *float64 `json:"discount_percentage"`
	IsActive           *bool    `json:"is_active"`
}

func UpdateCustomer(c *fiber.Ctx) error {
	var customer models.Customer
	if err := database.DB.Where("id = ?", c.Params("id")).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "customer not found")
		}
		return err
	}

	var input customerUpdateInput
	if err := c.BodyParser(&input); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizePtrDTO(&input)
	updates := utils.UpdatesFromPtrDTO(&input, nil)
	if len(updates) == 0 {
		return c.JSON(customer)
	}

	if err := database.DB.Model(&customer).Updates(updates).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not update customer")
	}
	return c.JSON(customer)
}

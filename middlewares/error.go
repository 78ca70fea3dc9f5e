package middlewares

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/OKB20/spos-api/idempotency"
	"github.com/OKB20/spos-api/tokens"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Fiber errors (use their status code + message)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 2) Token failures: uniform 401. Deliberately one message for expired,
	// malformed, and forged tokens so nothing leaks about which check failed.
	if errors.Is(err, tokens.ErrExpired) || errors.Is(err, tokens.ErrMalformed) ||
		errors.Is(err, tokens.ErrSignature) || errors.Is(err, tokens.ErrWrongType) ||
		errors.Is(err, tokens.ErrRevoked) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "invalid or expired token"})
	}

	// 3) Idempotency guard misuse is a server bug, not a client error.
	if errors.Is(err, idempotency.ErrState) {
		log.Printf("idempotency state error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal server error"})
	}

	// 4) Validation errors (422 + per-field info)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make(map[string]string, len(ve))
		for _, fieldErr := range ve {
			out[fieldErr.Field()] = fieldErr.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 5) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}

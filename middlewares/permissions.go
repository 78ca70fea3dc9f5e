package middlewares

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/models"
)

// Default permission grants per role. Admin bypasses the table entirely.
// A grant ending in '*' matches any permission with that prefix.
var defaultRolePermissions = map[string][]string{
	models.RoleEmployee: {
		"sales.read", "sales.create",
		"products.read",
		"customers.read", "customers.write",
		"promotions.read",
		"reports.read",
		"settings.read",
	},
	models.RoleManager: {
		"sales.read", "sales.create", "sales.void",
		"products.read", "products.write", "products.delete",
		"customers.read", "customers.write",
		"inventory.read", "inventory.count", "inventory.adjust",
		"purchases.read", "purchases.write",
		"returns.read", "returns.create",
		"promotions.read", "promotions.write",
		"reports.read",
		"settings.read",
	},
}

// permissionOverrides is the shape of users.permissions.
type permissionOverrides struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

func matchPermission(granted, required string) bool {
	if granted == "*" {
		return true
	}
	if strings.HasSuffix(granted, "*") {
		return strings.HasPrefix(required, granted[:len(granted)-1])
	}
	return granted == required
}

// HasPermission evaluates the closed grant tables: role defaults plus per-user
// allow overrides, minus per-user deny overrides. Deny wins over allow.
func HasPermission(role string, overrides datatypes.JSON, required string) bool {
	if role == models.RoleAdmin {
		return true
	}

	var extra permissionOverrides
	if len(overrides) > 0 {
		// Malformed overrides are ignored rather than granting anything.
		_ = json.Unmarshal(overrides, &extra)
	}

	for _, denied := range extra.Deny {
		if matchPermission(denied, required) {
			return false
		}
	}
	for _, granted := range defaultRolePermissions[role] {
		if matchPermission(granted, required) {
			return true
		}
	}
	for _, granted := range extra.Allow {
		if matchPermission(granted, required) {
			return true
		}
	}
	return false
}

// DefaultPermissions returns the grant list a newly registered user of the
// given role starts with, for persisting into users.permissions.
func DefaultPermissions(role string) []string {
	perms := defaultRolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// RequirePermission guards a route with a permission check against the
// authenticated user's role claim and stored overrides. Runs after RequireAuth.
func RequirePermission(required string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		userID, _ := c.Locals("userID").(string)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
		}

		// Disabled state and overrides live in the store, not the token, so
		// revoking access takes effect without waiting out the token expiry.
		var user models.User
		if err := database.DB.Select("role", "permissions", "disabled").
			Where("id = ?", userID).First(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unknown user")
		}
		if user.Disabled {
			return fiber.NewError(fiber.StatusForbidden, "account disabled")
		}

		if !HasPermission(role, user.Permissions, required) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}

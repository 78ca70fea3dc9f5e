package middlewares

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"

	"github.com/OKB20/spos-api/models"
)

func TestHasPermission(t *testing.T) {
	cases := []struct {
		name      string
		role      string
		overrides string
		required  string
		want      bool
	}{
		{"admin bypasses everything", models.RoleAdmin, "", "settings.write", true},
		{"employee can create sales", models.RoleEmployee, "", "sales.create", true},
		{"employee cannot void sales", models.RoleEmployee, "", "sales.void", false},
		{"manager can void sales", models.RoleManager, "", "sales.void", true},
		{"manager cannot write settings", models.RoleManager, "", "settings.write", false},
		{"allow override grants extra permission", models.RoleEmployee,
			`{"allow":["sales.void"]}`, "sales.void", true},
		{"deny override revokes role grant", models.RoleManager,
			`{"deny":["sales.void"]}`, "sales.void", false},
		{"deny wins over allow", models.RoleEmployee,
			`{"allow":["reports.read"],"deny":["reports.read"]}`, "reports.read", false},
		{"wildcard allow matches prefix", models.RoleEmployee,
			`{"allow":["inventory.*"]}`, "inventory.adjust", true},
		{"wildcard deny matches prefix", models.RoleManager,
			`{"deny":["sales.*"]}`, "sales.read", false},
		{"bare wildcard grants all", models.RoleEmployee,
			`{"allow":["*"]}`, "purchases.write", true},
		{"malformed overrides grant nothing", models.RoleEmployee,
			`{"allow": not-json`, "sales.void", false},
		{"malformed overrides do not break role grants", models.RoleEmployee,
			`{"allow": not-json`, "sales.read", true},
		{"unknown role has no grants", "intern", "", "sales.read", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var overrides datatypes.JSON
			if tc.overrides != "" {
				overrides = datatypes.JSON(tc.overrides)
			}
			assert.Equal(t, tc.want, HasPermission(tc.role, overrides, tc.required))
		})
	}
}

func TestDefaultPermissionsIsACopy(t *testing.T) {
	perms := DefaultPermissions(models.RoleEmployee)
	assert.NotEmpty(t, perms)

	perms[0] = "mutated"
	assert.NotContains(t, DefaultPermissions(models.RoleEmployee), "mutated")
}

func TestMatchPermission(t *testing.T) {
	assert.True(t, matchPermission("sales.read", "sales.read"))
	assert.False(t, matchPermission("sales.read", "sales.void"))
	assert.True(t, matchPermission("sales.*", "sales.void"))
	assert.False(t, matchPermission("sales.*", "products.read"))
	assert.True(t, matchPermission("*", "anything.at.all"))
}

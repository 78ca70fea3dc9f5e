package controllers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/OKB20/spos-api/database"
	"github.com/OKB20/spos-api/idempotency"
	"github.com/OKB20/spos-api/middlewares"
	"github.com/OKB20/spos-api/models"
	"github.com/OKB20/spos-api/tokens"
)

// These tests exercise the status-transition handlers against a real database
// because their correctness lives in conditional SQL updates and row locks.
// They skip unless TEST_DATABASE_DSN points at a disposable Postgres.
func testDB(t *testing.T) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	database.DB = db
	require.NoError(t, database.AutoMigrate())
	Setup(
		tokens.NewAuthority([]byte("test-secret"), tokens.NewGormStore(db), 15*time.Minute, time.Hour),
		idempotency.NewGuard(idempotency.NewGormStore(db), 5*time.Minute),
	)
}

func newHandlerApp(userID, role string) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Patch("/sales/:id/void", VoidSale)
	app.Patch("/counts/:id/resolve", ResolveInventoryCount)
	app.Post("/returns", CreateReturn)
	app.Post("/users/:id/reset-password", ResetPassword)
	return app
}

func seedSaleWithItem(t *testing.T, stock, qty int) (models.Product, models.Sale) {
	t.Helper()
	product := models.Product{
		Name:          "widget-" + uuid.NewString()[:8],
		Price:         10,
		StockQuantity: stock,
		IsActive:      true,
	}
	require.NoError(t, database.DB.Create(&product).Error)

	sale := models.Sale{
		SaleNumber:    "SALE-TEST-" + strings.ToUpper(uuid.NewString()[:8]),
		CashierId:     uuid.NewString(),
		Subtotal:      float64(qty) * 10,
		TotalAmount:   float64(qty) * 10,
		PaymentMethod: "cash",
		Status:        models.SaleStatusCompleted,
		SaleDate:      time.Now().UTC(),
	}
	require.NoError(t, database.DB.Create(&sale).Error)

	item := models.SaleItem{
		SaleId:     sale.Id,
		ProductId:  product.Id,
		Quantity:   qty,
		UnitPrice:  10,
		TotalPrice: float64(qty) * 10,
	}
	require.NoError(t, database.DB.Create(&item).Error)
	return product, sale
}

func currentStock(t *testing.T, productID string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, database.DB.Where("id = ?", productID).First(&p).Error)
	return p.StockQuantity
}

func jsonReq(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestVoidSaleRestocksExactlyOnce(t *testing.T) {
	testDB(t)
	app := newHandlerApp(uuid.NewString(), models.RoleManager)
	product, sale := seedSaleWithItem(t, 3, 2)

	resp, err := app.Test(jsonReq(http.MethodPatch, "/sales/"+sale.Id+"/void", ""), 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, currentStock(t, product.Id))

	// The second void loses the conditional completed→voided update and must
	// not restock again.
	resp, err = app.Test(jsonReq(http.MethodPatch, "/sales/"+sale.Id+"/void", ""), 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 5, currentStock(t, product.Id))
}

func TestResolveInventoryCountAdjustsExactlyOnce(t *testing.T) {
	testDB(t)
	app := newHandlerApp(uuid.NewString(), models.RoleManager)

	product := models.Product{
		Name:          "widget-" + uuid.NewString()[:8],
		Price:         10,
		StockQuantity: 10,
		IsActive:      true,
	}
	require.NoError(t, database.DB.Create(&product).Error)

	now := time.Now().UTC()
	count := models.InventoryCount{
		ProductId:     product.Id,
		PhysicalCount: 15,
		SystemCount:   10,
		Difference:    5,
		Status:        models.CountStatusOpen,
		CountDate:     &now,
	}
	require.NoError(t, database.DB.Create(&count).Error)

	resp, err := app.Test(jsonReq(http.MethodPatch, "/counts/"+count.Id+"/resolve", ""), 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 15, currentStock(t, product.Id))

	resp, err = app.Test(jsonReq(http.MethodPatch, "/counts/"+count.Id+"/resolve", ""), 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 15, currentStock(t, product.Id))
}

func TestReturnQuantityCappedAcrossRequests(t *testing.T) {
	testDB(t)
	app := newHandlerApp(uuid.NewString(), models.RoleManager)
	product, sale := seedSaleWithItem(t, 8, 2)

	body := fmt.Sprintf(`{"sale_id":%q,"product_id":%q,"quantity":2,"reason":"damaged","refund_amount":20}`,
		sale.Id, product.Id)
	resp, err := app.Test(jsonReq(http.MethodPost, "/returns", body), 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, 10, currentStock(t, product.Id))

	// The whole sold quantity is back; any further return must be rejected by
	// the in-transaction sum, not a stale pre-read.
	body = fmt.Sprintf(`{"sale_id":%q,"product_id":%q,"quantity":1,"reason":"damaged","refund_amount":10}`,
		sale.Id, product.Id)
	resp, err = app.Test(jsonReq(http.MethodPost, "/returns", body), 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 10, currentStock(t, product.Id))
}

func TestResetPasswordRevokesRefreshTokens(t *testing.T) {
	testDB(t)
	app := newHandlerApp(uuid.NewString(), models.RoleAdmin)

	user := models.User{
		Email: "reset-" + uuid.NewString()[:8] + "@test.local",
		Role:  models.RoleEmployee,
	}
	require.NoError(t, user.SetPassword("old-password-1"))
	require.NoError(t, database.DB.Create(&user).Error)

	pair, err := authority.Issue(context.Background(), user.Id, user.Role)
	require.NoError(t, err)

	resp, err := app.Test(jsonReq(http.MethodPost, "/users/"+user.Id+"/reset-password",
		`{"new_password":"new-password-1"}`), 10000)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Every outstanding refresh token dies with the old password.
	_, err = authority.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, tokens.ErrRevoked)

	var reloaded models.User
	require.NoError(t, database.DB.Where("id = ?", user.Id).First(&reloaded).Error)
	assert.NoError(t, reloaded.ComparePassword("new-password-1"))
	assert.Error(t, reloaded.ComparePassword("old-password-1"))
}

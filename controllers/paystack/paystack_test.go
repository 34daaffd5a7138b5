package paystackControllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ferditing/smart-livestock-backend/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// a second pooled connection would see a fresh in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Provider{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderFulfillment{},
	))
	return db
}

func seedCart(t *testing.T, db *gorm.DB) (models.User, models.Product) {
	t.Helper()
	buyer := models.User{Name: "Test Farmer", Email: "farmer@example.com", Phone: "0712345678", Role: models.RoleFarmer}
	require.NoError(t, db.Create(&buyer).Error)
	sellerUser := models.User{Name: "Test Agrovet", Email: "agrovet@example.com", Role: models.RoleAgrovet}
	require.NoError(t, db.Create(&sellerUser).Error)
	provider := models.Provider{UserID: sellerUser.ID, Name: "Green Agrovet", ProviderType: "agrovet"}
	require.NoError(t, db.Create(&provider).Error)
	product := models.Product{
		ProviderID: provider.ID,
		Name:       "Dewormer 100ml",
		Price:      decimal.NewFromInt(100),
		Quantity:   5,
	}
	require.NoError(t, db.Create(&product).Error)
	require.NoError(t, db.Create(&models.CartItem{UserID: buyer.ID, ProductID: product.ID, Qty: 3}).Error)
	return buyer, product
}

func paystackRouter(db *gorm.DB, userID uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", models.RoleFarmer)
		c.Next()
	})
	r.POST("/orders/paystack/initialize", Initialize(db))
	r.POST("/orders/paystack/verify", Verify(db))
	r.POST("/orders/paystack/reinitialize", Reinitialize(db))
	return r
}

func post(t *testing.T, r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type initializeResponse struct {
	AuthorizationURL string       `json:"authorization_url"`
	Reference        string       `json:"reference"`
	Order            models.Order `json:"order"`
}

func TestInitializeMintsReferenceWithOrder(t *testing.T) {
	db := openTestDB(t)
	buyer, product := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/initialize", `{"email":"farmer@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp initializeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Reference, "PSK-"))
	assert.Contains(t, resp.AuthorizationURL, resp.Reference)
	assert.True(t, resp.Order.Total.Equal(decimal.NewFromInt(300)))
	require.NotNil(t, resp.Order.PaymentRef)
	assert.Equal(t, resp.Reference, *resp.Order.PaymentRef)

	// reference never exists without a backing order
	var order models.Order
	require.NoError(t, db.Where("payment_ref = ?", resp.Reference).First(&order).Error)
	assert.Equal(t, buyer.ID, order.UserID)

	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 2, reloaded.Quantity)
}

func TestInitializeRequiresEmail(t *testing.T) {
	db := openTestDB(t)
	buyer, _ := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/initialize", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInitializeAmountMismatch(t *testing.T) {
	db := openTestDB(t)
	buyer, product := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	// cart totals 300; 310 is outside the one-unit tolerance
	w := post(t, r, "/orders/paystack/initialize", `{"email":"farmer@example.com","amount":310}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	assert.EqualValues(t, 0, n)
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 5, reloaded.Quantity)
}

func TestInitializeAmountWithinTolerance(t *testing.T) {
	db := openTestDB(t)
	buyer, _ := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/initialize", `{"email":"farmer@example.com","amount":301}`)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestVerifyIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	buyer, _ := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/initialize", `{"email":"farmer@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var initResp initializeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))

	w = post(t, r, "/orders/paystack/verify", `{"reference":"`+initResp.Reference+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var verified models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	assert.Equal(t, models.OrderStatusProcessing, verified.Status)

	// payment confirmation cascades to every seller portion
	var fulfillments []models.OrderFulfillment
	require.NoError(t, db.Where("order_id = ?", verified.ID).Find(&fulfillments).Error)
	require.NotEmpty(t, fulfillments)
	for _, f := range fulfillments {
		assert.Equal(t, models.OrderStatusProcessing, f.Status)
	}

	// a second confirmation is a no-op, not an error
	w = post(t, r, "/orders/paystack/verify", `{"reference":"`+initResp.Reference+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verified))
	assert.Equal(t, models.OrderStatusProcessing, verified.Status)
}

func TestVerifyUnknownReference(t *testing.T) {
	db := openTestDB(t)
	buyer, _ := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/verify", `{"reference":"PSK-0-deadbeef"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestVerifyReferenceOwnedByAnotherBuyer(t *testing.T) {
	db := openTestDB(t)
	buyer, _ := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/initialize", `{"email":"farmer@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var initResp initializeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))

	stranger := models.User{Name: "Other", Email: "other@example.com", Role: models.RoleFarmer}
	require.NoError(t, db.Create(&stranger).Error)
	otherRouter := paystackRouter(db, stranger.ID)

	w = post(t, otherRouter, "/orders/paystack/verify", `{"reference":"`+initResp.Reference+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReinitializeRemintsReferenceOnly(t *testing.T) {
	db := openTestDB(t)
	buyer, product := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/initialize", `{"email":"farmer@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var initResp initializeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))

	w = post(t, r, "/orders/paystack/reinitialize", `{"order_id":`+jsonUint(initResp.Order.ID)+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reinitResp initializeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reinitResp))

	assert.NotEqual(t, initResp.Reference, reinitResp.Reference)
	assert.True(t, strings.HasPrefix(reinitResp.Reference, "PSK-"))

	// total, items and already-decremented stock stay untouched
	assert.True(t, reinitResp.Order.Total.Equal(initResp.Order.Total))
	assert.Len(t, reinitResp.Order.Items, len(initResp.Order.Items))
	var reloaded models.Product
	require.NoError(t, db.First(&reloaded, "id = ?", product.ID).Error)
	assert.Equal(t, 2, reloaded.Quantity)

	// the old reference no longer resolves
	w = post(t, r, "/orders/paystack/verify", `{"reference":"`+initResp.Reference+`"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReinitializeUnknownOrder(t *testing.T) {
	db := openTestDB(t)
	buyer, _ := seedCart(t, db)
	r := paystackRouter(db, buyer.ID)

	w := post(t, r, "/orders/paystack/reinitialize", `{"order_id":9999}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func jsonUint(v uint) string {
	b, _ := json.Marshal(v)
	return string(b)
}

package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/caster-store/internal/app"
	"github.com/your-org/caster-store/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const adminPassword = "Adm1nSecret"

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:          "Caster Store",
			Version:       "test",
			Environment:   "test",
			URL:           "https://shop.example.com",
			OrderHashSalt: "test-salt",
			CompanyName:   "Caster Store",
			AdminEmail:    "admin@example.com",
			AdminPassword: adminPassword,
		},
		Server: config.ServerConfig{
			Port:           "0",
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Database: config.DatabaseConfig{Driver: config.DriverMemory},
		JWT: config.JWTConfig{
			Secret:             "test-secret-that-is-at-least-32-chars",
			Issuer:             "caster-store-test",
			AccessTokenExpiry:  15 * time.Minute,
			RefreshTokenExpiry: time.Hour,
		},
		Security: config.SecurityConfig{
			BcryptCost:         4,
			RateLimitPerMinute: 1000,
			RateLimitBurst:     1000,
			LoginRatePerMinute: 100,
			CORSAllowedOrigins: []string{"https://shop.example.com"},
			CORSAllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			CORSAllowedHeaders: []string{"Content-Type", "Authorization", "X-Session-ID"},
		},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c *client) do(method, path string, body any, headers map[string]string) (int, envelope, http.Header) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env, w.Header()
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func newClient(t *testing.T) (*client, *app.App) {
	t.Helper()

	a, err := app.New(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	require.NoError(t, a.Seed(context.Background()))

	return &client{t: t, handler: a.Server().Handler()}, a
}

type productView struct {
	ID            uint   `json:"id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	StockQuantity int    `json:"stock_quantity"`
}

type orderView struct {
	ID          uint   `json:"id"`
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Email       string `json:"email"`
	TotalAmount string `json:"total_amount"`
	Items       []struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	} `json:"items"`
}

type authView struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID   uint   `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func productsBySKU(t *testing.T, c *client) map[string]productView {
	t.Helper()

	status, env, _ := c.do(http.MethodGet, "/api/v1/products?limit=50", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var page struct {
		Products []productView `json:"products"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))

	out := make(map[string]productView, len(page.Products))
	for _, p := range page.Products {
		out[p.SKU] = p
	}
	return out
}

func login(t *testing.T, c *client, email, password string) authView {
	t.Helper()

	status, env, _ := c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": email, "password": password}, nil)
	require.Equal(t, http.StatusOK, status, env.Error)

	var auth authView
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	require.NotEmpty(t, auth.AccessToken)
	return auth
}

func checkoutBody(email string) gin.H {
	return gin.H{
		"email":          email,
		"full_name":      "Jordan Lee",
		"phone":          "010-1234-5678",
		"address":        "12 Factory Road",
		"payment_method": "bank",
	}
}

func TestHealth(t *testing.T) {
	c, _ := newClient(t)

	status, _, headers := c.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, headers.Get("X-Request-ID"))

	status, _, _ = c.do(http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestSeedIsIdempotent(t *testing.T) {
	c, a := newClient(t)
	require.NoError(t, a.Seed(context.Background()))

	products := productsBySKU(t, c)
	assert.Len(t, products, 4)
	assert.Equal(t, 60, products["IC-150-BR"].StockQuantity)

	login(t, c, "admin@example.com", adminPassword)
}

func TestGuestCheckoutFlow(t *testing.T) {
	c, _ := newClient(t)
	products := productsBySKU(t, c)
	swivel := products["IC-100-SW"]
	require.NotZero(t, swivel.ID)

	session := map[string]string{"X-Session-ID": "guest-session-1"}

	status, env, headers := c.do(http.MethodPost, "/api/v1/cart/items", gin.H{"product_id": swivel.ID, "quantity": 2}, session)
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, "guest-session-1", headers.Get("X-Session-ID"))

	status, env, _ = c.do(http.MethodPost, "/api/v1/orders", checkoutBody("Jordan@Example.com"), session)
	require.Equal(t, http.StatusCreated, status, env.Error)
	assert.Equal(t, "Order created successfully", env.Message)

	var placed orderView
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	assert.Regexp(t, regexp.MustCompile(`^ORD-[A-Z0-9]{10,}$`), placed.OrderNumber)
	assert.Equal(t, "pending", placed.Status)
	assert.True(t, decimal.RequireFromString(placed.TotalAmount).Equal(decimal.NewFromInt(37000)), placed.TotalAmount)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, 2, placed.Items[0].Quantity)

	assert.Equal(t, 118, productsBySKU(t, c)["IC-100-SW"].StockQuantity)

	var cartView struct {
		Items []any `json:"items"`
	}
	status, env, _ = c.do(http.MethodGet, "/api/v1/cart", nil, session)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &cartView))
	assert.Empty(t, cartView.Items)

	lookup := fmt.Sprintf("/api/v1/orders/lookup?order_number=%s&email=%s", placed.OrderNumber, "jordan@example.com")
	status, env, _ = c.do(http.MethodGet, lookup, nil, nil)
	require.Equal(t, http.StatusOK, status, env.Error)
	var found orderView
	require.NoError(t, json.Unmarshal(env.Data, &found))
	assert.Equal(t, placed.ID, found.ID)

	status, env, _ = c.do(http.MethodGet, fmt.Sprintf("/api/v1/orders/lookup?order_number=%s&email=other@example.com", placed.OrderNumber), nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, env.Error)

	status, _, _ = c.do(http.MethodGet, "/api/v1/orders/lookup?order_number="+placed.OrderNumber, nil, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCheckoutInsufficientStock(t *testing.T) {
	c, _ := newClient(t)
	brake := productsBySKU(t, c)["IC-150-BR"]

	body := checkoutBody("buyer@example.com")
	body["items"] = []gin.H{{"product_id": brake.ID, "quantity": 100}}

	status, env, _ := c.do(http.MethodPost, "/api/v1/orders", body, map[string]string{"X-Session-ID": "s-2"})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Error, "insufficient stock")

	var details struct {
		ProductID   uint   `json:"product_id"`
		ProductName string `json:"product_name"`
		Requested   int    `json:"requested"`
		Available   int    `json:"available"`
	}
	require.NoError(t, json.Unmarshal(env.Details, &details))
	assert.Equal(t, brake.ID, details.ProductID)
	assert.Equal(t, brake.Name, details.ProductName)
	assert.Equal(t, 100, details.Requested)
	assert.Equal(t, 60, details.Available)

	assert.Equal(t, 60, productsBySKU(t, c)["IC-150-BR"].StockQuantity)
}

func TestCheckoutValidation(t *testing.T) {
	c, _ := newClient(t)

	status, env, _ := c.do(http.MethodPost, "/api/v1/orders", gin.H{"email": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid request data", env.Error)

	status, env, _ = c.do(http.MethodPost, "/api/v1/orders", checkoutBody("buyer@example.com"), nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, env.Error)
}

func TestCustomerAndAdminOrderLifecycle(t *testing.T) {
	c, _ := newClient(t)
	products := productsBySKU(t, c)
	rigid := products["MC-75-RG"]

	status, env, _ := c.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":            "buyer@example.com",
		"password":         "Passw0rd1",
		"confirm_password": "Passw0rd1",
		"full_name":        "Jordan Lee",
	}, nil)
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env, _ = c.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":            "buyer@example.com",
		"password":         "Passw0rd1",
		"confirm_password": "Passw0rd1",
		"full_name":        "Jordan Lee",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.NotEmpty(t, env.Error)

	status, _, _ = c.do(http.MethodPost, "/api/v1/auth/login", gin.H{"email": "buyer@example.com", "password": "wrong-pass1"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	customer := login(t, c, "buyer@example.com", "Passw0rd1")
	assert.Equal(t, "customer", customer.User.Role)
	admin := login(t, c, "admin@example.com", adminPassword)
	assert.Equal(t, "admin", admin.User.Role)

	status, _, _ = c.do(http.MethodGet, "/api/v1/orders", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	body := checkoutBody("buyer@example.com")
	body["items"] = []gin.H{{"product_id": rigid.ID, "quantity": 4}}
	status, env, _ = c.do(http.MethodPost, "/api/v1/orders", body, bearer(customer.AccessToken))
	require.Equal(t, http.StatusCreated, status, env.Error)
	var placed orderView
	require.NoError(t, json.Unmarshal(env.Data, &placed))
	assert.Equal(t, 296, productsBySKU(t, c)["MC-75-RG"].StockQuantity)

	status, env, _ = c.do(http.MethodGet, "/api/v1/orders", nil, bearer(customer.AccessToken))
	require.Equal(t, http.StatusOK, status)
	var mine struct {
		Orders []orderView `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Orders, 1)
	assert.Equal(t, placed.ID, mine.Orders[0].ID)

	orderPath := fmt.Sprintf("/api/v1/orders/%d", placed.ID)
	status, _, _ = c.do(http.MethodGet, orderPath, nil, bearer(customer.AccessToken))
	assert.Equal(t, http.StatusOK, status)

	statusPath := fmt.Sprintf("/api/v1/admin/orders/%d/status", placed.ID)
	status, _, _ = c.do(http.MethodPut, statusPath, gin.H{"status": "processing"}, bearer(customer.AccessToken))
	assert.Equal(t, http.StatusForbidden, status)

	status, env, _ = c.do(http.MethodPut, statusPath, gin.H{"status": "delivered"}, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, env.Error)

	status, env, _ = c.do(http.MethodPut, statusPath, gin.H{"status": "processing", "comment": "packed"}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, status, env.Error)
	var updated orderView
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "processing", updated.Status)

	status, env, _ = c.do(http.MethodPost, orderPath+"/cancel", nil, bearer(customer.AccessToken))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, env.Error)
	assert.Equal(t, 296, productsBySKU(t, c)["MC-75-RG"].StockQuantity)

	status, env, _ = c.do(http.MethodPost, orderPath+"/cancel", gin.H{"reason": "customer called"}, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, status, env.Error)
	assert.Equal(t, 300, productsBySKU(t, c)["MC-75-RG"].StockQuantity)

	status, _, _ = c.do(http.MethodPut, statusPath, gin.H{"status": "shipped"}, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = c.do(http.MethodGet, "/api/v1/admin/orders/999999", nil, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusNotFound, status)

	status, env, _ = c.do(http.MethodGet, "/api/v1/orders/abc", nil, bearer(customer.AccessToken))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid order ID", env.Error)
}

func TestOtherCustomersOrderIsHidden(t *testing.T) {
	c, _ := newClient(t)
	wheel := productsBySKU(t, c)["WH-125-PU"]

	register := func(email string) authView {
		status, env, _ := c.do(http.MethodPost, "/api/v1/auth/register", gin.H{
			"email":            email,
			"password":         "Passw0rd1",
			"confirm_password": "Passw0rd1",
			"full_name":        "Customer",
		}, nil)
		require.Equal(t, http.StatusCreated, status, env.Error)
		var auth authView
		require.NoError(t, json.Unmarshal(env.Data, &auth))
		return auth
	}
	owner := register("owner@example.com")
	other := register("other@example.com")

	body := checkoutBody("owner@example.com")
	body["items"] = []gin.H{{"product_id": wheel.ID, "quantity": 1}}
	status, env, _ := c.do(http.MethodPost, "/api/v1/orders", body, bearer(owner.AccessToken))
	require.Equal(t, http.StatusCreated, status, env.Error)
	var placed orderView
	require.NoError(t, json.Unmarshal(env.Data, &placed))

	orderPath := fmt.Sprintf("/api/v1/orders/%d", placed.ID)
	status, _, _ = c.do(http.MethodGet, orderPath, nil, bearer(other.AccessToken))
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = c.do(http.MethodPost, orderPath+"/cancel", nil, bearer(other.AccessToken))
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = c.do(http.MethodGet, "/api/v1/admin/stats", nil, bearer(other.AccessToken))
	assert.Equal(t, http.StatusForbidden, status)

	status, _, _ = c.do(http.MethodGet, orderPath, nil, bearer("not-a-token"))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminListsUsers(t *testing.T) {
	c, _ := newClient(t)

	status, env, _ := c.do(http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":            "mina@example.com",
		"password":         "Passw0rd1",
		"confirm_password": "Passw0rd1",
		"full_name":        "Mina Kim",
	}, nil)
	require.Equal(t, http.StatusCreated, status, env.Error)
	var customer authView
	require.NoError(t, json.Unmarshal(env.Data, &customer))

	admin := login(t, c, "admin@example.com", adminPassword)

	status, env, _ = c.do(http.MethodGet, "/api/v1/admin/users?search=mina", nil, bearer(admin.AccessToken))
	require.Equal(t, http.StatusOK, status, env.Error)
	var page struct {
		Users []struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"users"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	require.Len(t, page.Users, 1)
	assert.Equal(t, "mina@example.com", page.Users[0].Email)
	assert.Empty(t, page.Users[0].Password)
	assert.Equal(t, int64(1), page.Pagination.Total)

	status, _, _ = c.do(http.MethodGet, "/api/v1/admin/users?role=owner", nil, bearer(admin.AccessToken))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _, _ = c.do(http.MethodGet, "/api/v1/admin/users", nil, bearer(customer.AccessToken))
	assert.Equal(t, http.StatusForbidden, status)
}

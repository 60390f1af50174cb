//go:build integration

package router_test

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/napestudio/stock-control-sub000/internal/config"
	"github.com/napestudio/stock-control-sub000/internal/infra"
	"github.com/napestudio/stock-control-sub000/internal/model"
	"github.com/napestudio/stock-control-sub000/internal/router"
	"github.com/napestudio/stock-control-sub000/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var reader *bytes.Buffer
	if body == nil {
		reader = bytes.NewBuffer(nil)
	} else {
		reader = body
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func assertAmount(t *testing.T, want, got string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(decimal.RequireFromString(got)),
		"want %s, got %s", want, got)
}

type testEnv struct {
	server   *httptest.Server
	db       *gorm.DB
	token    string // admin JWT
	register *model.CashRegister
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("pos_test"),
		tcPostgres.WithUsername("pos"),
		tcPostgres.WithPassword("pos"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		StoreName:          "Test Store",
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("admin-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &model.User{
		Username:     "admin",
		Name:         "Admin",
		PasswordHash: string(hash),
		Role:         "admin",
		Active:       true,
	}
	require.NoError(t, db.Create(admin).Error)

	register := &model.CashRegister{Name: "till 1", Active: true}
	require.NoError(t, db.Create(register).Error)

	srv := httptest.NewServer(router.New(cfg, db, rdb, worker.NewDispatcher(rdb)))
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "admin", "password": "admin-pass"}), "")
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, db: db, token: loginBody.AccessToken, register: register}
}

func (env *testEnv) seedVariant(t *testing.T, sku string, price string, qty int) *model.ProductVariant {
	t.Helper()
	product := &model.Product{Name: "Product " + sku}
	require.NoError(t, env.db.Create(product).Error)
	variant := &model.ProductVariant{
		ProductID: product.ID,
		SKU:       sku,
		Name:      "Variant " + sku,
		Price:     decimal.RequireFromString(price),
		Cost:      decimal.RequireFromString(price).Div(decimal.NewFromInt(2)),
		Active:    true,
	}
	require.NoError(t, env.db.Create(variant).Error)
	require.NoError(t, env.db.Create(&model.Stock{VariantID: variant.ID, Quantity: qty}).Error)
	return variant
}

func (env *testEnv) openSession(t *testing.T, opening string) string {
	t.Helper()
	resp := do(t, env.server, "POST", "/v1/sessions",
		jsonBody(t, map[string]any{"register_id": env.register.ID.String(), "opening_amount": opening}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session struct {
		ID string `json:"id"`
	}
	decodeJSON(t, resp, &session)
	return session.ID
}

func TestFullSaleCycle(t *testing.T) {
	env := setupTestEnv(t)
	variant := env.seedVariant(t, "SKU-1", "25.00", 10)
	env.openSession(t, "100")

	// Draft
	draftResp := do(t, env.server, "POST", "/v1/sales", jsonBody(t, map[string]any{}), env.token)
	require.Equal(t, http.StatusCreated, draftResp.StatusCode)
	var draft struct {
		ID string `json:"id"`
	}
	decodeJSON(t, draftResp, &draft)

	// Add item
	itemResp := do(t, env.server, "POST", "/v1/sales/"+draft.ID+"/items",
		jsonBody(t, map[string]any{"variant_id": variant.ID.String(), "quantity": 2}), env.token)
	require.Equal(t, http.StatusCreated, itemResp.StatusCode)

	// Complete with a split tender
	completeResp := do(t, env.server, "POST", "/v1/sales/"+draft.ID+"/complete",
		jsonBody(t, map[string]any{
			"payments": []map[string]any{
				{"method": "cash", "amount": "30"},
				{"method": "credit_card", "amount": "20"},
			},
			"customer": map[string]any{"name": "Ada Lovelace", "email": "ada@example.com"},
		}), env.token)
	require.Equal(t, http.StatusOK, completeResp.StatusCode)
	var sale struct {
		Status string `json:"status"`
		Total  string `json:"total"`
	}
	decodeJSON(t, completeResp, &sale)
	assert.Equal(t, "COMPLETED", sale.Status)
	assertAmount(t, "50", sale.Total)

	// Stock debited
	var stock model.Stock
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&stock).Error)
	assert.Equal(t, 8, stock.Quantity)

	// Listing sees the sale for today
	listResp := do(t, env.server, "GET", "/v1/sales", nil, env.token)
	require.Equal(t, http.StatusOK, listResp.StatusCode)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, listResp, &list)
	assert.Equal(t, int64(1), list.Total)
}

func TestRefundRestoresStock(t *testing.T) {
	env := setupTestEnv(t)
	variant := env.seedVariant(t, "SKU-2", "10.00", 5)
	env.openSession(t, "50")

	quickResp := do(t, env.server, "POST", "/v1/sales/quick",
		jsonBody(t, map[string]any{"variant_id": variant.ID.String(), "quantity": 3, "method": "cash"}), env.token)
	require.Equal(t, http.StatusCreated, quickResp.StatusCode)
	var sale struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeJSON(t, quickResp, &sale)
	require.Equal(t, "COMPLETED", sale.Status)

	refundResp := do(t, env.server, "POST", "/v1/sales/"+sale.ID+"/refund",
		jsonBody(t, map[string]any{"reason": "customer returned the goods"}), env.token)
	require.Equal(t, http.StatusOK, refundResp.StatusCode)
	var refunded struct {
		Status string `json:"status"`
	}
	decodeJSON(t, refundResp, &refunded)
	assert.Equal(t, "REFUNDED", refunded.Status)

	var stock model.Stock
	require.NoError(t, env.db.Where("variant_id = ?", variant.ID).First(&stock).Error)
	assert.Equal(t, 5, stock.Quantity)
}

func TestSecondOpenSessionOnRegisterRejected(t *testing.T) {
	env := setupTestEnv(t)
	env.openSession(t, "100")

	resp := do(t, env.server, "POST", "/v1/sessions",
		jsonBody(t, map[string]any{"register_id": env.register.ID.String(), "opening_amount": "50"}), env.token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestCloseSessionWithExactCount(t *testing.T) {
	env := setupTestEnv(t)
	variant := env.seedVariant(t, "SKU-3", "20.00", 10)
	sessionID := env.openSession(t, "100")

	quickResp := do(t, env.server, "POST", "/v1/sales/quick",
		jsonBody(t, map[string]any{"variant_id": variant.ID.String(), "quantity": 1, "method": "cash"}), env.token)
	require.Equal(t, http.StatusCreated, quickResp.StatusCode)

	summaryResp := do(t, env.server, "GET", "/v1/sessions/"+sessionID+"/summary", nil, env.token)
	require.Equal(t, http.StatusOK, summaryResp.StatusCode)
	var summary struct {
		ExpectedTotal string `json:"expected_total"`
	}
	decodeJSON(t, summaryResp, &summary)
	assertAmount(t, "120", summary.ExpectedTotal)

	closeResp := do(t, env.server, "POST", "/v1/sessions/"+sessionID+"/close",
		jsonBody(t, map[string]any{"counted": map[string]any{"cash": "120"}}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		Status      string  `json:"status"`
		Discrepancy *string `json:"discrepancy"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "CLOSED", closed.Status)
	require.NotNil(t, closed.Discrepancy)
	assert.Equal(t, "none", *closed.Discrepancy)
}

func TestPriceCheckPublicAndCached(t *testing.T) {
	env := setupTestEnv(t)
	env.seedVariant(t, "SKU-4", "9.99", 3)

	for i := 0; i < 2; i++ { // second hit comes from the cache
		resp := do(t, env.server, "GET", "/v1/price/SKU-4", nil, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var price struct {
			SKU      string `json:"sku"`
			Price    string `json:"price"`
			InStock  bool   `json:"in_stock"`
			Quantity int    `json:"quantity"`
		}
		decodeJSON(t, resp, &price)
		assert.Equal(t, "SKU-4", price.SKU)
		assertAmount(t, "9.99", price.Price)
		assert.True(t, price.InStock)
		assert.Equal(t, 3, price.Quantity)
	}
}

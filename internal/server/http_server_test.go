package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"scantrack/internal/config"
	"scantrack/internal/database"
	"scantrack/internal/models"
	"scantrack/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db      *database.DB
	server  *HTTPServer
	company *models.ShippingCompany
	device  *models.Device
}

func setupTestServer(t *testing.T, cfg config.ServerConfig) *testEnv {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	company, err := db.CreateCompany(ctx, "Aramex")
	require.NoError(t, err)
	device, err := db.CreateDevice(ctx, "Warehouse PDA 1")
	require.NoError(t, err)

	logger := zerolog.Nop()
	cache := repository.NewMemoryDeviceCache(time.Minute)
	srv := NewHTTPServer(cfg, db, cache, &logger)

	return &testEnv{db: db, server: srv, company: company, device: device}
}

func openConfig() config.ServerConfig {
	return config.ServerConfig{Port: 0}
}

func (e *testEnv) do(t *testing.T, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload["code"]
}

func TestSubmitScanCreated(t *testing.T) {
	env := setupTestServer(t, openConfig())

	rec := env.do(t, http.MethodPost, "/api/v1/shipments", "", map[string]any{
		"barcode":    "PKG-1001",
		"company_id": env.company.ID,
		"device_id":  env.device.ID,
		"scanned_at": "2026-01-10T08:00:00Z",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var shipment models.Shipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shipment))
	assert.NotZero(t, shipment.ID)
	assert.Equal(t, "PKG-1001", shipment.Barcode)
	assert.Equal(t, "Aramex", shipment.CompanyName)
	require.NotNil(t, shipment.DeviceName)
	assert.Equal(t, "Warehouse PDA 1", *shipment.DeviceName)
	assert.Equal(t, models.StatusInProgress, shipment.Status)
}

func TestSubmitScanValidation(t *testing.T) {
	env := setupTestServer(t, openConfig())

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing barcode", map[string]any{"company_id": env.company.ID}},
		{"blank barcode", map[string]any{"barcode": "   ", "company_id": env.company.ID}},
		{"missing company", map[string]any{"barcode": "PKG-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/v1/shipments", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "validation", decodeErrorCode(t, rec))
		})
	}
}

func TestSubmitScanUnknownCompany(t *testing.T) {
	env := setupTestServer(t, openConfig())

	rec := env.do(t, http.MethodPost, "/api/v1/shipments", "", map[string]any{
		"barcode":    "PKG-1",
		"company_id": 9999,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "company_not_found", decodeErrorCode(t, rec))
}

func TestSubmitScanInactiveDevice(t *testing.T) {
	env := setupTestServer(t, openConfig())
	require.NoError(t, env.db.SetDeviceActive(context.Background(), env.device.ID, false))

	rec := env.do(t, http.MethodPost, "/api/v1/shipments", "", map[string]any{
		"barcode":    "PKG-1",
		"company_id": env.company.ID,
		"device_id":  env.device.ID,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "device_inactive", decodeErrorCode(t, rec))
}

func TestListShipments(t *testing.T) {
	env := setupTestServer(t, openConfig())
	ctx := context.Background()

	base := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := env.db.CreateShipment(ctx, models.ScanRequest{
			Barcode:   fmt.Sprintf("PKG-%d", i),
			CompanyID: env.company.ID,
			ScannedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/shipments?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var shipments []models.Shipment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shipments))
	require.Len(t, shipments, 2)
	assert.Equal(t, "PKG-2", shipments[0].Barcode)
	assert.Equal(t, "PKG-1", shipments[1].Barcode)
}

func TestListCompanies(t *testing.T) {
	env := setupTestServer(t, openConfig())
	_, err := env.db.CreateCompany(context.Background(), "FedEx")
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/api/v1/companies", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var companies []models.ShippingCompany
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &companies))
	require.Len(t, companies, 2)
	assert.Equal(t, "Aramex", companies[0].CompanyName)
	assert.Equal(t, "FedEx", companies[1].CompanyName)
}

func TestHealthzSkipsAuth(t *testing.T) {
	cfg := openConfig()
	cfg.Auth.Enabled = true
	env := setupTestServer(t, cfg)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRejectsMissingAndInvalidKey(t *testing.T) {
	cfg := openConfig()
	cfg.Auth.Enabled = true
	env := setupTestServer(t, cfg)

	rec := env.do(t, http.MethodGet, "/api/v1/companies", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/companies", "key_wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decodeErrorCode(t, rec))
}

func TestAuthAcceptsConfiguredClientKey(t *testing.T) {
	cfg := openConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.APIKeys = []config.ClientKey{{Key: "client-secret", Name: "warehouse app"}}
	env := setupTestServer(t, cfg)

	rec := env.do(t, http.MethodGet, "/api/v1/companies", "client-secret", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthAcceptsDeviceKeyAndCachesIt(t *testing.T) {
	cfg := openConfig()
	cfg.Auth.Enabled = true
	env := setupTestServer(t, cfg)

	rec := env.do(t, http.MethodGet, "/api/v1/companies", env.device.APIKey, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// После первого запроса устройство попадает в кеш
	cached, err := env.server.devices.GetDevice(context.Background(), env.device.APIKey)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, env.device.ID, cached.ID)
}

func TestAuthRejectsInactiveDeviceKey(t *testing.T) {
	cfg := openConfig()
	cfg.Auth.Enabled = true
	env := setupTestServer(t, cfg)
	require.NoError(t, env.db.SetDeviceActive(context.Background(), env.device.ID, false))

	rec := env.do(t, http.MethodGet, "/api/v1/companies", env.device.APIKey, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "device_inactive", decodeErrorCode(t, rec))
}

func TestRateLimitPerKey(t *testing.T) {
	cfg := openConfig()
	cfg.RateLimit.RPS = 1
	cfg.RateLimit.Burst = 2
	env := setupTestServer(t, cfg)

	limited := false
	for i := 0; i < 5; i++ {
		rec := env.do(t, http.MethodGet, "/api/v1/companies", "key-a", nil)
		if rec.Code == http.StatusTooManyRequests {
			assert.Equal(t, "rate_limited", decodeErrorCode(t, rec))
			limited = true
		}
	}
	assert.True(t, limited, "burst exhausted requests should be limited")

	// Лимит на ключ, другой ключ не затронут
	rec := env.do(t, http.MethodGet, "/api/v1/companies", "key-b", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	env := setupTestServer(t, openConfig())

	rec := env.do(t, http.MethodDelete, "/api/v1/shipments", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/companies", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

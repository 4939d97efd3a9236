package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scantrack/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	logger := zerolog.Nop()
	return NewClient(srv.URL, "key_test", &logger)
}

func TestSubmitScan(t *testing.T) {
	var gotKey string
	var gotReq models.ScanRequest

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/shipments", r.URL.Path)
		gotKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Shipment{
			ID:          42,
			Barcode:     gotReq.Barcode,
			CompanyID:   gotReq.CompanyID,
			CompanyName: "Aramex",
			Status:      models.StatusInProgress,
		})
	}))

	scannedAt := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	shipment, err := client.SubmitScan(context.Background(), models.ScanRequest{
		Barcode:   "PKG-1001",
		CompanyID: 3,
		UserID:    7,
		ScannedAt: scannedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, "key_test", gotKey)
	assert.Equal(t, int64(42), shipment.ID)
	assert.Equal(t, "Aramex", shipment.CompanyName)
	assert.True(t, gotReq.ScannedAt.Equal(scannedAt), "original capture time must reach the service")
}

func TestSubmitScanDomainErrors(t *testing.T) {
	tests := []struct {
		code    string
		status  int
		wantErr error
	}{
		{"company_not_found", http.StatusNotFound, models.ErrCompanyNotFound},
		{"device_inactive", http.StatusForbidden, models.ErrDeviceInactive},
		{"user_not_found", http.StatusNotFound, models.ErrUserNotFound},
		{"device_not_found", http.StatusNotFound, models.ErrDeviceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(map[string]string{"error": "rejected", "code": tt.code})
			}))

			_, err := client.SubmitScan(context.Background(), models.ScanRequest{Barcode: "X", CompanyID: 1})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, models.IsDomainError(err))
		})
	}
}

func TestSubmitScanServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "internal server error", "code": "internal"})
	}))

	_, err := client.SubmitScan(context.Background(), models.ScanRequest{Barcode: "X", CompanyID: 1})
	require.Error(t, err)
	assert.False(t, models.IsDomainError(err))
	assert.Contains(t, err.Error(), "500")
}

func TestSubmitScanConnectionRefused(t *testing.T) {
	logger := zerolog.Nop()
	client := NewClient("http://127.0.0.1:1", "key_test", &logger)

	_, err := client.SubmitScan(context.Background(), models.ScanRequest{Barcode: "X", CompanyID: 1})
	require.Error(t, err)
	assert.False(t, models.IsDomainError(err))
}

func TestListCompanies(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/companies", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]models.ShippingCompany{
			{ID: 1, CompanyName: "Aramex"},
			{ID: 2, CompanyName: "FedEx"},
		})
	}))

	companies, err := client.ListCompanies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "Aramex", companies[0].CompanyName)
}

func TestProbe(t *testing.T) {
	healthy := true
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/healthz", r.URL.Path)
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	assert.True(t, client.Probe(context.Background()))

	healthy = false
	assert.False(t, client.Probe(context.Background()))
}

func TestProbeUnreachableHost(t *testing.T) {
	logger := zerolog.Nop()
	client := NewClient("http://127.0.0.1:1", "key_test", &logger)
	assert.False(t, client.Probe(context.Background()))
}

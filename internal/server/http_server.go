package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scantrack/internal/config"
	"scantrack/internal/database"
	"scantrack/internal/domain"
	"scantrack/internal/metrics"
	"scantrack/internal/models"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the shipment service JSON API.
type HTTPServer struct {
	cfg     config.ServerConfig
	db      *database.DB
	devices domain.DeviceCache
	server  *http.Server
	auth    *HTTPAuth
	logger  zerolog.Logger
}

func NewHTTPServer(cfg config.ServerConfig, db *database.DB, devices domain.DeviceCache, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:     cfg,
		db:      db,
		devices: devices,
		logger:  logger.With().Str("component", "http").Logger(),
	}
	srv.auth = NewHTTPAuth(cfg, db, devices)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/shipments", srv.handleShipments)
	mux.HandleFunc("/api/v1/companies", srv.handleCompanies)

	// healthz stays outside auth: it is the connectivity probe target.
	root := http.NewServeMux()
	root.HandleFunc("/healthz", srv.handleHealthz)
	root.Handle("/api/", srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           loggingMiddleware(&srv.logger, root),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the full handler chain, used by httptest in tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleShipments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitScan(w, r)
	case http.MethodGet:
		s.handleListShipments(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

func (s *HTTPServer) handleSubmitScan(w http.ResponseWriter, r *http.Request) {
	var req models.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}

	req.Barcode = strings.TrimSpace(req.Barcode)
	if req.Barcode == "" {
		writeError(w, http.StatusBadRequest, "validation", "barcode is required")
		return
	}
	if req.CompanyID <= 0 {
		writeError(w, http.StatusBadRequest, "validation", "company_id is required")
		return
	}

	shipment, err := s.db.CreateShipment(r.Context(), req)
	if err != nil {
		s.writeScanError(w, req, err)
		return
	}

	s.logger.Info().
		Str("barcode", shipment.Barcode).
		Int64("shipment_id", shipment.ID).
		Int64("company_id", shipment.CompanyID).
		Msg("scan accepted")
	writeJSON(w, http.StatusCreated, shipment)
}

func (s *HTTPServer) writeScanError(w http.ResponseWriter, req models.ScanRequest, err error) {
	switch {
	case errors.Is(err, models.ErrCompanyNotFound):
		metrics.IncScanRejected("company_not_found")
		writeError(w, http.StatusNotFound, "company_not_found", err.Error())
	case errors.Is(err, models.ErrDeviceInactive):
		metrics.IncScanRejected("device_inactive")
		writeError(w, http.StatusForbidden, "device_inactive", err.Error())
	default:
		s.logger.Error().Err(err).Str("barcode", req.Barcode).Msg("create shipment failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func (s *HTTPServer) handleListShipments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "validation", "invalid limit")
			return
		}
		limit = parsed
	}

	shipments, err := s.db.ListShipments(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("list shipments failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	if shipments == nil {
		shipments = []models.Shipment{}
	}
	writeJSON(w, http.StatusOK, shipments)
}

func (s *HTTPServer) handleCompanies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	companies, err := s.db.ListCompanies(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("list companies failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	if companies == nil {
		companies = []models.ShippingCompany{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message, "code": code})
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"scantrack/internal/models"

	"github.com/rs/zerolog"
)

const defaultTimeout = 10 * time.Second

// Client talks to the shipment service HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	header  string
	http    *http.Client
	logger  *zerolog.Logger
}

func NewClient(baseURL, apiKey string, logger *zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		header:  "x-api-key",
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SubmitScan posts one scan and returns the acknowledged shipment. Domain
// rejections come back as the models sentinel errors; everything else is a
// transport failure.
func (c *Client) SubmitScan(ctx context.Context, req models.ScanRequest) (*models.Shipment, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode scan request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/shipments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build scan request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(c.header, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit scan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	var shipment models.Shipment
	if err := json.NewDecoder(resp.Body).Decode(&shipment); err != nil {
		return nil, fmt.Errorf("decode shipment: %w", err)
	}
	return &shipment, nil
}

// ListCompanies fetches the company selector contents.
func (c *Client) ListCompanies(ctx context.Context) ([]models.ShippingCompany, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/companies", nil)
	if err != nil {
		return nil, fmt.Errorf("build companies request: %w", err)
	}
	httpReq.Header.Set(c.header, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	var companies []models.ShippingCompany
	if err := json.NewDecoder(resp.Body).Decode(&companies); err != nil {
		return nil, fmt.Errorf("decode companies: %w", err)
	}
	return companies, nil
}

// Probe reports whether the service answers its health endpoint. Used as the
// connectivity watcher's host signal source.
func (c *Client) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) decodeError(resp *http.Response) error {
	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("shipment service returned status %d", resp.StatusCode)
	}

	switch er.Code {
	case "company_not_found":
		return models.ErrCompanyNotFound
	case "device_inactive":
		return models.ErrDeviceInactive
	case "user_not_found":
		return models.ErrUserNotFound
	case "device_not_found":
		return models.ErrDeviceNotFound
	}
	return fmt.Errorf("shipment service returned status %d: %s", resp.StatusCode, er.Error)
}

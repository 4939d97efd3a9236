package server

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"

	"scantrack/internal/config"
	"scantrack/internal/database"
	"scantrack/internal/domain"

	"golang.org/x/time/rate"
)

// HTTPAuth validates api keys and applies a per-key rate limit. A key is
// either a configured client key or a registered device key; device lookups
// go through the cache first and fall back to the database.
type HTTPAuth struct {
	cfg      config.ServerConfig
	clients  map[string]config.ClientKey
	devices  domain.DeviceCache
	db       *database.DB
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.ServerConfig, db *database.DB, devices domain.DeviceCache) *HTTPAuth {
	m := make(map[string]config.ClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m, devices: devices, db: db}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				code := "unauthorized"
				if err == errDeviceInactive {
					statusCode = http.StatusForbidden
					code = "device_inactive"
				}
				writeError(w, statusCode, code, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

var errDeviceInactive = fmt.Errorf("device is inactive")

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey()))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	for configured := range a.clients {
		if subtle.ConstantTimeCompare([]byte(configured), []byte(apiKey)) == 1 {
			return nil
		}
	}

	device, err := a.devices.GetDevice(r.Context(), apiKey)
	if err != nil || device == nil {
		dbDevice, dbErr := a.db.GetDeviceByAPIKey(r.Context(), apiKey)
		if dbErr != nil {
			return fmt.Errorf("device lookup failed")
		}
		if dbDevice == nil {
			return fmt.Errorf("invalid api key")
		}
		device = dbDevice
		_ = a.devices.SetDevice(r.Context(), device)
	}

	if !device.Active {
		return errDeviceInactive
	}
	return nil
}

func (a *HTTPAuth) headerAPIKey() string {
	header := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}
	return header
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	key := a.clientKey(r)
	lim := a.getLimiter(key)
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(a.headerAPIKey())); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

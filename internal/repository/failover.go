package repository

import (
	"context"
	"sync/atomic"
	"time"

	"scantrack/internal/domain"
	"scantrack/internal/models"

	"github.com/rs/zerolog"
)

// FailoverDeviceCache serves from the primary (redis) cache until it errors,
// then falls back to the in-memory cache and periodically retries the
// primary.
type FailoverDeviceCache struct {
	primary   domain.DeviceCache
	fallback  domain.DeviceCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverDeviceCache(primary, fallback domain.DeviceCache, logger *zerolog.Logger) *FailoverDeviceCache {
	return &FailoverDeviceCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDeviceCache) GetDevice(ctx context.Context, apiKey string) (*models.Device, error) {
	if !r.isDown.Load() {
		device, err := r.primary.GetDevice(ctx, apiKey)
		if err == nil {
			return device, nil
		}
		r.logger.Error().Err(err).Msg("Primary device cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	// Try to recover after 1 minute
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		device, err := r.primary.GetDevice(ctx, apiKey)
		if err == nil {
			r.isDown.Store(false)
			return device, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetDevice(ctx, apiKey)
}

func (r *FailoverDeviceCache) SetDevice(ctx context.Context, device *models.Device) error {
	if !r.isDown.Load() {
		err := r.primary.SetDevice(ctx, device)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary device cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.SetDevice(ctx, device)
}

func (r *FailoverDeviceCache) InvalidateDevice(ctx context.Context, apiKey string) error {
	if !r.isDown.Load() {
		err := r.primary.InvalidateDevice(ctx, apiKey)
		if err == nil {
			return nil
		}
		r.logger.Error().Err(err).Msg("Primary device cache failed, falling back to memory")
		r.isDown.Store(true)
		r.lastCheck = time.Now()
	}

	return r.fallback.InvalidateDevice(ctx, apiKey)
}

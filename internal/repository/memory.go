package repository

import (
	"context"
	"sync"
	"time"

	"scantrack/internal/models"
)

type memoryEntry struct {
	device    *models.Device
	expiresAt time.Time
}

type MemoryDeviceCache struct {
	devices sync.Map
	ttl     time.Duration
}

func NewMemoryDeviceCache(ttl time.Duration) *MemoryDeviceCache {
	return &MemoryDeviceCache{ttl: ttl}
}

func (r *MemoryDeviceCache) GetDevice(ctx context.Context, apiKey string) (*models.Device, error) {
	val, ok := r.devices.Load(apiKey)
	if !ok {
		return nil, nil
	}
	entry := val.(*memoryEntry)
	if r.ttl > 0 && time.Now().After(entry.expiresAt) {
		r.devices.Delete(apiKey)
		return nil, nil
	}
	return entry.device, nil
}

func (r *MemoryDeviceCache) SetDevice(ctx context.Context, device *models.Device) error {
	r.devices.Store(device.APIKey, &memoryEntry{
		device:    device,
		expiresAt: time.Now().Add(r.ttl),
	})
	return nil
}

func (r *MemoryDeviceCache) InvalidateDevice(ctx context.Context, apiKey string) error {
	r.devices.Delete(apiKey)
	return nil
}

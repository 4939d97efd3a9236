package models

import "time"

type Device struct {
	ID         int64     `json:"id"`
	DeviceName string    `json:"device_name"`
	APIKey     string    `json:"api_key"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

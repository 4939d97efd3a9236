package models

import "time"

type ShippingCompany struct {
	ID          int64     `json:"id"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
}

package models

import "time"

// Medication is an inventory item. QuantityInStock never drops below zero.
type Medication struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	DosageForm      string    `db:"dosage_form" json:"dosage_form"`
	QuantityInStock int       `db:"quantity_in_stock" json:"quantity_in_stock"`
	ExpiryDate      *Date     `db:"expiry_date" json:"expiry_date,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// MedicationFilter narrows inventory listings.
type MedicationFilter struct {
	Search   string
	Page     int
	PageSize int
	SortBy   string
}

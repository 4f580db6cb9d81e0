package models

import "time"

// DispensingEvent records medication handed out against a prescription. Its quantity
// is reflected in the medication's stock at all times.
type DispensingEvent struct {
	ID             string    `db:"id" json:"id"`
	PrescriptionID string    `db:"prescription_id" json:"prescription_id"`
	MedicationID   string    `db:"medication_id" json:"medication_id"`
	DateGiven      Date      `db:"date_given" json:"date_given"`
	QuantityGiven  int       `db:"quantity_given" json:"quantity_given"`
	DispensedBy    *string   `db:"dispensed_by" json:"dispensed_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

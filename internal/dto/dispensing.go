package dto

// DispenseRequest hands out medication against a prescription. MedicationID is
// optional and must match the prescription when given.
type DispenseRequest struct {
	PrescriptionID string `json:"prescription_id" validate:"required,uuid"`
	MedicationID   string `json:"medication_id" validate:"omitempty,uuid"`
	DateGiven      string `json:"date_given"`
	Quantity       int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateDispenseRequest changes the quantity of a recorded event.
type UpdateDispenseRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

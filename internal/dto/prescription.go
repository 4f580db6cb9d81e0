package dto

import "github.com/noah-isme/campus-clinic-api/internal/models"

// IssuePrescriptionRequest is submitted by a doctor.
type IssuePrescriptionRequest struct {
	StudentID     string  `json:"student_id" validate:"required,uuid"`
	MedicationID  string  `json:"medication_id" validate:"required,uuid"`
	AppointmentID *string `json:"appointment_id" validate:"omitempty,uuid"`
	DoctorID      string  `json:"doctor_id" validate:"omitempty,uuid"`
	Quantity      int     `json:"quantity" validate:"required,gt=0"`
	Date          string  `json:"date"`
	Instructions  *string `json:"instructions" validate:"omitempty,max=1000"`
}

// PrescriptionResponse exposes a prescription with its remaining quantity.
type PrescriptionResponse struct {
	models.PrescriptionDetail
	RemainingQuantity int `json:"remaining_quantity"`
}

// NewPrescriptionResponse wraps a detail row.
func NewPrescriptionResponse(p models.PrescriptionDetail) PrescriptionResponse {
	return PrescriptionResponse{PrescriptionDetail: p, RemainingQuantity: p.Remaining()}
}

// NewPrescriptionResponses wraps a list, never returning nil.
func NewPrescriptionResponses(items []models.PrescriptionDetail) []PrescriptionResponse {
	out := make([]PrescriptionResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewPrescriptionResponse(item))
	}
	return out
}

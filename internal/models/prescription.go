package models

import "time"

// Prescription is a doctor's order of a medication for a student. The prescribed
// quantity is fixed once issued.
type Prescription struct {
	ID            string    `db:"id" json:"id"`
	AppointmentID *string   `db:"appointment_id" json:"appointment_id,omitempty"`
	DoctorID      string    `db:"doctor_id" json:"doctor_id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	MedicationID  string    `db:"medication_id" json:"medication_id"`
	Date          Date      `db:"prescription_date" json:"date"`
	Quantity      int       `db:"quantity" json:"quantity"`
	Instructions  *string   `db:"instructions" json:"instructions,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// PrescriptionDetail adds display names and dispensing progress.
type PrescriptionDetail struct {
	Prescription
	StudentName       string `db:"student_name" json:"student_name"`
	DoctorName        string `db:"doctor_name" json:"doctor_name"`
	MedicationName    string `db:"medication_name" json:"medication_name"`
	DosageForm        string `db:"dosage_form" json:"dosage_form"`
	QuantityDispensed int    `db:"quantity_dispensed" json:"quantity_dispensed"`
}

// Remaining returns how much of the prescription may still be dispensed.
func (p PrescriptionDetail) Remaining() int {
	if r := p.Quantity - p.QuantityDispensed; r > 0 {
		return r
	}
	return 0
}

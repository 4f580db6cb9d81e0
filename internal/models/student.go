package models

import "time"

// Student is a patient profile. Its id equals the owning user's id.
type Student struct {
	ID            string    `db:"id" json:"id"`
	FirstName     string    `db:"first_name" json:"first_name"`
	LastName      string    `db:"last_name" json:"last_name"`
	Gender        *string   `db:"gender" json:"gender,omitempty"`
	DateOfBirth   *Date     `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	ContactNumber *string   `db:"contact_number" json:"contact_number,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FullName joins first and last names.
func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// MedicalHistory aggregates a student's clinic record.
type MedicalHistory struct {
	Student       Student              `json:"student"`
	Appointments  []AppointmentDetail  `json:"appointments"`
	Prescriptions []PrescriptionDetail `json:"prescriptions"`
	Dispensing    []DispensingEvent    `json:"dispensing"`
}

package models

import "time"

// Activity actions recorded in the activity log.
const (
	ActivityLogin                 = "LOGIN"
	ActivityScheduleCreate        = "SCHEDULE_CREATE"
	ActivityScheduleUpdate        = "SCHEDULE_UPDATE"
	ActivityScheduleDelete        = "SCHEDULE_DELETE"
	ActivityAppointmentBook       = "APPOINTMENT_BOOK"
	ActivityAppointmentCancel     = "APPOINTMENT_CANCEL"
	ActivityAppointmentStatus     = "APPOINTMENT_STATUS"
	ActivityAppointmentReschedule = "APPOINTMENT_RESCHEDULE"
	ActivityPrescriptionIssue     = "PRESCRIPTION_ISSUE"
	ActivityMedicationCreate      = "MEDICATION_CREATE"
	ActivityMedicationUpdate      = "MEDICATION_UPDATE"
	ActivityStockAdjust           = "STOCK_ADJUST"
	ActivityDispenseCreate        = "DISPENSE_CREATE"
	ActivityDispenseUpdate        = "DISPENSE_UPDATE"
	ActivityDispenseDelete        = "DISPENSE_DELETE"
	ActivityReportRequest         = "REPORT_REQUEST"
	ActivityReportDownload        = "REPORT_DOWNLOAD"
)

// ActivityLog is one entry of the clinic's audit trail.
type ActivityLog struct {
	ID          string    `db:"id" json:"id"`
	UserID      *string   `db:"user_id" json:"user_id,omitempty"`
	Role        *string   `db:"role" json:"role,omitempty"`
	Action      string    `db:"action" json:"action"`
	Resource    string    `db:"resource" json:"resource"`
	ResourceID  *string   `db:"resource_id" json:"resource_id,omitempty"`
	Description string    `db:"description" json:"description"`
	IPAddress   string    `db:"ip_address" json:"ip_address"`
	UserAgent   string    `db:"user_agent" json:"user_agent"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ActivityFilter narrows activity log listings.
type ActivityFilter struct {
	UserID   string
	Action   string
	Resource string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

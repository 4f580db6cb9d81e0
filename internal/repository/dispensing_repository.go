package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

// DispensingRepository is the stock-safe ledger. Every mutation changes the event and
// the medication stock in one transaction so the two never diverge.
type DispensingRepository struct {
	db *sqlx.DB
}

// NewDispensingRepository constructs the repository.
func NewDispensingRepository(db *sqlx.DB) *DispensingRepository {
	return &DispensingRepository{db: db}
}

const dispensingColumns = `id, prescription_id, medication_id, date_given, quantity_given, dispensed_by, created_at, updated_at`

type lockedPrescription struct {
	Quantity     int    `db:"quantity"`
	MedicationID string `db:"medication_id"`
}

// Dispense records event and decrements the prescription's medication by its
// quantity. The medication is always taken from the prescription.
func (r *DispensingRepository) Dispense(ctx context.Context, event *models.DispensingEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dispense: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rx, err := lockPrescription(ctx, tx, event.PrescriptionID)
	if err != nil {
		return err
	}
	dispensed, err := dispensedTotal(ctx, tx, event.PrescriptionID, "")
	if err != nil {
		return err
	}
	if dispensed+event.QuantityGiven > rx.Quantity {
		return ErrQuantityExceedsPrescription
	}

	if err := applyStockDelta(ctx, tx, rx.MedicationID, -event.QuantityGiven); err != nil {
		return err
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.MedicationID = rx.MedicationID
	event.CreatedAt, event.UpdatedAt = now, now

	const insert = `INSERT INTO dispensing_events (id, prescription_id, medication_id, date_given, quantity_given, dispensed_by, created_at, updated_at)
VALUES (:id, :prescription_id, :medication_id, :date_given, :quantity_given, :dispensed_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, event); err != nil {
		return fmt.Errorf("insert dispensing event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dispense: %w", err)
	}
	return nil
}

// UpdateQuantity changes an event's quantity and moves stock by the difference.
func (r *DispensingRepository) UpdateQuantity(ctx context.Context, id string, quantity int) (*models.DispensingEvent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update dispensing: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	event, err := lockEvent(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	rx, err := lockPrescription(ctx, tx, event.PrescriptionID)
	if err != nil {
		return nil, err
	}
	others, err := dispensedTotal(ctx, tx, event.PrescriptionID, event.ID)
	if err != nil {
		return nil, err
	}
	if others+quantity > rx.Quantity {
		return nil, ErrQuantityExceedsPrescription
	}

	switch delta := event.QuantityGiven - quantity; {
	case delta < 0:
		if err := applyStockDelta(ctx, tx, event.MedicationID, delta); err != nil {
			return nil, err
		}
	case delta > 0:
		if err := creditStock(ctx, tx, event.MedicationID, delta); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE dispensing_events SET quantity_given = $2, updated_at = $3 WHERE id = $1`, event.ID, quantity, now); err != nil {
		return nil, fmt.Errorf("update dispensing event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update dispensing: %w", err)
	}
	event.QuantityGiven = quantity
	event.UpdatedAt = now
	return event, nil
}

// Delete removes an event and returns its quantity to stock. The removed event is
// returned for auditing.
func (r *DispensingRepository) Delete(ctx context.Context, id string) (*models.DispensingEvent, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin delete dispensing: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	event, err := lockEvent(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := creditStock(ctx, tx, event.MedicationID, event.QuantityGiven); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM dispensing_events WHERE id = $1`, event.ID); err != nil {
		return nil, fmt.Errorf("delete dispensing event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete dispensing: %w", err)
	}
	return event, nil
}

// FindByID returns one event.
func (r *DispensingRepository) FindByID(ctx context.Context, id string) (*models.DispensingEvent, error) {
	var event models.DispensingEvent
	if err := r.db.GetContext(ctx, &event, `SELECT `+dispensingColumns+` FROM dispensing_events WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find dispensing event: %w", err)
	}
	return &event, nil
}

// ListByPrescription returns events of one prescription in the order they were given.
func (r *DispensingRepository) ListByPrescription(ctx context.Context, prescriptionID string) ([]models.DispensingEvent, error) {
	const query = `SELECT ` + dispensingColumns + ` FROM dispensing_events WHERE prescription_id = $1 ORDER BY date_given, created_at`
	var events []models.DispensingEvent
	if err := r.db.SelectContext(ctx, &events, query, prescriptionID); err != nil {
		return nil, fmt.Errorf("list dispensing events: %w", err)
	}
	return events, nil
}

// ListForStudent returns every event given against a student's prescriptions.
func (r *DispensingRepository) ListForStudent(ctx context.Context, studentID string) ([]models.DispensingEvent, error) {
	const query = `SELECT e.id, e.prescription_id, e.medication_id, e.date_given, e.quantity_given, e.dispensed_by, e.created_at, e.updated_at
FROM dispensing_events e JOIN prescriptions p ON p.id = e.prescription_id
WHERE p.student_id = $1 ORDER BY e.date_given DESC, e.created_at DESC`
	var events []models.DispensingEvent
	if err := r.db.SelectContext(ctx, &events, query, studentID); err != nil {
		return nil, fmt.Errorf("list student dispensing: %w", err)
	}
	return events, nil
}

// DispensingRow is a report line joining an event with display names.
type DispensingRow struct {
	models.DispensingEvent
	MedicationName string `db:"medication_name"`
	StudentName    string `db:"student_name"`
}

// ListBetween returns events given in [from, to] with names for reporting.
func (r *DispensingRepository) ListBetween(ctx context.Context, from, to models.Date) ([]DispensingRow, error) {
	const query = `SELECT e.id, e.prescription_id, e.medication_id, e.date_given, e.quantity_given, e.dispensed_by, e.created_at, e.updated_at,
	m.name AS medication_name, TRIM(s.first_name || ' ' || s.last_name) AS student_name
FROM dispensing_events e
JOIN prescriptions p ON p.id = e.prescription_id
JOIN medications m ON m.id = e.medication_id
JOIN students s ON s.id = p.student_id
WHERE e.date_given BETWEEN $1 AND $2
ORDER BY e.date_given, e.created_at`
	var rows []DispensingRow
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("list dispensing between: %w", err)
	}
	return rows, nil
}

func lockPrescription(ctx context.Context, tx *sqlx.Tx, id string) (*lockedPrescription, error) {
	var rx lockedPrescription
	if err := tx.GetContext(ctx, &rx, `SELECT quantity, medication_id FROM prescriptions WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock prescription: %w", err)
	}
	return &rx, nil
}

func lockEvent(ctx context.Context, tx *sqlx.Tx, id string) (*models.DispensingEvent, error) {
	var event models.DispensingEvent
	if err := tx.GetContext(ctx, &event, `SELECT `+dispensingColumns+` FROM dispensing_events WHERE id = $1 FOR UPDATE`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("lock dispensing event: %w", err)
	}
	return &event, nil
}

// dispensedTotal sums quantities given for a prescription, excluding one event when
// exclude is set.
func dispensedTotal(ctx context.Context, tx *sqlx.Tx, prescriptionID, exclude string) (int, error) {
	query := `SELECT COALESCE(SUM(quantity_given), 0) FROM dispensing_events WHERE prescription_id = $1`
	args := []interface{}{prescriptionID}
	if exclude != "" {
		query += ` AND id <> $2`
		args = append(args, exclude)
	}
	var total int
	if err := tx.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("sum dispensed quantity: %w", err)
	}
	return total, nil
}

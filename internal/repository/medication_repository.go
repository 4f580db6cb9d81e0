package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

// MedicationRepository manages the inventory catalogue.
type MedicationRepository struct {
	db *sqlx.DB
}

// NewMedicationRepository constructs the repository.
func NewMedicationRepository(db *sqlx.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

const medicationColumns = `id, name, dosage_form, quantity_in_stock, expiry_date, created_at, updated_at`

// List returns a page of medications and the total match count.
func (r *MedicationRepository) List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error) {
	var args []interface{}
	where := ""
	if term := strings.TrimSpace(filter.Search); term != "" {
		args = append(args, "%"+strings.ToLower(term)+"%")
		where = " WHERE LOWER(name) LIKE $1 OR LOWER(dosage_form) LIKE $1"
	}

	allowedSorts := map[string]string{
		"name":   "name",
		"stock":  "quantity_in_stock",
		"expiry": "expiry_date",
	}
	sortColumn := "name"
	if col, ok := allowedSorts[filter.SortBy]; ok {
		sortColumn = col
	}
	_, pageSize, offset := clampPage(filter.Page, filter.PageSize)

	query := fmt.Sprintf(`SELECT %s FROM medications%s ORDER BY %s, id LIMIT %d OFFSET %d`, medicationColumns, where, sortColumn, pageSize, offset)
	var meds []models.Medication
	if err := r.db.SelectContext(ctx, &meds, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list medications: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM medications`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count medications: %w", err)
	}
	return meds, total, nil
}

// FindByID returns a medication.
func (r *MedicationRepository) FindByID(ctx context.Context, id string) (*models.Medication, error) {
	const query = `SELECT ` + medicationColumns + ` FROM medications WHERE id = $1`
	var med models.Medication
	if err := r.db.GetContext(ctx, &med, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find medication: %w", err)
	}
	return &med, nil
}

// Create inserts a medication with its initial stock.
func (r *MedicationRepository) Create(ctx context.Context, med *models.Medication) error {
	if med.ID == "" {
		med.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	med.CreatedAt, med.UpdatedAt = now, now
	const query = `INSERT INTO medications (id, name, dosage_form, quantity_in_stock, expiry_date, created_at, updated_at) VALUES (:id, :name, :dosage_form, :quantity_in_stock, :expiry_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, med); err != nil {
		return fmt.Errorf("create medication: %w", err)
	}
	return nil
}

// Update changes descriptive fields. Stock is only changed through ledger operations
// and AdjustStock.
func (r *MedicationRepository) Update(ctx context.Context, med *models.Medication) error {
	med.UpdatedAt = time.Now().UTC()
	const query = `UPDATE medications SET name = :name, dosage_form = :dosage_form, expiry_date = :expiry_date, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, med)
	if err != nil {
		return fmt.Errorf("update medication: %w", err)
	}
	return expectAffected(res, "update medication")
}

// AdjustStock applies a signed correction, refusing to take stock below zero.
func (r *MedicationRepository) AdjustStock(ctx context.Context, id string, delta int) (*models.Medication, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin adjust stock: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := applyStockDelta(ctx, tx, id, delta); err != nil {
		return nil, err
	}

	var med models.Medication
	if err := tx.GetContext(ctx, &med, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("reload medication: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit adjust stock: %w", err)
	}
	return &med, nil
}

// LowStock lists medications at or below threshold, lowest first.
func (r *MedicationRepository) LowStock(ctx context.Context, threshold int) ([]models.Medication, error) {
	const query = `SELECT ` + medicationColumns + ` FROM medications WHERE quantity_in_stock <= $1 ORDER BY quantity_in_stock, name`
	var meds []models.Medication
	if err := r.db.SelectContext(ctx, &meds, query, threshold); err != nil {
		return nil, fmt.Errorf("list low stock medications: %w", err)
	}
	return meds, nil
}

// Expired lists medications whose expiry date is on or before the given day.
func (r *MedicationRepository) Expired(ctx context.Context, asOf models.Date) ([]models.Medication, error) {
	const query = `SELECT ` + medicationColumns + ` FROM medications WHERE expiry_date IS NOT NULL AND expiry_date <= $1 ORDER BY expiry_date, name`
	var meds []models.Medication
	if err := r.db.SelectContext(ctx, &meds, query, asOf); err != nil {
		return nil, fmt.Errorf("list expired medications: %w", err)
	}
	return meds, nil
}

// AllForReport returns every medication ordered by name, optionally only those at or
// below threshold.
func (r *MedicationRepository) AllForReport(ctx context.Context, lowStockOnly bool, threshold int) ([]models.Medication, error) {
	if lowStockOnly {
		return r.LowStock(ctx, threshold)
	}
	var meds []models.Medication
	if err := r.db.SelectContext(ctx, &meds, `SELECT `+medicationColumns+` FROM medications ORDER BY name`); err != nil {
		return nil, fmt.Errorf("list medications for report: %w", err)
	}
	return meds, nil
}

// applyStockDelta moves stock by delta inside tx. The guard in the WHERE clause keeps
// stock non-negative under concurrent writers; a miss is resolved into ErrNoRows or
// ErrInsufficientStock by checking whether the row exists.
func applyStockDelta(ctx context.Context, tx *sqlx.Tx, medicationID string, delta int) error {
	const query = `UPDATE medications SET quantity_in_stock = quantity_in_stock + $1, updated_at = NOW() WHERE id = $2 AND quantity_in_stock + $1 >= 0`
	res, err := tx.ExecContext(ctx, query, delta, medicationID)
	if err != nil {
		return fmt.Errorf("apply stock delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("apply stock delta rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}
	return stockFailure(ctx, tx, medicationID)
}

// creditStock returns amount units to stock. Credits cannot break the non-negative
// invariant, so the update is unguarded.
func creditStock(ctx context.Context, tx *sqlx.Tx, medicationID string, amount int) error {
	const query = `UPDATE medications SET quantity_in_stock = quantity_in_stock + $1, updated_at = NOW() WHERE id = $2`
	res, err := tx.ExecContext(ctx, query, amount, medicationID)
	if err != nil {
		return fmt.Errorf("credit stock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credit stock rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func stockFailure(ctx context.Context, tx *sqlx.Tx, medicationID string) error {
	var exists bool
	if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM medications WHERE id = $1)`, medicationID); err != nil {
		return fmt.Errorf("check medication exists: %w", err)
	}
	if !exists {
		return sql.ErrNoRows
	}
	return ErrInsufficientStock
}

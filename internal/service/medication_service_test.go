package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

func newMedicationServiceForTest(meds ...models.Medication) (*MedicationService, *fakeMedications, *fakeActivity) {
	repo := newFakeMedications(meds...)
	activity := &fakeActivity{}
	svc := NewMedicationService(MedicationServiceParams{
		Repo:              repo,
		Activity:          activity,
		Cache:             &fakeInvalidator{},
		LowStockThreshold: 5,
		Today:             func() models.Date { return mustDate(monday) },
	})
	return svc, repo, activity
}

func TestMedicationCreateAndUpdateKeepsStock(t *testing.T) {
	svc, repo, activity := newMedicationServiceForTest()
	ctx := context.Background()

	med, err := svc.Create(ctx, staffActor, dto.MedicationRequest{Name: " Amoxicillin ", DosageForm: "capsule", QuantityInStock: 40, ExpiryDate: strPtr("2027-01-31")})
	require.NoError(t, err)
	assert.Equal(t, "Amoxicillin", med.Name)
	require.NotNil(t, med.ExpiryDate)
	assert.Equal(t, "2027-01-31", med.ExpiryDate.String())

	updated, err := svc.Update(ctx, staffActor, med.ID, dto.MedicationRequest{Name: "Amoxicillin 500", DosageForm: "capsule", QuantityInStock: 0})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.QuantityInStock)
	assert.Equal(t, 40, repo.items[med.ID].QuantityInStock)
	assert.Nil(t, repo.items[med.ID].ExpiryDate)

	assert.Equal(t, []string{models.ActivityMedicationCreate, models.ActivityMedicationUpdate}, activity.actions())
}

func TestMedicationCreateValidation(t *testing.T) {
	svc, _, _ := newMedicationServiceForTest()
	ctx := context.Background()

	_, err := svc.Create(ctx, staffActor, dto.MedicationRequest{Name: "  "})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, staffActor, dto.MedicationRequest{Name: "Ibuprofen", QuantityInStock: -1})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, staffActor, dto.MedicationRequest{Name: "Ibuprofen", ExpiryDate: strPtr("31/01/2027")})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.Create(ctx, doctorActor, dto.MedicationRequest{Name: "Ibuprofen"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestMedicationAdjustStock(t *testing.T) {
	svc, repo, activity := newMedicationServiceForTest(models.Medication{ID: idMed1, Name: "Cetirizine", QuantityInStock: 3})
	ctx := context.Background()

	med, err := svc.AdjustStock(ctx, staffActor, idMed1, dto.AdjustStockRequest{Delta: 7, Reason: "delivery"})
	require.NoError(t, err)
	assert.Equal(t, 10, med.QuantityInStock)

	_, err = svc.AdjustStock(ctx, staffActor, idMed1, dto.AdjustStockRequest{Delta: -11, Reason: "write-off"})
	assert.True(t, errors.Is(err, appErrors.ErrInsufficientStock))
	assert.Equal(t, 10, repo.items[idMed1].QuantityInStock)

	_, err = svc.AdjustStock(ctx, staffActor, idMed404, dto.AdjustStockRequest{Delta: 1, Reason: "delivery"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.AdjustStock(ctx, staffActor, idMed1, dto.AdjustStockRequest{Delta: 0, Reason: "noop"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	require.Len(t, activity.entries, 1)
	assert.Equal(t, models.ActivityStockAdjust, activity.entries[0].action)
	assert.Contains(t, activity.entries[0].description, "delivery")
}

func TestMedicationLowStockAndExpired(t *testing.T) {
	expired := mustDate("2026-10-12")
	fresh := mustDate("2027-06-01")
	svc, _, _ := newMedicationServiceForTest(
		models.Medication{ID: "a", Name: "A", QuantityInStock: 2, ExpiryDate: &expired},
		models.Medication{ID: "b", Name: "B", QuantityInStock: 5, ExpiryDate: &fresh},
		models.Medication{ID: "c", Name: "C", QuantityInStock: 50},
	)
	ctx := context.Background()

	low, err := svc.LowStock(ctx, doctorActor, 0)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "a", low[0].ID)

	low, err = svc.LowStock(ctx, doctorActor, 100)
	require.NoError(t, err)
	assert.Len(t, low, 3)

	gone, err := svc.Expired(ctx, staffActor, "")
	require.NoError(t, err)
	require.Len(t, gone, 1)
	assert.Equal(t, "a", gone[0].ID)

	_, err = svc.Expired(ctx, staffActor, "soon")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.LowStock(ctx, studentActor, 0)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestMedicationListPaginates(t *testing.T) {
	svc, _, _ := newMedicationServiceForTest(models.Medication{ID: "a", Name: "A"}, models.Medication{ID: "b", Name: "B"})

	meds, page, err := svc.List(context.Background(), staffActor, models.MedicationFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, meds, 2)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 2, page.TotalCount)
}

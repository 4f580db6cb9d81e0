package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type fakeDispensingSrv struct {
	event     *models.DispensingEvent
	err       error
	deletedID string
	from, to  string
}

func (f *fakeDispensingSrv) Dispense(context.Context, models.Actor, dto.DispenseRequest) (*models.DispensingEvent, error) {
	return f.event, f.err
}

func (f *fakeDispensingSrv) Update(context.Context, models.Actor, string, dto.UpdateDispenseRequest) (*models.DispensingEvent, error) {
	return f.event, f.err
}

func (f *fakeDispensingSrv) Delete(_ context.Context, _ models.Actor, id string) error {
	f.deletedID = id
	return f.err
}

func (f *fakeDispensingSrv) Get(context.Context, models.Actor, string) (*models.DispensingEvent, error) {
	return f.event, f.err
}

func (f *fakeDispensingSrv) ListForPrescription(context.Context, models.Actor, string) ([]models.DispensingEvent, error) {
	return nil, f.err
}

func (f *fakeDispensingSrv) ListBetween(_ context.Context, _ models.Actor, from, to string) ([]repository.DispensingRow, error) {
	f.from, f.to = from, to
	return nil, f.err
}

func TestDispensingHandlerErrorCodes(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient stock", appErrors.ErrInsufficientStock, http.StatusConflict, "INSUFFICIENT_STOCK"},
		{"over prescription", appErrors.ErrQuantityExceeded, http.StatusUnprocessableEntity, "PRESCRIPTION_QUANTITY_EXCEEDED"},
		{"unknown prescription", appErrors.Clone(appErrors.ErrNotFound, "prescription not found"), http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewDispensingHandler(&fakeDispensingSrv{err: tc.err})
			c, w := newGinContext(http.MethodPost, "/dispensing", dto.DispenseRequest{PrescriptionID: "rx-1", Quantity: 4})
			asUser(c, "staff-1", models.RoleStaff)

			handler.Dispense(c)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, decode(t, w).Error.Code)
		})
	}
}

func TestDispensingHandlerDispenseCreated(t *testing.T) {
	handler := NewDispensingHandler(&fakeDispensingSrv{event: &models.DispensingEvent{ID: "ev-1", QuantityGiven: 4}})
	c, w := newGinContext(http.MethodPost, "/dispensing", dto.DispenseRequest{PrescriptionID: "rx-1", Quantity: 4})
	asUser(c, "staff-1", models.RoleStaff)

	handler.Dispense(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestDispensingHandlerDelete(t *testing.T) {
	srv := &fakeDispensingSrv{}
	handler := NewDispensingHandler(srv)
	c, w := newGinContext(http.MethodDelete, "/dispensing/ev-1", nil)
	c.Params = append(c.Params, ginParam("id", "ev-1"))
	asUser(c, "staff-1", models.RoleStaff)

	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "ev-1", srv.deletedID)
}

func TestDispensingHandlerListBetweenPassesRange(t *testing.T) {
	srv := &fakeDispensingSrv{}
	handler := NewDispensingHandler(srv)
	c, w := newGinContext(http.MethodGet, "/dispensing?from=2026-10-01&to=2026-10-31", nil)
	asUser(c, "staff-1", models.RoleStaff)

	handler.ListBetween(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-10-01", srv.from)
	assert.Equal(t, "2026-10-31", srv.to)
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
)

// Request DTOs validate ids as UUIDs, so fixtures use UUID-shaped ids.
const (
	idDoc1       = "d0c00000-0000-4000-8000-000000000001"
	idDoc2       = "d0c00000-0000-4000-8000-000000000002"
	idDoc9       = "d0c00000-0000-4000-8000-000000000009"
	idDoc404     = "d0c00000-0000-4000-8000-000000000404"
	idDocIgnored = "d0c00000-0000-4000-8000-0000000003e7"
	idStu1       = "57d00000-0000-4000-8000-000000000001"
	idStu2       = "57d00000-0000-4000-8000-000000000002"
	idStu7       = "57d00000-0000-4000-8000-000000000007"
	idStu9       = "57d00000-0000-4000-8000-000000000009"
	idStu404     = "57d00000-0000-4000-8000-000000000404"
	idMed1       = "3ed00000-0000-4000-8000-000000000001"
	idMed2       = "3ed00000-0000-4000-8000-000000000002"
	idMed404     = "3ed00000-0000-4000-8000-000000000404"
	idRx1        = "0a000000-0000-4000-8000-000000000001"
	idRx2        = "0a000000-0000-4000-8000-000000000002"
	idRx404      = "0a000000-0000-4000-8000-000000000404"
	idRxA        = "0a000000-0000-4000-8000-00000000000a"
	idRxB        = "0a000000-0000-4000-8000-00000000000b"
)

type activityEntry struct {
	actor       models.Actor
	action      string
	resource    string
	resourceID  string
	description string
}

type fakeActivity struct {
	entries []activityEntry
}

func (f *fakeActivity) Record(_ context.Context, actor models.Actor, action, resource, resourceID, description string) {
	f.entries = append(f.entries, activityEntry{actor: actor, action: action, resource: resource, resourceID: resourceID, description: description})
}

func (f *fakeActivity) actions() []string {
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.action)
	}
	return out
}

type fakeInvalidator struct {
	patterns []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, patterns ...string) {
	f.patterns = append(f.patterns, patterns...)
}

// fakeSchedules keeps entries in insertion order.
type fakeSchedules struct {
	entries []models.ScheduleEntry
	err     error
	seq     int
}

func (f *fakeSchedules) ListByDoctorAndDay(_ context.Context, doctorID string, day models.DayOfWeek) ([]models.ScheduleEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ScheduleEntry
	for _, e := range f.entries {
		if e.DoctorID == doctorID && e.DayOfWeek == day {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSchedules) ListByDoctor(_ context.Context, doctorID string) ([]models.ScheduleEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.ScheduleEntry
	for _, e := range f.entries {
		if e.DoctorID == doctorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeSchedules) FindByID(_ context.Context, id string) (*models.ScheduleEntry, error) {
	for _, e := range f.entries {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSchedules) Create(_ context.Context, entry *models.ScheduleEntry) error {
	if f.err != nil {
		return f.err
	}
	f.seq++
	entry.ID = fmt.Sprintf("sched-%d", f.seq)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeSchedules) Update(_ context.Context, entry *models.ScheduleEntry) error {
	for i, e := range f.entries {
		if e.ID == entry.ID {
			f.entries[i] = *entry
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeSchedules) Delete(_ context.Context, id string) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeDoctors struct {
	doctors map[string]models.Doctor
	err     error
}

func newFakeDoctors(ids ...string) *fakeDoctors {
	f := &fakeDoctors{doctors: map[string]models.Doctor{}}
	for _, id := range ids {
		f.doctors[id] = models.Doctor{ID: id, Name: "Dr " + id, Specialization: "General"}
	}
	return f
}

func (f *fakeDoctors) List(_ context.Context, specialization string) ([]models.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Doctor
	for _, d := range f.doctors {
		if specialization == "" || d.Specialization == specialization {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeDoctors) FindByID(_ context.Context, id string) (*models.Doctor, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.doctors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &d, nil
}

// fakeAppointments is an in-memory booking table that enforces the active-slot
// uniqueness like the partial index does.
type fakeAppointments struct {
	items     map[string]*models.AppointmentDetail
	seq       int
	createErr error
	listErr   error
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{items: map[string]*models.AppointmentDetail{}}
}

func (f *fakeAppointments) add(a models.Appointment) {
	f.items[a.ID] = &models.AppointmentDetail{Appointment: a}
}

func (f *fakeAppointments) ListOccupiedTimes(_ context.Context, doctorID string, date models.Date) ([]models.ClockTime, error) {
	var out []models.ClockTime
	for _, a := range f.items {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.Status != models.AppointmentCancelled {
			out = append(out, a.Time)
		}
	}
	return out, nil
}

func (f *fakeAppointments) Create(_ context.Context, appt *models.Appointment) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, a := range f.items {
		if a.DoctorID == appt.DoctorID && a.Date.Equal(appt.Date) && a.Time == appt.Time && a.Status != models.AppointmentCancelled {
			return repository.ErrSlotTaken
		}
	}
	f.seq++
	appt.ID = fmt.Sprintf("appt-%d", f.seq)
	f.add(*appt)
	return nil
}

func (f *fakeAppointments) Reschedule(_ context.Context, id string, date models.Date, t models.ClockTime) error {
	appt, ok := f.items[id]
	if !ok || appt.Status != models.AppointmentScheduled {
		return repository.ErrStatusTransition
	}
	for _, a := range f.items {
		if a.ID != id && a.DoctorID == appt.DoctorID && a.Date.Equal(date) && a.Time == t && a.Status != models.AppointmentCancelled {
			return repository.ErrSlotTaken
		}
	}
	appt.Date, appt.Time = date, t
	return nil
}

func (f *fakeAppointments) FindByID(_ context.Context, id string) (*models.AppointmentDetail, error) {
	a, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *a
	return &copied, nil
}

func (f *fakeAppointments) UpdateStatus(_ context.Context, id string, status models.AppointmentStatus) error {
	a, ok := f.items[id]
	if !ok || a.Status != models.AppointmentScheduled {
		return repository.ErrStatusTransition
	}
	a.Status = status
	return nil
}

func (f *fakeAppointments) List(_ context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.AppointmentDetail
	for _, a := range f.items {
		if filter.StudentID != "" && a.StudentID != filter.StudentID {
			continue
		}
		if filter.DoctorID != "" && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.From != nil && a.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && filter.To.Before(a.Date) {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAppointments) Upcoming(ctx context.Context, filter models.AppointmentFilter, from models.Date, limit int) ([]models.AppointmentDetail, error) {
	filter.From = &from
	all, err := f.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	var out []models.AppointmentDetail
	for _, a := range all {
		if a.Status == models.AppointmentScheduled {
			out = append(out, a)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeLocker struct {
	keys []string
	err  error
}

func (f *fakeLocker) WithSlotLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fakePrescriptions struct {
	items     map[string]models.PrescriptionDetail
	seq       int
	createErr error
}

func newFakePrescriptions(items ...models.PrescriptionDetail) *fakePrescriptions {
	f := &fakePrescriptions{items: map[string]models.PrescriptionDetail{}}
	for _, p := range items {
		f.items[p.ID] = p
	}
	return f
}

func (f *fakePrescriptions) Create(_ context.Context, p *models.Prescription) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	p.ID = fmt.Sprintf("rx-%d", f.seq)
	f.items[p.ID] = models.PrescriptionDetail{Prescription: *p}
	return nil
}

func (f *fakePrescriptions) FindByID(_ context.Context, id string) (*models.PrescriptionDetail, error) {
	p, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (f *fakePrescriptions) ListForStudent(_ context.Context, studentID string) ([]models.PrescriptionDetail, error) {
	return f.filter(func(p models.PrescriptionDetail) bool { return p.StudentID == studentID }), nil
}

func (f *fakePrescriptions) ListForDoctor(_ context.Context, doctorID string) ([]models.PrescriptionDetail, error) {
	return f.filter(func(p models.PrescriptionDetail) bool { return p.DoctorID == doctorID }), nil
}

func (f *fakePrescriptions) ListUnfulfilled(_ context.Context, _ int) ([]models.PrescriptionDetail, error) {
	return f.filter(func(p models.PrescriptionDetail) bool { return p.Remaining() > 0 }), nil
}

func (f *fakePrescriptions) filter(keep func(models.PrescriptionDetail) bool) []models.PrescriptionDetail {
	var out []models.PrescriptionDetail
	for _, p := range f.items {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// fakeMedications applies stock deltas with the same non-negative guard as the SQL.
type fakeMedications struct {
	items map[string]*models.Medication
	seq   int
	err   error
}

func newFakeMedications(meds ...models.Medication) *fakeMedications {
	f := &fakeMedications{items: map[string]*models.Medication{}}
	for i := range meds {
		m := meds[i]
		f.items[m.ID] = &m
	}
	return f
}

func (f *fakeMedications) List(_ context.Context, filter models.MedicationFilter) ([]models.Medication, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []models.Medication
	for _, m := range f.items {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, len(out), nil
}

func (f *fakeMedications) FindByID(_ context.Context, id string) (*models.Medication, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *m
	return &copied, nil
}

func (f *fakeMedications) Create(_ context.Context, med *models.Medication) error {
	f.seq++
	med.ID = fmt.Sprintf("med-%d", f.seq)
	copied := *med
	f.items[med.ID] = &copied
	return nil
}

func (f *fakeMedications) Update(_ context.Context, med *models.Medication) error {
	existing, ok := f.items[med.ID]
	if !ok {
		return sql.ErrNoRows
	}
	existing.Name, existing.DosageForm, existing.ExpiryDate = med.Name, med.DosageForm, med.ExpiryDate
	return nil
}

func (f *fakeMedications) AdjustStock(_ context.Context, id string, delta int) (*models.Medication, error) {
	m, ok := f.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if m.QuantityInStock+delta < 0 {
		return nil, repository.ErrInsufficientStock
	}
	m.QuantityInStock += delta
	copied := *m
	return &copied, nil
}

func (f *fakeMedications) LowStock(_ context.Context, threshold int) ([]models.Medication, error) {
	var out []models.Medication
	for _, m := range f.items {
		if m.QuantityInStock <= threshold {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuantityInStock < out[j].QuantityInStock })
	return out, nil
}

func (f *fakeMedications) Expired(_ context.Context, asOf models.Date) ([]models.Medication, error) {
	var out []models.Medication
	for _, m := range f.items {
		if m.ExpiryDate != nil && !asOf.Before(*m.ExpiryDate) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMedications) AllForReport(ctx context.Context, lowStockOnly bool, threshold int) ([]models.Medication, error) {
	if lowStockOnly {
		return f.LowStock(ctx, threshold)
	}
	out, _, err := f.List(ctx, models.MedicationFilter{})
	return out, err
}

// fakeLedger models the dispensing ledger over a fakeMedications stock table and a
// fakePrescriptions ceiling, so service tests can walk stock sequences.
type fakeLedger struct {
	meds   *fakeMedications
	rx     *fakePrescriptions
	events map[string]*models.DispensingEvent
	seq    int
	err    error
	rows   []repository.DispensingRow
}

func newFakeLedger(meds *fakeMedications, rx *fakePrescriptions) *fakeLedger {
	return &fakeLedger{meds: meds, rx: rx, events: map[string]*models.DispensingEvent{}}
}

func (f *fakeLedger) dispensed(prescriptionID, exclude string) int {
	total := 0
	for _, e := range f.events {
		if e.PrescriptionID == prescriptionID && e.ID != exclude {
			total += e.QuantityGiven
		}
	}
	return total
}

func (f *fakeLedger) Dispense(_ context.Context, event *models.DispensingEvent) error {
	if f.err != nil {
		return f.err
	}
	rx, ok := f.rx.items[event.PrescriptionID]
	if !ok {
		return sql.ErrNoRows
	}
	if f.dispensed(rx.ID, "")+event.QuantityGiven > rx.Quantity {
		return repository.ErrQuantityExceedsPrescription
	}
	med, ok := f.meds.items[rx.MedicationID]
	if !ok {
		return sql.ErrNoRows
	}
	if med.QuantityInStock < event.QuantityGiven {
		return repository.ErrInsufficientStock
	}
	med.QuantityInStock -= event.QuantityGiven
	f.seq++
	event.ID = fmt.Sprintf("evt-%d", f.seq)
	event.MedicationID = rx.MedicationID
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeLedger) UpdateQuantity(_ context.Context, id string, quantity int) (*models.DispensingEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	event, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	rx := f.rx.items[event.PrescriptionID]
	if f.dispensed(rx.ID, id)+quantity > rx.Quantity {
		return nil, repository.ErrQuantityExceedsPrescription
	}
	med := f.meds.items[event.MedicationID]
	delta := event.QuantityGiven - quantity
	if med.QuantityInStock+delta < 0 {
		return nil, repository.ErrInsufficientStock
	}
	med.QuantityInStock += delta
	event.QuantityGiven = quantity
	copied := *event
	return &copied, nil
}

func (f *fakeLedger) Delete(_ context.Context, id string) (*models.DispensingEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	event, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	f.meds.items[event.MedicationID].QuantityInStock += event.QuantityGiven
	delete(f.events, id)
	return event, nil
}

func (f *fakeLedger) FindByID(_ context.Context, id string) (*models.DispensingEvent, error) {
	event, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *event
	return &copied, nil
}

func (f *fakeLedger) ListByPrescription(_ context.Context, prescriptionID string) ([]models.DispensingEvent, error) {
	var out []models.DispensingEvent
	for _, e := range f.events {
		if e.PrescriptionID == prescriptionID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeLedger) ListForStudent(_ context.Context, studentID string) ([]models.DispensingEvent, error) {
	var out []models.DispensingEvent
	for _, e := range f.events {
		if f.rx.items[e.PrescriptionID].StudentID == studentID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeLedger) ListBetween(_ context.Context, _, _ models.Date) ([]repository.DispensingRow, error) {
	return f.rows, f.err
}

type fakeStudents struct {
	students map[string]models.Student
}

func newFakeStudents(ids ...string) *fakeStudents {
	f := &fakeStudents{students: map[string]models.Student{}}
	for _, id := range ids {
		f.students[id] = models.Student{ID: id, FirstName: "Student", LastName: id}
	}
	return f
}

func (f *fakeStudents) FindByID(_ context.Context, id string) (*models.Student, error) {
	s, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &s, nil
}

func (f *fakeStudents) Search(_ context.Context, term string, limit int) ([]models.Student, error) {
	var out []models.Student
	for _, s := range f.students {
		out = append(out, s)
	}
	return out, nil
}

// fakeDashboardCache round-trips values through JSON like the redis repository.
type fakeDashboardCache struct {
	store map[string][]byte
	sets  int
	err   error
}

func newFakeDashboardCache() *fakeDashboardCache {
	return &fakeDashboardCache{store: map[string][]byte{}}
}

func (f *fakeDashboardCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	raw, ok := f.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeDashboardCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.sets++
	f.store[key] = raw
	return nil
}

func mustDate(raw string) models.Date {
	d, err := models.ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func mustClock(raw string) models.ClockTime {
	c, err := models.ParseClockTime(raw)
	if err != nil {
		panic(err)
	}
	return c
}

func strPtr(s string) *string {
	return &s
}

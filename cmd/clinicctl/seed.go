package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

const seedBatchSize = 200

var specializations = []string{
	"General Practice",
	"Dermatology",
	"Psychiatry",
	"Sports Medicine",
	"Gynecology",
	"Ophthalmology",
	"ENT",
}

var dosageForms = []string{"Tablet", "Capsule", "Syrup", "Ointment", "Drops", "Inhaler"}

var medicationNames = []string{
	"Paracetamol", "Ibuprofen", "Amoxicillin", "Cetirizine", "Loratadine", "Omeprazole",
	"Metformin", "Salbutamol", "Azithromycin", "Hydrocortisone", "Naproxen", "Ranitidine",
	"Diclofenac", "Chlorphenamine", "Mefenamic Acid", "Oral Rehydration Salts",
}

type seedOptions struct {
	Doctors     int
	Students    int
	Staff       int
	Medications int
	Password    string
	Seed        int64
}

func seedCmd() *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo doctors, schedules, students, staff and medications",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			if opts.Seed != 0 {
				gofakeit.Seed(opts.Seed)
			}
			if err := runSeed(cmd.Context(), e.db, e.logger, opts); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "seed complete")
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Doctors, "doctors", 8, "Number of doctors")
	cmd.Flags().IntVar(&opts.Students, "students", 200, "Number of students")
	cmd.Flags().IntVar(&opts.Staff, "staff", 3, "Number of dispensary staff")
	cmd.Flags().IntVar(&opts.Medications, "medications", 40, "Number of medications")
	cmd.Flags().StringVar(&opts.Password, "password", "clinic-demo", "Password set on every seeded account")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Deterministic faker seed (0 picks a random one)")
	return cmd
}

func runSeed(ctx context.Context, db *sqlx.DB, logr *zap.Logger, opts seedOptions) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()

	var (
		users     []models.User
		doctors   []models.Doctor
		students  []models.Student
		schedules []models.ScheduleEntry
	)
	newUser := func(role models.UserRole, first, last string) models.User {
		id := uuid.NewString()
		email := fmt.Sprintf("%s.%s.%s@campus.test", strings.ToLower(first), strings.ToLower(last), id[:6])
		return models.User{
			ID:           id,
			Email:        email,
			PasswordHash: string(hash),
			FullName:     strings.TrimSpace(first + " " + last),
			Role:         role,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}

	for i := 0; i < opts.Doctors; i++ {
		u := newUser(models.RoleDoctor, gofakeit.FirstName(), gofakeit.LastName())
		phone := gofakeit.Phone()
		users = append(users, u)
		doctors = append(doctors, models.Doctor{
			ID:             u.ID,
			Name:           "Dr. " + u.FullName,
			Specialization: gofakeit.RandomString(specializations),
			Email:          u.Email,
			ContactNumber:  &phone,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		schedules = append(schedules, weeklySchedule(u.ID, now)...)
	}
	for i := 0; i < opts.Students; i++ {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		u := newUser(models.RoleStudent, first, last)
		gender := gofakeit.Gender()
		phone := gofakeit.Phone()
		dob := models.NewDate(gofakeit.DateRange(now.AddDate(-30, 0, 0), now.AddDate(-17, 0, 0)))
		email := u.Email
		users = append(users, u)
		students = append(students, models.Student{
			ID:            u.ID,
			FirstName:     first,
			LastName:      last,
			Gender:        &gender,
			DateOfBirth:   &dob,
			Email:         &email,
			ContactNumber: &phone,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	for i := 0; i < opts.Staff; i++ {
		users = append(users, newUser(models.RoleStaff, gofakeit.FirstName(), gofakeit.LastName()))
	}

	medications := make([]models.Medication, 0, opts.Medications)
	for i := 0; i < opts.Medications; i++ {
		expiry := models.NewDate(gofakeit.DateRange(now.AddDate(0, -2, 0), now.AddDate(2, 0, 0)))
		medications = append(medications, models.Medication{
			ID:              uuid.NewString(),
			Name:            fmt.Sprintf("%s %dmg", gofakeit.RandomString(medicationNames), gofakeit.RandomInt([]int{5, 10, 20, 50, 100, 250, 500})),
			DosageForm:      gofakeit.RandomString(dosageForms),
			QuantityInStock: gofakeit.Number(0, 300),
			ExpiryDate:      &expiry,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	steps := []struct {
		name  string
		query string
		rows  func(from, to int) interface{}
		count int
	}{
		{
			name:  "users",
			query: `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at) VALUES (:id, :email, :password_hash, :full_name, :role, :active, :created_at, :updated_at)`,
			rows:  func(from, to int) interface{} { return users[from:to] },
			count: len(users),
		},
		{
			name:  "doctors",
			query: `INSERT INTO doctors (id, name, specialization, email, contact_number, created_at, updated_at) VALUES (:id, :name, :specialization, :email, :contact_number, :created_at, :updated_at)`,
			rows:  func(from, to int) interface{} { return doctors[from:to] },
			count: len(doctors),
		},
		{
			name:  "students",
			query: `INSERT INTO students (id, first_name, last_name, gender, date_of_birth, email, contact_number, created_at, updated_at) VALUES (:id, :first_name, :last_name, :gender, :date_of_birth, :email, :contact_number, :created_at, :updated_at)`,
			rows:  func(from, to int) interface{} { return students[from:to] },
			count: len(students),
		},
		{
			name:  "doctor_schedules",
			query: `INSERT INTO doctor_schedules (id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at) VALUES (:id, :doctor_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`,
			rows:  func(from, to int) interface{} { return schedules[from:to] },
			count: len(schedules),
		},
		{
			name:  "medications",
			query: `INSERT INTO medications (id, name, dosage_form, quantity_in_stock, expiry_date, created_at, updated_at) VALUES (:id, :name, :dosage_form, :quantity_in_stock, :expiry_date, :created_at, :updated_at)`,
			rows:  func(from, to int) interface{} { return medications[from:to] },
			count: len(medications),
		},
	}

	for _, step := range steps {
		for from := 0; from < step.count; from += seedBatchSize {
			to := from + seedBatchSize
			if to > step.count {
				to = step.count
			}
			if err := insertBatch(ctx, db, step.query, step.rows(from, to)); err != nil {
				return fmt.Errorf("seed %s: %w", step.name, err)
			}
		}
		logr.Info("seeded", zap.String("table", step.name), zap.Int("rows", step.count))
	}
	return nil
}

// weeklySchedule gives a doctor a morning block on weekdays and an afternoon block on
// two of them.
func weeklySchedule(doctorID string, now time.Time) []models.ScheduleEntry {
	days := []models.DayOfWeek{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}
	entries := make([]models.ScheduleEntry, 0, len(days)+2)
	for _, day := range days {
		entries = append(entries, models.ScheduleEntry{
			ID:        uuid.NewString(),
			DoctorID:  doctorID,
			DayOfWeek: day,
			StartTime: models.NewClockTime(8+gofakeit.Number(0, 1), 0, 0),
			EndTime:   models.NewClockTime(12, 0, 0),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	order := []int{0, 1, 2, 3, 4}
	gofakeit.ShuffleInts(order)
	for _, i := range order[:2] {
		entries = append(entries, models.ScheduleEntry{
			ID:        uuid.NewString(),
			DoctorID:  doctorID,
			DayOfWeek: days[i],
			StartTime: models.NewClockTime(13, 30, 0),
			EndTime:   models.NewClockTime(16, 0, 0),
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return entries
}

func insertBatch(ctx context.Context, db *sqlx.DB, query string, rows interface{}) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.NamedExecContext(ctx, query, rows); err != nil {
		return err
	}
	return tx.Commit()
}

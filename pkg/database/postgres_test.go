package database

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/campus-clinic-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "clinic", Password: "secret", Name: "clinic", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=clinic password=secret dbname=clinic sslmode=disable", dsn)
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert appointment: %w", &pq.Error{Code: "23505", Constraint: "appointments_active_slot_key"})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "appointments_active_slot_key"))
	assert.False(t, IsUniqueViolation(err, "other_key"))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}, ""))
	assert.False(t, IsUniqueViolation(fmt.Errorf("plain"), ""))
}

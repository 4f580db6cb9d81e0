package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 15*time.Minute, cfg.Clinic.SlotWidth)
	assert.Equal(t, 10, cfg.Clinic.LowStockThreshold)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.True(t, cfg.Booking.SlotLockEnabled)
	assert.Equal(t, 5*time.Second, cfg.Booking.SlotLockTTL)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SLOT_WIDTH_MINUTES", 30)
	v.Set("JWT_EXPIRATION", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("CLINIC_TIMEZONE", "Asia/Kolkata")

	cfg := fromViper(v)

	assert.Equal(t, 30*time.Minute, cfg.Clinic.SlotWidth)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "Asia/Kolkata", cfg.Clinic.Location().String())
}

func TestLocationFallsBackToUTC(t *testing.T) {
	assert.Equal(t, time.UTC, ClinicConfig{Timezone: "Mars/Olympus"}.Location())
	assert.Equal(t, time.UTC, ClinicConfig{}.Location())
}

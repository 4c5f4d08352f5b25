package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RSVP_DEADLINE", "")
	t.Setenv("MEAL_OPTIONS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.DirectoryTimeout)
	assert.Equal(t, []string{"beef", "chicken", "fish", "vegetarian"}, cfg.MealOptions)
	assert.Equal(t, "onboarding@resend.dev", cfg.EmailFrom)
	assert.True(t, cfg.RSVPDeadline.IsZero())
	assert.False(t, cfg.DeadlinePassed(time.Now()))
}

func TestLoadDeadline(t *testing.T) {
	t.Setenv("TIMEZONE", "Europe/Bucharest")
	t.Setenv("RSVP_DEADLINE", "2026-04-12T23:59:59")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Europe/Bucharest", cfg.RSVPDeadline.Location().String())
	assert.False(t, cfg.DeadlinePassed(cfg.RSVPDeadline.Add(-time.Minute)))
	assert.True(t, cfg.DeadlinePassed(cfg.RSVPDeadline.Add(time.Second)))
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad duration", "DIRECTORY_TIMEOUT", "soon"},
		{"bad deadline", "RSVP_DEADLINE", "next tuesday"},
		{"bad event date", "EVENT_DATE", "2026/04/19"},
		{"bad timezone", "TIMEZONE", "Mars/Olympus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestMealOptions(t *testing.T) {
	t.Setenv("MEAL_OPTIONS", "Beef, Fish ,,vegetarian")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"beef", "fish", "vegetarian"}, cfg.MealOptions)
}

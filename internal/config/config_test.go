package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                      "development",
		DBPassword:               "secure-password",
		DBSSLMode:                "require",
		DBConnMaxLifetimeMinutes: 1,
		ThreadCooldown:           time.Minute,
		ThreadPointReward:        5,
		ThreadExcerptRunes:       200,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateThreadSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative cooldown", func(c *Config) { c.ThreadCooldown = -time.Second }},
		{"negative reward", func(c *Config) { c.ThreadPointReward = -1 }},
		{"zero excerpt length", func(c *Config) { c.ThreadExcerptRunes = 0 }},
		{"negative recache rate", func(c *Config) { c.RecacheRatePerSec = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	assert.NoError(t, validConfig().Validate())
}

func TestLoadConfig_Defaults(t *testing.T) {
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer os.Unsetenv("THREAD_COOLDOWN")
	defer viper.Reset()

	os.Setenv("APP_ENV", "test")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")
	os.Setenv("THREAD_COOLDOWN", "90s")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 90*time.Second, c.ThreadCooldown)
	assert.Equal(t, int64(5), c.ThreadPointReward)
	assert.Equal(t, 200, c.ThreadExcerptRunes)
}

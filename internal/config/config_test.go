package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "pagepilot", cfg.Logger.ServiceName)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 15, cfg.Task.MaxSteps)
	assert.Equal(t, 3, cfg.Task.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, ProviderGemini, cfg.Planner.Provider)
	assert.Equal(t, 3, cfg.Engine.MaxConcurrentTasks)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_steps", func(c *Config) { c.Task.MaxSteps = 0 }},
		{"negative retries", func(c *Config) { c.Task.MaxRetries = -1 }},
		{"zero concurrency", func(c *Config) { c.Engine.MaxConcurrentTasks = 0 }},
		{"zero navigation timeout", func(c *Config) { c.Network.NavigationTimeout = 0 }},
		{"bad viewport", func(c *Config) { c.Browser.ViewportWidth = 0 }},
		{"unknown provider", func(c *Config) { c.Planner.Provider = "oracle" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigFromViperOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("task.max_steps", 5)
	v.Set("browser.headless", false)
	v.Set("planner.provider", "stub")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Task.MaxSteps)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, ProviderStub, cfg.Planner.Provider)
}

func TestPlannerAPIKeyFromEnv(t *testing.T) {
	t.Setenv("PAGEPILOT_PLANNER_API_KEY", "test-key-123")

	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "test-key-123", cfg.Planner.APIKey)
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/domain"
)

func TestNewManagerDefaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(16), cfg.Server.MaxUploadMB)

	assert.Equal(t, "gemini-1.5-flash", cfg.Narrative.Model)
	assert.Equal(t, 10, cfg.Narrative.RateLimit)
	assert.Equal(t, 3, cfg.Narrative.RetryCount)
	assert.Equal(t, 256, cfg.Narrative.CacheSize)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestManagerValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{
			name:   "Defaults are valid",
			mutate: func(c *domain.Config) {},
		},
		{
			name:    "Port out of range",
			mutate:  func(c *domain.Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "Zero port",
			mutate:  func(c *domain.Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "Upload limit required",
			mutate:  func(c *domain.Config) { c.Server.MaxUploadMB = 0 },
			wantErr: "invalid max upload size",
		},
		{
			name:    "Enabled narrative needs a model",
			mutate:  func(c *domain.Config) { c.Narrative.Model = "" },
			wantErr: "narrative model is required",
		},
		{
			name:    "Narrative rate limit must be positive",
			mutate:  func(c *domain.Config) { c.Narrative.RateLimit = 0 },
			wantErr: "invalid narrative rate limit",
		},
		{
			name: "Disabled narrative skips its checks",
			mutate: func(c *domain.Config) {
				c.Narrative.Enabled = false
				c.Narrative.Model = ""
				c.Narrative.RateLimit = 0
			},
		},
		{
			name:    "Unknown log level",
			mutate:  func(c *domain.Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewManager()
			require.NoError(t, err)

			tt.mutate(manager.config)

			err = manager.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGetServerConfig(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	server := manager.GetServerConfig()
	require.NotNil(t, server)
	assert.Equal(t, manager.GetConfig().Server.Port, server.Port)
}

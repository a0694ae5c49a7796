package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAPIConfigRejectsMissingKey(t *testing.T) {
	t.Setenv("NREGAHUB_API_KEY", "")

	_, err := LoadAPIConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadAPIConfigRejectsPlaceholderKey(t *testing.T) {
	t.Setenv("NREGAHUB_API_KEY", "your_api_key")

	_, err := LoadAPIConfig()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadAPIConfigDefaults(t *testing.T) {
	t.Setenv("NREGAHUB_API_KEY", "real-key-123")
	t.Setenv("NREGAHUB_API_BASE_URL", "")
	t.Setenv("NREGAHUB_RESOURCE_ID", "")

	cfg, err := LoadAPIConfig()
	require.NoError(t, err)
	assert.Equal(t, "real-key-123", cfg.APIKey)
	assert.Equal(t, defaultBaseURL, cfg.BaseURL)
	assert.Equal(t, defaultResourceID, cfg.ResourceID)
	assert.NotZero(t, cfg.Timeout)
}

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/types"
)

func validConfig() config.Config {
	return config.Config{
		DatabaseURL:     "postgres://localhost/arachnid",
		AnthropicAPIKey: "test-key",
		ListenAddr:      ":8080",
		PollInterval:    10 * time.Millisecond,
		MaxIterations:   100,
		DefaultWeb:      types.DefaultWebConfig(),
		LogFormat:       "text",
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	require.NoError(t, config.Validate(validConfig()))
}

func TestValidateRejectsMissingDatabaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.DatabaseURL = ""
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL")
}

func TestValidateRejectsZeroPollInterval(t *testing.T) {
	cfg := validConfig()
	cfg.PollInterval = 0
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PollInterval")
}

func TestValidateRejectsUnknownLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.LogFormat = "xml"
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogFormat")
}

func TestValidateRejectsInvalidDefaultWebConfig(t *testing.T) {
	cfg := validConfig()
	cfg.DefaultWeb.MaxAgents = 0
	err := config.Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MaxAgents")
}

func TestMaxIterationsDefaultMatchesSpec(t *testing.T) {
	assert.Equal(t, 100, config.MaxIterationsDefault)
}

package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var cfg Config
	LoadDefaults(&cfg)

	require.Equal(t, 5*time.Second, cfg.FallbackThreshold)
	require.Equal(t, 15*time.Second, cfg.CallTimeout)
	require.Equal(t, 45*time.Second, cfg.SaveTimeout)
	require.Equal(t, 5*time.Second, cfg.SessionBound)
	require.Equal(t, 500, cfg.ListLimit)
	require.NotEmpty(t, cfg.StorageDSN)
}

func TestApplyJson_OverridesOnlyPresentFields(t *testing.T) {
	var cfg Config
	LoadDefaults(&cfg)

	var jc JsonConfig
	require.NoError(t, json.Unmarshal([]byte(`{
		"api_base_url": "https://records.example.com",
		"api_key": "anon-key",
		"fallback_threshold": "2s"
	}`), &jc))

	applyJson(&cfg, &jc)

	require.Equal(t, "https://records.example.com", cfg.APIBaseURL)
	require.Equal(t, "anon-key", cfg.APIKey)
	require.Equal(t, 2*time.Second, cfg.FallbackThreshold)
	require.Equal(t, 15*time.Second, cfg.CallTimeout, "absent field keeps its default")
	require.Equal(t, 45*time.Second, cfg.SaveTimeout)
}

func TestApplyJson_IntegerNanoseconds(t *testing.T) {
	var cfg Config
	LoadDefaults(&cfg)

	var jc JsonConfig
	require.NoError(t, json.Unmarshal([]byte(`{"call_timeout": 1000000000}`), &jc))
	applyJson(&cfg, &jc)

	require.Equal(t, time.Second, cfg.CallTimeout)
}

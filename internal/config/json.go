package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/flagx"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so intervals can be written either as strings like "5s" or
// as integer nanoseconds; parsed values are copied into the runtime Config.
type JsonConfig struct {
	APIBaseURL string `json:"api_base_url"`
	APIKey     string `json:"api_key"`
	StorageDSN string `json:"storage_dsn"`

	FallbackThreshold timex.Duration `json:"fallback_threshold"`
	CallTimeout       timex.Duration `json:"call_timeout"`
	SaveTimeout       timex.Duration `json:"save_timeout"`
	SessionBound      timex.Duration `json:"session_bound"`

	SyncMaxRetries uint64         `json:"sync_max_retries"`
	SyncBaseDelay  timex.Duration `json:"sync_base_delay"`

	ListLimit int `json:"list_limit"`
}

// parseJson overlays cfg with values from the JSON file named by the
// -c/-config flag. No flag, no overlay. Only fields present in the file
// override; absent duration fields stay at their prior values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	applyJson(cfg, &jc)
}

func applyJson(cfg *Config, jc *JsonConfig) {
	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.APIKey != "" {
		cfg.APIKey = jc.APIKey
	}
	if jc.StorageDSN != "" {
		cfg.StorageDSN = jc.StorageDSN
	}
	if jc.FallbackThreshold.Duration != 0 {
		cfg.FallbackThreshold = time.Duration(jc.FallbackThreshold.Duration)
	}
	if jc.CallTimeout.Duration != 0 {
		cfg.CallTimeout = time.Duration(jc.CallTimeout.Duration)
	}
	if jc.SaveTimeout.Duration != 0 {
		cfg.SaveTimeout = time.Duration(jc.SaveTimeout.Duration)
	}
	if jc.SessionBound.Duration != 0 {
		cfg.SessionBound = time.Duration(jc.SessionBound.Duration)
	}
	if jc.SyncMaxRetries != 0 {
		cfg.SyncMaxRetries = jc.SyncMaxRetries
	}
	if jc.SyncBaseDelay.Duration != 0 {
		cfg.SyncBaseDelay = time.Duration(jc.SyncBaseDelay.Duration)
	}
	if jc.ListLimit != 0 {
		cfg.ListLimit = jc.ListLimit
	}
}

// Package config loads runtime configuration for the sync tool.
//
// Settings come from three layers, lowest precedence first: an optional
// TOML file (~/.crmsync/config.toml by default), a .env file in the
// working directory, and process environment variables. Credentials are
// only ever read from the environment layers, never stored in TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/liveport/crmsync/internal/core/domain"
)

// Defaults applied when neither file nor environment sets a value.
const (
	DefaultPipedriveBaseURL   = "https://api.pipedrive.com/v1"
	DefaultCustomerLabelID    = 5
	DefaultCustomerFilterID   = 5
	DefaultCountryCode        = "+61"
	DefaultBatchSize          = 50
	DefaultErrorRateThreshold = 10.0
	DefaultMaxSyncAgeHours    = 24
	DefaultInboxNameHint      = "customer database"
)

// Config is the fully resolved runtime configuration.
type Config struct {
	Pipedrive PipedriveConfig `toml:"pipedrive"`
	Chatwoot  ChatwootConfig  `toml:"chatwoot"`
	Sync      SyncConfig      `toml:"sync"`
	Alerts    AlertConfig     `toml:"alerts"`

	// DataDir holds the SQLite mirror. Empty means the default under
	// the user home directory.
	DataDir string `toml:"data_dir"`
}

// PipedriveConfig configures the CRM client. CustomerFilterID is the
// saved filter selecting customer organizations, used to scope the
// upstream count.
type PipedriveConfig struct {
	BaseURL          string `toml:"base_url"`
	APIToken         string `toml:"-"`
	CustomerLabelID  int64  `toml:"customer_label_id"`
	CustomerFilterID int64  `toml:"customer_filter_id"`
	PhoneFieldKey    string `toml:"phone_field_key"`
	CountryCode      string `toml:"country_code"`
}

// ChatwootConfig configures the support desk client.
type ChatwootConfig struct {
	BaseURL       string `toml:"base_url"`
	APIToken      string `toml:"-"`
	InboxID       int64  `toml:"inbox_id"`
	InboxNameHint string `toml:"inbox_name_hint"`
}

// SyncConfig tunes the sync pipeline.
type SyncConfig struct {
	BatchSize       int `toml:"batch_size"`
	MaxSyncAgeHours int `toml:"max_sync_age_hours"`
}

// AlertConfig configures outbound notifications.
type AlertConfig struct {
	WebhookURL         string  `toml:"-"`
	ErrorRateThreshold float64 `toml:"error_rate_threshold"`
}

// Load resolves configuration from the TOML file at path (optional, ""
// means the default location), a .env file, and the environment.
func Load(path string) (*Config, error) {
	// Best-effort: a missing .env file is fine.
	_ = godotenv.Load()

	cfg := defaults()

	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	return cfg, nil
}

// Validate fails when required credentials are missing, so commands
// abort before touching any API.
func (c *Config) Validate() error {
	var missing []string
	if c.Pipedrive.APIToken == "" {
		missing = append(missing, "PIPEDRIVE_API_KEY")
	}
	if c.Chatwoot.APIToken == "" {
		missing = append(missing, "CHATWOOT_API_KEY")
	}
	if c.Chatwoot.BaseURL == "" {
		missing = append(missing, "CHATWOOT_BASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingConfig, strings.Join(missing, ", "))
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Pipedrive: PipedriveConfig{
			BaseURL:          DefaultPipedriveBaseURL,
			CustomerLabelID:  DefaultCustomerLabelID,
			CustomerFilterID: DefaultCustomerFilterID,
			CountryCode:      DefaultCountryCode,
		},
		Chatwoot: ChatwootConfig{
			InboxNameHint: DefaultInboxNameHint,
		},
		Sync: SyncConfig{
			BatchSize:       DefaultBatchSize,
			MaxSyncAgeHours: DefaultMaxSyncAgeHours,
		},
		Alerts: AlertConfig{
			ErrorRateThreshold: DefaultErrorRateThreshold,
		},
	}
}

// loadFile merges the TOML file into cfg. A missing file at the default
// location is fine; an explicitly named missing file is an error.
func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".crmsync", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config) {
	setString(&cfg.Pipedrive.BaseURL, "PIPEDRIVE_BASE_URL")
	setString(&cfg.Pipedrive.APIToken, "PIPEDRIVE_API_KEY")
	setInt64(&cfg.Pipedrive.CustomerLabelID, "PIPEDRIVE_CUSTOMER_LABEL_ID")
	setInt64(&cfg.Pipedrive.CustomerFilterID, "PIPEDRIVE_CUSTOMER_FILTER_ID")
	setString(&cfg.Pipedrive.PhoneFieldKey, "PIPEDRIVE_PHONE_FIELD_KEY")
	setString(&cfg.Pipedrive.CountryCode, "PHONE_COUNTRY_CODE")

	setString(&cfg.Chatwoot.BaseURL, "CHATWOOT_BASE_URL")
	setString(&cfg.Chatwoot.APIToken, "CHATWOOT_API_KEY")
	setInt64(&cfg.Chatwoot.InboxID, "CHATWOOT_INBOX_ID")

	setInt(&cfg.Sync.BatchSize, "BATCH_SIZE")
	setInt(&cfg.Sync.MaxSyncAgeHours, "MAX_SYNC_AGE_HOURS")

	setString(&cfg.Alerts.WebhookURL, "SUPPORT_GOOGLE_CHAT")
	setFloat(&cfg.Alerts.ErrorRateThreshold, "ALERT_ERROR_THRESHOLD")

	setString(&cfg.DataDir, "CRMSYNC_DATA_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

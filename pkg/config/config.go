package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/am2r-community-developers/am2rbot/internal/infra"
)

var (
	ErrMissingHomeserver  = errors.New("matrix.homeserver is required")
	ErrMissingUserID      = errors.New("matrix.user_id is required")
	ErrMissingAccessToken = errors.New("matrix.access_token is required")
	ErrMissingAssetsDir   = errors.New("whereis.attachments.assets_dir is required when attachments are enabled")
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can mix "@alice:example.org" with numeric ids.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Matrix    MatrixConfig    `json:"matrix"`
	WhereIs   WhereIsConfig   `json:"whereis"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Logging   LoggingConfig   `json:"logging"`
}

type MatrixConfig struct {
	Homeserver    string              `json:"homeserver" env:"AM2RBOT_MATRIX_HOMESERVER"`
	UserID        string              `json:"user_id" env:"AM2RBOT_MATRIX_USER_ID"`
	AccessToken   string              `json:"access_token" env:"AM2RBOT_MATRIX_ACCESS_TOKEN"`
	DeviceID      string              `json:"device_id" env:"AM2RBOT_MATRIX_DEVICE_ID"`
	JoinOnInvite  bool                `json:"join_on_invite" env:"AM2RBOT_MATRIX_JOIN_ON_INVITE"`
	AllowFrom     FlexibleStringSlice `json:"allow_from" env:"AM2RBOT_MATRIX_ALLOW_FROM" envSeparator:","`
	CommandPrefix string              `json:"command_prefix" env:"AM2RBOT_MATRIX_COMMAND_PREFIX"`
}

type WhereIsConfig struct {
	Attachments AttachmentsConfig `json:"attachments"`
}

// AttachmentsConfig turns on uploading local images for whereis entries
// that carry one. Off by default; the remote image links are used instead.
type AttachmentsConfig struct {
	Enabled   bool   `json:"enabled" env:"AM2RBOT_WHEREIS_ATTACHMENTS_ENABLED"`
	AssetsDir string `json:"assets_dir" env:"AM2RBOT_WHEREIS_ATTACHMENTS_ASSETS_DIR"`
}

type DispatchConfig struct {
	// MaxConcurrent caps in-flight command tasks; 0 means unlimited.
	MaxConcurrent int `json:"max_concurrent" env:"AM2RBOT_DISPATCH_MAX_CONCURRENT"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled" env:"AM2RBOT_RATE_LIMIT_ENABLED"`
	CommandsPerMinute int  `json:"commands_per_minute" env:"AM2RBOT_RATE_LIMIT_COMMANDS_PER_MINUTE"`
	Burst             int  `json:"burst" env:"AM2RBOT_RATE_LIMIT_BURST"`
}

type LoggingConfig struct {
	Level string `json:"level" env:"AM2RBOT_LOG_LEVEL"`
	File  string `json:"file" env:"AM2RBOT_LOG_FILE"`
	// DisableRedaction writes tokens to the log unmasked. Debugging only.
	DisableRedaction bool `json:"disable_redaction" env:"AM2RBOT_LOG_DISABLE_REDACTION"`
}

func DefaultConfig() *Config {
	return &Config{
		Matrix: MatrixConfig{
			JoinOnInvite:  true,
			AllowFrom:     FlexibleStringSlice{},
			CommandPrefix: "!",
		},
		WhereIs: WhereIsConfig{
			Attachments: AttachmentsConfig{
				Enabled:   false,
				AssetsDir: filepath.Join(infra.ResolveHomeDir(), "whereis"),
			},
		},
		Dispatch: DispatchConfig{
			MaxConcurrent: 0,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			CommandsPerMinute: 20,
			Burst:             5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := decodeConfig(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decodeConfig reads JSON, YAML or TOML depending on the file extension.
// YAML and TOML are normalized to JSON first so the json tags stay the
// single source of key names.
func decodeConfig(path string, data []byte, cfg *Config) error {
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return err
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return err
		}
	default:
		return json.Unmarshal(data, cfg)
	}

	normalized, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(normalized, cfg)
}

// Validate reports the first setting that prevents the bot from starting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Matrix.Homeserver) == "":
		return ErrMissingHomeserver
	case strings.TrimSpace(c.Matrix.UserID) == "":
		return ErrMissingUserID
	case strings.TrimSpace(c.Matrix.AccessToken) == "":
		return ErrMissingAccessToken
	case c.WhereIs.Attachments.Enabled && strings.TrimSpace(c.WhereIs.Attachments.AssetsDir) == "":
		return ErrMissingAssetsDir
	}
	return nil
}

// AssetsDir returns the expanded attachment directory, or "" when
// attachment replies are disabled.
func (c *Config) AssetsDir() string {
	if !c.WhereIs.Attachments.Enabled {
		return ""
	}
	return expandHome(c.WhereIs.Attachments.AssetsDir)
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

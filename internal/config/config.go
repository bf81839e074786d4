// Package config loads duet's settings from ~/.duet/config.json, DUET_*
// environment variables and an optional .env.local file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvFile is loaded from the working directory before the environment is read.
const EnvFile = ".env.local"

// Config is the application configuration.
type Config struct {
	Backend  BackendConfig `mapstructure:"backend" json:"backend"`
	Gateway  GatewayConfig `mapstructure:"gateway" json:"gateway"`
	UI       UIConfig      `mapstructure:"ui" json:"ui"`
	LogLevel string        `mapstructure:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// BackendConfig is where the TUI and duetctl send chat and search calls.
type BackendConfig struct {
	URL     string        `mapstructure:"url" json:"url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" json:"timeout" validate:"gte=0"` // 0 = none
}

// GatewayConfig holds duetd settings.
type GatewayConfig struct {
	Listen        string  `mapstructure:"listen" json:"listen" validate:"required,hostname_port"`
	Upstream      string  `mapstructure:"upstream" json:"upstream" validate:"required,url"`
	RatePerSecond float64 `mapstructure:"rate_per_second" json:"rate_per_second" validate:"gte=0"` // 0 = unlimited
	Burst         int     `mapstructure:"burst" json:"burst" validate:"gte=0"`
	Journal       string  `mapstructure:"journal" json:"journal"` // "" disables the journal
}

// UIConfig holds TUI preferences.
type UIConfig struct {
	InspectorOffset int `mapstructure:"inspector_offset" json:"inspector_offset" validate:"gte=0,lte=40"`
	InspectorWidth  int `mapstructure:"inspector_width" json:"inspector_width" validate:"gte=20"`
	SearchTopK      int `mapstructure:"search_top_k" json:"search_top_k" validate:"gte=1,lte=100"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			URL: "http://127.0.0.1:5328",
		},
		Gateway: GatewayConfig{
			Listen:   "127.0.0.1:3000",
			Upstream: "http://127.0.0.1:5328",
			Burst:    4,
			Journal:  filepath.Join(Dir(), "journal.db"),
		},
		UI: UIConfig{
			InspectorOffset: 2,
			InspectorWidth:  64,
			SearchTopK:      10,
		},
		LogLevel: "info",
	}
}

// Dir is duet's state directory: $DUET_HOME if set, else ~/.duet.
func Dir() string {
	if d := os.Getenv("DUET_HOME"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".duet")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(Dir(), "config.json")
}

// EventsPath returns the path of the JSONL event log.
func EventsPath() string {
	return filepath.Join(Dir(), "duet.events.jsonl")
}

// Load reads the config file at ConfigPath.
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile layers, lowest first: defaults, the JSON file at path (a missing
// file is fine), then DUET_* variables. Nested keys map to env names with
// "." replaced by "_", so backend.url is DUET_BACKEND_URL. .env.local is
// read first and never overrides variables already set.
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(EnvFile); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("DUET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Gateway.Journal = expandHome(cfg.Gateway.Journal)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(name string) error {
	if _, err := os.Stat(name); err != nil {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.timeout", d.Backend.Timeout)
	v.SetDefault("gateway.listen", d.Gateway.Listen)
	v.SetDefault("gateway.upstream", d.Gateway.Upstream)
	v.SetDefault("gateway.rate_per_second", d.Gateway.RatePerSecond)
	v.SetDefault("gateway.burst", d.Gateway.Burst)
	v.SetDefault("gateway.journal", d.Gateway.Journal)
	v.SetDefault("ui.inspector_offset", d.UI.InspectorOffset)
	v.SetDefault("ui.inspector_width", d.UI.InspectorWidth)
	v.SetDefault("ui.search_top_k", d.UI.SearchTopK)
	v.SetDefault("log_level", d.LogLevel)
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field ranges and URL shapes.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes config to ConfigPath.
func (c *Config) Save() error {
	return c.SaveFile(ConfigPath())
}

// SaveFile writes the config as indented JSON. Durations are written as
// strings such as "30s" so the file stays editable.
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	type backendOut struct {
		URL     string `json:"url"`
		Timeout string `json:"timeout"`
	}
	out := struct {
		Backend  backendOut    `json:"backend"`
		Gateway  GatewayConfig `json:"gateway"`
		UI       UIConfig      `json:"ui"`
		LogLevel string        `json:"log_level"`
	}{
		Backend:  backendOut{URL: c.Backend.URL, Timeout: c.Backend.Timeout.String()},
		Gateway:  c.Gateway,
		UI:       c.UI,
		LogLevel: c.LogLevel,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

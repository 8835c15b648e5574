package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	SchemaVersion              = 1
	DefaultPath                = "/etc/eufyvac/config.yaml"
	DefaultHTTPAddr            = "0.0.0.0:8080"
	DefaultDashboardDir        = "/var/lib/eufyvac/dashboards"
	DefaultPollIntervalSeconds = 30
)

// Config is the daemon configuration file.
type Config struct {
	SchemaVersion int              `yaml:"schema_version"`
	Core          *CoreConfig      `yaml:"core"`
	Eufyclean     *EufycleanConfig `yaml:"eufyclean"`
}

type CoreConfig struct {
	HTTPAddr     string `yaml:"http_addr"`
	DashboardDir string `yaml:"dashboard_dir"`
}

type EufycleanConfig struct {
	Email             string            `yaml:"email"`
	Password          string            `yaml:"password"`
	DeviceIPOverrides map[string]string `yaml:"device_ip_overrides"`
	PollSeconds       int               `yaml:"poll_interval_seconds"`
	MQTT              *MQTTConfig       `yaml:"mqtt"`
}

type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Topic    string `yaml:"topic"`
}

// Load parses the YAML config file, applies defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Core == nil {
		cfg.Core = &CoreConfig{}
	}
	if cfg.Core.HTTPAddr == "" {
		cfg.Core.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Core.DashboardDir == "" {
		cfg.Core.DashboardDir = DefaultDashboardDir
	}

	if cfg.Eufyclean != nil {
		if cfg.Eufyclean.PollSeconds == 0 {
			cfg.Eufyclean.PollSeconds = DefaultPollIntervalSeconds
		}
		if cfg.Eufyclean.MQTT != nil && cfg.Eufyclean.MQTT.Port == 0 {
			cfg.Eufyclean.MQTT.Port = 1883
		}
	}
}

// Validate enforces required invariants beyond YAML typing.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if cfg.SchemaVersion != SchemaVersion {
		return fmt.Errorf("schema_version must be %d", SchemaVersion)
	}

	if cfg.Core == nil {
		return fmt.Errorf("core config is required")
	}
	if cfg.Core.HTTPAddr == "" {
		return fmt.Errorf("core.http_addr is required")
	}

	if cfg.Eufyclean != nil {
		if cfg.Eufyclean.Email == "" {
			return fmt.Errorf("eufyclean.email is required")
		}
		if cfg.Eufyclean.Password == "" {
			return fmt.Errorf("eufyclean.password is required")
		}
		if cfg.Eufyclean.MQTT != nil && cfg.Eufyclean.MQTT.Host == "" {
			return fmt.Errorf("eufyclean.mqtt.host is required")
		}
	}

	return nil
}

// SearchPaths lists the config file locations in resolution order. The
// EUFYVAC_CONFIG environment variable wins when set.
func SearchPaths() []string {
	if path := os.Getenv("EUFYVAC_CONFIG"); path != "" {
		return []string{path}
	}
	paths := []string{DefaultPath}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "eufyvac", "config.yaml"))
	}
	return paths
}

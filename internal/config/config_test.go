package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
schema_version: 1
eufyclean:
  email: someone@example.com
  password: hunter2
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Core.HTTPAddr != DefaultHTTPAddr {
		t.Fatalf("unexpected http addr: %s", cfg.Core.HTTPAddr)
	}
	if cfg.Core.DashboardDir != DefaultDashboardDir {
		t.Fatalf("unexpected dashboard dir: %s", cfg.Core.DashboardDir)
	}
	if cfg.Eufyclean.PollSeconds != DefaultPollIntervalSeconds {
		t.Fatalf("unexpected poll interval: %d", cfg.Eufyclean.PollSeconds)
	}
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
schema_version: 1
core:
  http_addr: 127.0.0.1:9999
  dashboard_dir: /tmp/dashboards
eufyclean:
  email: someone@example.com
  password: hunter2
  poll_interval_seconds: 60
  device_ip_overrides:
    abc123: 192.168.1.40
  mqtt:
    host: broker.local
    username: mq
    password: ttpass
    topic: vacuums
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Core.HTTPAddr != "127.0.0.1:9999" {
		t.Fatalf("unexpected http addr: %s", cfg.Core.HTTPAddr)
	}
	if cfg.Eufyclean.DeviceIPOverrides["abc123"] != "192.168.1.40" {
		t.Fatalf("unexpected override: %+v", cfg.Eufyclean.DeviceIPOverrides)
	}
	if cfg.Eufyclean.MQTT.Port != 1883 {
		t.Fatalf("expected default mqtt port, got %d", cfg.Eufyclean.MQTT.Port)
	}
	if cfg.Eufyclean.MQTT.Topic != "vacuums" {
		t.Fatalf("unexpected topic: %s", cfg.Eufyclean.MQTT.Topic)
	}
}

func TestLoadRejectsBadSchema(t *testing.T) {
	path := writeConfig(t, `
schema_version: 2
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected schema version error")
	}
}

func TestLoadRejectsMissingCredentials(t *testing.T) {
	path := writeConfig(t, `
schema_version: 1
eufyclean:
  email: someone@example.com
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected missing password error")
	}
}

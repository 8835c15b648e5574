package eufyclean

import (
	"fmt"

	"github.com/joshp123/eufyvac/internal/config"
)

// Config defines runtime configuration for the Eufy Clean client.
type Config struct {
	Email       string
	Password    string
	IPOverrides map[string]string

	// LocalTransport, when set, builds LAN transports for devices. When nil
	// the client falls back to driving devices through the cloud API.
	LocalTransport TransportFactory
}

func ConfigFromSettings(cfg *config.EufycleanConfig) (Config, error) {
	if cfg == nil {
		return Config{}, fmt.Errorf("eufyclean config is required")
	}
	if cfg.Email == "" {
		return Config{}, fmt.Errorf("eufyclean.email is required")
	}
	if cfg.Password == "" {
		return Config{}, fmt.Errorf("eufyclean.password is required")
	}

	return Config{
		Email:       cfg.Email,
		Password:    cfg.Password,
		IPOverrides: cfg.DeviceIPOverrides,
	}, nil
}

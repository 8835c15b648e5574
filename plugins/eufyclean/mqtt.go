package eufyclean

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig configures the status bridge broker connection.
type MQTTConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	Topic    string
}

// StatusBridge publishes per-device status JSON to an MQTT broker on a poll
// interval.
type StatusBridge struct {
	client mqtt.Client
	topic  string
}

type statusMessage struct {
	DeviceID   string `json:"device_id"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	State      string `json:"state"`
	Battery    int    `json:"battery"`
	FanSpeed   string `json:"fan_speed"`
	ErrorCode  string `json:"error_code"`
	ErrorLabel string `json:"error"`
	Powered    bool   `json:"powered"`
	Reachable  bool   `json:"reachable"`
	Timestamp  int64  `json:"ts"`
}

func NewStatusBridge(cfg MQTTConfig) (*StatusBridge, error) {
	opts := mqtt.NewClientOptions()
	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(randomClientID())
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	topic := cfg.Topic
	if topic == "" {
		topic = "eufyvac"
	}
	return &StatusBridge{client: client, topic: topic}, nil
}

// Run polls and publishes until the context is cancelled. Poll errors are
// logged and the loop keeps going; a broken cloud session must not kill the
// bridge.
func (b *StatusBridge) Run(ctx context.Context, client *Client, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := b.publishOnce(ctx, client); err != nil {
			slog.Warn("mqtt status publish failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *StatusBridge) publishOnce(ctx context.Context, client *Client) error {
	states, err := client.DeviceStates(ctx)
	if err != nil {
		return err
	}
	now := time.Now().Unix()
	for _, state := range states {
		msg := statusMessage{
			DeviceID:   state.Device.ID,
			Name:       state.Device.Name,
			Model:      state.Device.Model,
			State:      string(state.Status.State),
			Battery:    state.Status.BatteryPercent,
			FanSpeed:   string(state.Status.FanSpeed),
			ErrorCode:  state.Status.ErrorCode,
			ErrorLabel: ErrorDescription(state.Status.ErrorCode),
			Powered:    state.Status.Powered,
			Reachable:  state.Reachable,
			Timestamp:  now,
		}
		payload, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		topic := fmt.Sprintf("%s/%s/status", b.topic, state.Device.ID)
		if token := b.client.Publish(topic, 0, true, payload); token.Wait() && token.Error() != nil {
			return token.Error()
		}
	}
	return nil
}

// Close disconnects from the broker.
func (b *StatusBridge) Close() {
	b.client.Disconnect(250)
}

func randomClientID() string {
	nonce := make([]byte, 8)
	_, _ = rand.Read(nonce)
	return "eufyvac-" + base64.RawURLEncoding.EncodeToString(nonce)
}

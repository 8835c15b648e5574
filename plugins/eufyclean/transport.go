package eufyclean

import (
	"context"
	"encoding/json"
	"fmt"
)

// Transport is the device-level control channel. The local Tuya wire
// protocol is an external collaborator behind this interface; the cloud
// fallback below implements it over the signed API for devices without a
// reachable LAN address.
type Transport interface {
	// Status returns the raw status response; the DPS vector is expected
	// under the "dps" key.
	Status(ctx context.Context) (map[string]any, error)
	SetValues(ctx context.Context, values map[string]any) error
	Close() error
}

// TransportFactory builds a transport for one device record.
type TransportFactory func(record DeviceRecord) (Transport, error)

// cloudTransport drives a device through the signed cloud API instead of a
// LAN connection.
type cloudTransport struct {
	session  *TuyaSession
	deviceID string
}

// NewCloudTransportFactory returns a factory producing cloud-backed
// transports for every device.
func NewCloudTransportFactory(session *TuyaSession) TransportFactory {
	return func(record DeviceRecord) (Transport, error) {
		if record.ID == "" {
			return nil, fmt.Errorf("%w: device record missing id", ErrDeviceUnavailable)
		}
		return &cloudTransport{session: session, deviceID: record.ID}, nil
	}
}

func (t *cloudTransport) Status(ctx context.Context) (map[string]any, error) {
	result, err := t.session.Request(ctx, "tuya.m.device.dp.get", "2.1", map[string]any{
		"devId": t.deviceID,
	}, nil, true)
	if err != nil {
		return nil, err
	}
	dps, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected dp.get result shape", ErrProtocol)
	}
	return map[string]any{"dps": dps}, nil
}

func (t *cloudTransport) SetValues(ctx context.Context, values map[string]any) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return err
	}
	_, err = t.session.Request(ctx, "tuya.m.device.dp.publish", "1.0", map[string]any{
		"devId": t.deviceID,
		"gwId":  t.deviceID,
		"dps":   string(encoded),
	}, nil, true)
	return err
}

func (t *cloudTransport) Close() error { return nil }

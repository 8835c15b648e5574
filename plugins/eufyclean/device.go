package eufyclean

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// Local operations get a short fixed timeout; a sleeping device should
	// degrade to a soft failure quickly, not stall a polling loop.
	localTimeout = 5 * time.Second

	// TuyaProtocolVersion is the local wire protocol version RoboVacs speak.
	TuyaProtocolVersion = "3.3"
)

// DeviceSession is the per-device controller. It owns the transport
// connection and strictly serializes all status and command operations; the
// underlying transport does not tolerate interleaved requests on one
// connection.
type DeviceSession struct {
	record  DeviceRecord
	factory TransportFactory

	mu        sync.Mutex
	transport Transport
}

func NewDeviceSession(record DeviceRecord, factory TransportFactory) *DeviceSession {
	return &DeviceSession{record: record, factory: factory}
}

// Device returns the record this session controls.
func (s *DeviceSession) Device() DeviceRecord { return s.record }

// Connect establishes the transport connection. Idempotent.
func (s *DeviceSession) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureConnectedLocked()
}

func (s *DeviceSession) ensureConnectedLocked() error {
	if s.transport != nil {
		return nil
	}
	transport, err := s.factory(s.record)
	if err != nil {
		return fmt.Errorf("%w: connect %s: %v", ErrDeviceUnavailable, s.record.ID, err)
	}
	s.transport = transport
	return nil
}

// dropLocked discards a failed connection so the next operation performs a
// single implicit reconnect.
func (s *DeviceSession) dropLocked() {
	if s.transport != nil {
		_ = s.transport.Close()
		s.transport = nil
	}
}

// Status queries the device and translates the DPS vector. An unreachable
// device or a response without a status vector yields ErrDeviceUnavailable,
// a soft outcome the caller should treat as retryable.
func (s *DeviceSession) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConnectedLocked(); err != nil {
		return Status{}, err
	}
	opCtx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	raw, err := s.transport.Status(opCtx)
	if err != nil {
		s.dropLocked()
		return Status{}, fmt.Errorf("%w: status %s: %v", ErrDeviceUnavailable, s.record.ID, err)
	}
	dps, ok := raw["dps"].(map[string]any)
	if !ok {
		s.dropLocked()
		return Status{}, fmt.Errorf("%w: status %s: response missing dps", ErrDeviceUnavailable, s.record.ID)
	}
	return parseStatus(dps), nil
}

// Send translates and transmits a command. A transport failure yields
// ErrCommandUnconfirmed: the command may or may not have taken effect, and
// the caller should re-poll status.
func (s *DeviceSession) Send(ctx context.Context, cmd Command) error {
	delta := dpsForCommand(cmd)
	if delta == nil {
		return fmt.Errorf("unknown command type %d", cmd.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConnectedLocked(); err != nil {
		return err
	}
	opCtx, cancel := context.WithTimeout(ctx, localTimeout)
	defer cancel()

	if err := s.transport.SetValues(opCtx, delta); err != nil {
		s.dropLocked()
		return fmt.Errorf("%w: send %s: %v", ErrCommandUnconfirmed, s.record.ID, err)
	}
	return nil
}

// Close tears down the transport connection. The session may be reused; the
// next operation reconnects.
func (s *DeviceSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transport == nil {
		return nil
	}
	err := s.transport.Close()
	s.transport = nil
	return err
}

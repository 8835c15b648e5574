package eufyclean

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeTransport tracks in-flight operations to catch interleaving and can be
// told to fail.
type fakeTransport struct {
	mu       sync.Mutex
	inFlight int32
	overlap  atomic.Bool
	fail     atomic.Bool
	statuses int
	sets     []map[string]any
	closed   bool
	dps      map[string]any
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{dps: map[string]any{"1": true, "15": "Cleaning", "104": float64(80)}}
}

func (f *fakeTransport) enter() {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(time.Millisecond)
}

func (f *fakeTransport) exit() {
	atomic.AddInt32(&f.inFlight, -1)
}

func (f *fakeTransport) Status(_ context.Context) (map[string]any, error) {
	f.enter()
	defer f.exit()
	if f.fail.Load() {
		return nil, fmt.Errorf("connection reset")
	}
	f.mu.Lock()
	f.statuses++
	f.mu.Unlock()
	return map[string]any{"dps": f.dps}, nil
}

func (f *fakeTransport) SetValues(_ context.Context, values map[string]any) error {
	f.enter()
	defer f.exit()
	if f.fail.Load() {
		return fmt.Errorf("connection reset")
	}
	f.mu.Lock()
	f.sets = append(f.sets, values)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func factoryFor(transports ...*fakeTransport) TransportFactory {
	var i int
	var mu sync.Mutex
	return func(DeviceRecord) (Transport, error) {
		mu.Lock()
		defer mu.Unlock()
		t := transports[i%len(transports)]
		i++
		return t, nil
	}
}

func TestDeviceSessionSerializesOperations(t *testing.T) {
	transport := newFakeTransport()
	session := NewDeviceSession(DeviceRecord{ID: "dev-1", LocalKey: "k"}, factoryFor(transport))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = session.Status(context.Background())
		}()
		go func() {
			defer wg.Done()
			_ = session.Send(context.Background(), Command{Type: CommandStart})
		}()
	}
	wg.Wait()

	if transport.overlap.Load() {
		t.Fatalf("operations overlapped on one connection")
	}
	if transport.statuses != 10 {
		t.Fatalf("expected 10 status calls, got %d", transport.statuses)
	}
	if len(transport.sets) != 10 {
		t.Fatalf("expected 10 set calls, got %d", len(transport.sets))
	}
}

func TestDeviceSessionsIndependent(t *testing.T) {
	a := newFakeTransport()
	b := newFakeTransport()
	sessionA := NewDeviceSession(DeviceRecord{ID: "a", LocalKey: "k"}, factoryFor(a))
	sessionB := NewDeviceSession(DeviceRecord{ID: "b", LocalKey: "k"}, factoryFor(b))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = sessionA.Status(context.Background())
		}()
		go func() {
			defer wg.Done()
			_, _ = sessionB.Status(context.Background())
		}()
	}
	wg.Wait()

	if a.overlap.Load() || b.overlap.Load() {
		t.Fatalf("per-device serialization must not be global")
	}
}

func TestDeviceSessionStatusTranslates(t *testing.T) {
	transport := newFakeTransport()
	session := NewDeviceSession(DeviceRecord{ID: "dev-1", LocalKey: "k"}, factoryFor(transport))

	status, err := session.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.State != StateCleaning || status.BatteryPercent != 80 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestDeviceSessionSoftFailureAndReconnect(t *testing.T) {
	transport := newFakeTransport()
	session := NewDeviceSession(DeviceRecord{ID: "dev-1", LocalKey: "k"}, factoryFor(transport))

	transport.fail.Store(true)
	_, err := session.Status(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
	if !transport.closed {
		t.Fatalf("failed connection must be dropped")
	}

	// Next operation reconnects implicitly and succeeds.
	transport.fail.Store(false)
	if _, err := session.Status(context.Background()); err != nil {
		t.Fatalf("expected implicit reconnect, got %v", err)
	}
}

func TestDeviceSessionSendUnconfirmed(t *testing.T) {
	transport := newFakeTransport()
	session := NewDeviceSession(DeviceRecord{ID: "dev-1", LocalKey: "k"}, factoryFor(transport))

	transport.fail.Store(true)
	err := session.Send(context.Background(), Command{Type: CommandStart})
	if !errors.Is(err, ErrCommandUnconfirmed) {
		t.Fatalf("expected ErrCommandUnconfirmed, got %v", err)
	}
}

func TestDeviceSessionConnectIdempotent(t *testing.T) {
	var builds int
	factory := func(DeviceRecord) (Transport, error) {
		builds++
		return newFakeTransport(), nil
	}
	session := NewDeviceSession(DeviceRecord{ID: "dev-1", LocalKey: "k"}, factory)

	if err := session.Connect(); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := session.Connect(); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if builds != 1 {
		t.Fatalf("expected a single transport build, got %d", builds)
	}
}

func TestDeviceSessionConnectFailureIsSoft(t *testing.T) {
	factory := func(DeviceRecord) (Transport, error) {
		return nil, fmt.Errorf("no route to host")
	}
	session := NewDeviceSession(DeviceRecord{ID: "dev-1", LocalKey: "k"}, factory)
	if err := session.Connect(); !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestDeviceSessionStatusMissingDps(t *testing.T) {
	session := NewDeviceSession(DeviceRecord{ID: "dev-1", LocalKey: "k"}, func(DeviceRecord) (Transport, error) {
		return statusShape{newFakeTransport()}, nil
	})

	_, err := session.Status(context.Background())
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

// statusShape returns a response without a dps vector.
type statusShape struct{ *fakeTransport }

func (s statusShape) Status(context.Context) (map[string]any, error) {
	return map[string]any{"devId": "dev-1"}, nil
}

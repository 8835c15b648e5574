package eufyclean

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/joshp123/eufyvac/internal/rate"
)

// Client ties together login, directory, and per-device sessions. It is the
// facade the plugin, daemon, and CLI drive.
type Client struct {
	cfg     Config
	eufy    *EufyApiClient
	tuya    *TuyaSession
	factory TransportFactory

	mu       sync.Mutex
	loggedIn bool
	catalog  map[string]DeviceRecord
	sessions map[string]*DeviceSession
	last     map[string]Status
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.Email == "" || cfg.Password == "" {
		return nil, fmt.Errorf("eufyclean requires email and password")
	}

	eufyHTTP := rate.WrapHTTP(
		rate.Provider("eufy").MaxRequestsPer(rate.Minute, 30),
		&http.Client{Timeout: 10 * time.Second},
	)
	tuyaHTTP := rate.WrapHTTP(
		rate.Provider("tuya").MaxRequestsPer(rate.Minute, 60),
		&http.Client{Timeout: 10 * time.Second},
	)

	c := &Client{
		cfg:      cfg,
		eufy:     NewEufyApiClient(eufyHTTP),
		tuya:     NewTuyaSession(tuyaHTTP),
		sessions: make(map[string]*DeviceSession),
		last:     make(map[string]Status),
	}
	c.factory = cfg.LocalTransport
	if c.factory == nil {
		c.factory = NewCloudTransportFactory(c.tuya)
	}
	return c, nil
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}
	if err := c.eufy.Login(ctx, c.cfg.Email, c.cfg.Password); err != nil {
		return err
	}
	if c.eufy.AccountID() == "" || c.eufy.CountryCode() == "" {
		return fmt.Errorf("%w: login response missing account id or country code", ErrSession)
	}
	c.tuya.SetAccount(c.eufy.AccountID(), c.eufy.CountryCode())
	c.loggedIn = true
	return nil
}

func (c *Client) ensureCatalog(ctx context.Context) error {
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	if c.catalog != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return c.RefreshDevices(ctx)
}

// RefreshDevices rebuilds the catalog: the Tuya directory is authoritative,
// the vendor directory fills gaps (name, model, address) for records the
// Tuya listing misses, and configured IP overrides win over both.
func (c *Client) RefreshDevices(ctx context.Context) error {
	if err := c.ensureLogin(ctx); err != nil {
		return err
	}

	catalog := make(map[string]DeviceRecord)
	records, err := c.tuya.ListAllDevices(ctx)
	if err != nil {
		return err
	}
	for _, record := range records {
		catalog[record.ID] = record
	}

	vendor, err := c.eufy.ListDevices(ctx)
	if err != nil {
		return err
	}
	for _, record := range vendor {
		existing, ok := catalog[record.ID]
		if !ok {
			catalog[record.ID] = record
			continue
		}
		if existing.Name == "" {
			existing.Name = record.Name
		}
		if existing.Model == "" {
			existing.Model = record.Model
		}
		if existing.Address == "" {
			existing.Address = record.Address
		}
		catalog[record.ID] = existing
	}

	for id, addr := range c.cfg.IPOverrides {
		if record, ok := catalog[id]; ok && addr != "" {
			record.Address = addr
			catalog[id] = record
		}
	}

	c.mu.Lock()
	c.catalog = catalog
	c.mu.Unlock()
	return nil
}

// Devices returns the current catalog, fetching it on first use.
func (c *Client) Devices(ctx context.Context) ([]DeviceRecord, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]DeviceRecord, 0, len(c.catalog))
	for _, record := range c.catalog {
		out = append(out, record)
	}
	return out, nil
}

// DeviceStates polls every device. An unreachable device keeps its retained
// last-known status with Reachable unset instead of dropping out.
func (c *Client) DeviceStates(ctx context.Context) ([]DeviceState, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DeviceState, 0, len(devices))
	for _, device := range devices {
		status, err := c.Status(ctx, device.ID)
		if err != nil {
			if errors.Is(err, ErrDeviceUnavailable) {
				c.mu.Lock()
				retained := c.last[device.ID]
				c.mu.Unlock()
				out = append(out, DeviceState{Device: device, Status: retained, Reachable: false})
				continue
			}
			return nil, err
		}
		out = append(out, DeviceState{Device: device, Status: status, Reachable: true})
	}
	return out, nil
}

// Status polls one device and retains the snapshot as its last-known status.
func (c *Client) Status(ctx context.Context, deviceID string) (Status, error) {
	session, err := c.sessionFor(ctx, deviceID)
	if err != nil {
		return Status{}, err
	}
	status, err := session.Status(ctx)
	if err != nil {
		return Status{}, err
	}
	c.mu.Lock()
	c.last[deviceID] = status
	c.mu.Unlock()
	return status, nil
}

func (c *Client) StartClean(ctx context.Context, deviceID string) error {
	return c.send(ctx, deviceID, Command{Type: CommandStart})
}

func (c *Client) Pause(ctx context.Context, deviceID string) error {
	return c.send(ctx, deviceID, Command{Type: CommandPause})
}

func (c *Client) Stop(ctx context.Context, deviceID string) error {
	return c.send(ctx, deviceID, Command{Type: CommandStop})
}

func (c *Client) Dock(ctx context.Context, deviceID string) error {
	return c.send(ctx, deviceID, Command{Type: CommandReturnToBase})
}

func (c *Client) SetFanSpeed(ctx context.Context, deviceID string, speed FanSpeed) error {
	return c.send(ctx, deviceID, Command{Type: CommandSetFanSpeed, FanSpeed: speed})
}

func (c *Client) send(ctx context.Context, deviceID string, cmd Command) error {
	session, err := c.sessionFor(ctx, deviceID)
	if err != nil {
		return err
	}
	return session.Send(ctx, cmd)
}

// LastStatus returns the retained snapshot for a device, if any.
func (c *Client) LastStatus(deviceID string) (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.last[deviceID]
	return status, ok
}

func (c *Client) sessionFor(ctx context.Context, deviceID string) (*DeviceSession, error) {
	if err := c.ensureCatalog(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if session, ok := c.sessions[deviceID]; ok {
		return session, nil
	}
	record, ok := c.catalog[deviceID]
	if !ok {
		return nil, fmt.Errorf("device %s not found", deviceID)
	}
	session := NewDeviceSession(record, c.factory)
	c.sessions[deviceID] = session
	return session, nil
}

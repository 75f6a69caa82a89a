package smartcast

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
)

// Device is a handle to one SmartCast device on the local network. It
// holds the connection identity resolved at discovery time plus the only
// two pieces of mutable shared state: the auth token and the settings-root
// path fragment, both guarded by a reader-writer lock.
//
// A Device is safe for concurrent use. The device itself is a single
// embedded HTTP server, so concurrently issued operations are serialized
// on the device side; no client-side queuing is attempted.
type Device struct {
	name         string
	manufacturer string
	modelName    string
	ip           string
	uuid         string

	// ports are the candidate ports to probe; port is resolved once by
	// probing at construction and never mutated afterward.
	ports []int
	port  int

	mu           sync.RWMutex
	authToken    string
	settingsRoot string

	httpClient *http.Client
	logger     *slog.Logger
}

// NewDevice connects to a device with a known identity, typically one
// produced by discovery. It probes the candidate API ports in order,
// stopping at the first that answers a device-info query, and resolves the
// settings-root path fragment used by all menu-scoped endpoints. Returns
// ErrNoReachablePort if no candidate port answers.
func NewDevice(ctx context.Context, name, manufacturer, modelName, ip, uuid string, opts ...Option) (*Device, error) {
	if ip == "" {
		return nil, ErrEmptyIP
	}

	d := &Device{
		name:         name,
		manufacturer: manufacturer,
		modelName:    modelName,
		ip:           ip,
		uuid:         uuid,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.httpClient == nil {
		d.httpClient = newAPIClient()
	}
	if len(d.ports) == 0 {
		d.ports = apiPorts
	}
	d.installLogging()

	if err := d.probe(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// probe tries each candidate port sequentially with a device-info query,
// keeping the first that succeeds and caching the settings root it
// reports. Sequential on purpose: probing must stop at the first success.
func (d *Device) probe(ctx context.Context) error {
	var lastErr error
	for _, port := range d.ports {
		d.port = port
		env, err := d.sendCommand(ctx, command{kind: cmdGetDeviceInfo})
		if err != nil {
			lastErr = err
			continue
		}
		info, err := env.deviceInfo()
		if err != nil {
			lastErr = err
			continue
		}

		d.mu.Lock()
		d.settingsRoot = info.SettingsRoot
		d.mu.Unlock()

		// Fill in identity fields discovery could not provide.
		if d.name == "" {
			d.name = info.CastName
		}
		if d.modelName == "" {
			d.modelName = info.ModelName
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrNoReachablePort
}

// Name returns the device's friendly name.
func (d *Device) Name() string { return d.name }

// Manufacturer returns the device's manufacturer.
func (d *Device) Manufacturer() string { return d.manufacturer }

// ModelName returns the device's model name.
func (d *Device) ModelName() string { return d.modelName }

// IP returns the device's local IP address.
func (d *Device) IP() string { return d.ip }

// UUID returns the device's unique identifier.
func (d *Device) UUID() string { return d.uuid }

// Port returns the API port resolved at connection time.
func (d *Device) Port() int { return d.port }

// AuthToken returns the client's auth token for the device, or the empty
// string if the client is not paired.
func (d *Device) AuthToken() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.authToken
}

// SettingsRoot returns the device-specific path fragment that prefixes all
// settings-menu endpoints, resolved once at connection time.
func (d *Device) SettingsRoot() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.settingsRoot
}

// setAuthToken stores the token under the write lock. The lock is never
// held across a network call.
func (d *Device) setAuthToken(token string) {
	d.mu.Lock()
	d.authToken = token
	d.mu.Unlock()
}

// SetAuthToken stores a previously obtained auth token and immediately
// verifies it against the device with an authenticated query. On
// rejection the previous token value is restored and the device's error
// is returned. A token is only retained if the device accepts it.
func (d *Device) SetAuthToken(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	previous := d.AuthToken()
	d.setAuthToken(token)

	if _, err := d.CurrentInput(ctx); err != nil {
		d.setAuthToken(previous)
		return err
	}
	return nil
}

// IsPoweredOn queries the device's power state.
func (d *Device) IsPoweredOn(ctx context.Context) (bool, error) {
	env, err := d.sendCommand(ctx, command{kind: cmdGetPowerState})
	if err != nil {
		return false, err
	}
	return env.powerState()
}

// DeviceInfo queries the device's full description: model, serial number,
// firmware version, physical inputs, and settings root.
func (d *Device) DeviceInfo(ctx context.Context) (*DeviceInfo, error) {
	env, err := d.sendCommand(ctx, command{kind: cmdGetDeviceInfo})
	if err != nil {
		return nil, err
	}
	return env.deviceInfo()
}

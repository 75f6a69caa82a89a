package smartcast

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default HTTP request timeout. SmartCast
	// devices answer on the local network, so this is short.
	DefaultTimeout = 3 * time.Second
)

// apiScheme is the URL scheme used to reach the device API. Devices serve
// HTTPS with self-signed certificates; tests override this to talk to a
// plain-HTTP simulator.
var apiScheme = "https"

// apiPorts are the candidate API ports probed at connection time, in
// order. Which port answers depends on device firmware.
var apiPorts = []int{7345, 9000}

// Option configures a Device.
type Option func(*Device)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Device) {
		d.httpClient = client
	}
}

// WithTimeout sets the HTTP request timeout.
// This option can be applied in any order relative to other options.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Device) {
		if d.httpClient == nil {
			d.httpClient = &http.Client{}
		}
		d.httpClient.Timeout = timeout
	}
}

// WithLogger configures a structured logger for the device session.
// When set, every API request and response is logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// WithPorts overrides the candidate API ports probed at connection
// time, for devices whose port is already known.
func WithPorts(ports ...int) Option {
	return func(d *Device) {
		d.ports = ports
	}
}

// newAPIClient builds the default HTTP client for talking to a device.
// Certificate verification is disabled: SmartCast devices present
// self-signed certificates.
func newAPIClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: true},
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// do performs an HTTP request against the device and returns the raw
// response body. Network-level failures are wrapped in TransportError.
func (d *Device) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	url := fmt.Sprintf("%s://%s:%d%s", apiScheme, d.ip, d.Port(), path)

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("smartcast: failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("smartcast: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := d.AuthToken(); token != "" {
		req.Header.Set("AUTH", token)
	}

	d.logRequest(ctx, method, url)

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		d.logError(ctx, method, url, err)
		return nil, &TransportError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "request", Err: err}
	}

	d.logResponse(ctx, method, url, resp.StatusCode, time.Since(start))

	// The device API reports failures inside the JSON envelope, not via
	// HTTP status; the body is decoded regardless of status code.
	return respBody, nil
}

// sendCommand dispatches a command: compute the endpoint from the resolved
// settings root, issue the HTTP call, decode the envelope.
func (d *Device) sendCommand(ctx context.Context, cmd command) (*envelope, error) {
	body, err := d.do(ctx, cmd.method(), cmd.endpoint(d.SettingsRoot()), cmd.body())
	if err != nil {
		return nil, err
	}
	return decodeEnvelope(body)
}

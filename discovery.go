package smartcast

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// ssdpSearchTarget is the DIAL service type SmartCast devices
	// respond to.
	ssdpSearchTarget = "urn:dial-multiscreen-org:device:dial:1"

	// supportedManufacturer filters discovery to the target vendor.
	supportedManufacturer = "Vizio"

	// DefaultDiscoveryTimeout bounds how long discovery waits for SSDP
	// responses.
	DefaultDiscoveryTimeout = 3 * time.Second
)

// ssdpMulticastAddr is the SSDP multicast address (variable to allow testing).
var ssdpMulticastAddr = "239.255.255.250:1900"

// Discovery finds SmartCast devices on the local network.
type Discovery struct {
	// Timeout is the maximum time to wait for discovery responses.
	// Defaults to DefaultDiscoveryTimeout if zero.
	Timeout time.Duration

	// httpClient fetches device description documents.
	httpClient *http.Client
}

// NewDiscovery creates a new Discovery instance.
func NewDiscovery(timeout time.Duration) *Discovery {
	if timeout == 0 {
		timeout = DefaultDiscoveryTimeout
	}
	return &Discovery{
		Timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Discover finds SmartCast devices on the local network using SSDP and
// connects to each. Devices from other manufacturers answering the same
// service type are ignored.
func Discover(ctx context.Context, opts ...Option) ([]*Device, error) {
	return NewDiscovery(0).FindDevices(ctx, opts...)
}

// FromIP connects to a SmartCast device at a known address, skipping
// discovery. The device's identity is resolved from its device-info
// endpoint.
func FromIP(ctx context.Context, ip string, opts ...Option) (*Device, error) {
	return NewDevice(ctx, "", supportedManufacturer, "", ip, "", opts...)
}

// FromUUID discovers the local network and connects to the device with
// the given UUID. Returns ErrDeviceNotFound if no such device answers.
func FromUUID(ctx context.Context, uuid string, opts ...Option) (*Device, error) {
	if uuid == "" {
		return nil, ErrEmptyUUID
	}
	devices, err := Discover(ctx, opts...)
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if strings.EqualFold(d.UUID(), uuid) {
			return d, nil
		}
	}
	return nil, ErrDeviceNotFound
}

// deviceDescription is the subset of the UPnP description document the
// library reads.
type deviceDescription struct {
	Device struct {
		FriendlyName string `xml:"friendlyName"`
		Manufacturer string `xml:"manufacturer"`
		ModelName    string `xml:"modelName"`
		UDN          string `xml:"UDN"`
	} `xml:"device"`
}

// FindDevices performs an SSDP M-SEARCH, follows up each response's
// LOCATION description document, and connects to every device whose
// manufacturer matches the supported vendor.
func (d *Discovery) FindDevices(ctx context.Context, opts ...Option) ([]*Device, error) {
	locations, err := d.ssdpSearch(ctx)
	if err != nil {
		return nil, err
	}

	devices := []*Device{}
	seen := make(map[string]bool)
	for _, location := range locations {
		dev, err := d.describeAndConnect(ctx, location, opts...)
		if err != nil || dev == nil {
			continue // Not a supported device, or it went away
		}
		if seen[dev.IP()] {
			continue
		}
		seen[dev.IP()] = true
		devices = append(devices, dev)
	}
	return devices, nil
}

// ssdpSearch sends an M-SEARCH and collects LOCATION headers from
// responses until the timeout elapses.
func (d *Discovery) ssdpSearch(ctx context.Context) ([]string, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, &TransportError{Op: "discover", Err: err}
	}
	defer conn.Close()

	addr, err := net.ResolveUDPAddr("udp4", ssdpMulticastAddr)
	if err != nil {
		return nil, &TransportError{Op: "discover", Err: err}
	}

	request := fmt.Sprintf(
		"M-SEARCH * HTTP/1.1\r\n"+
			"HOST: %s\r\n"+
			"MAN: \"ssdp:discover\"\r\n"+
			"MX: %d\r\n"+
			"ST: %s\r\n"+
			"\r\n",
		ssdpMulticastAddr,
		int(d.Timeout.Seconds()),
		ssdpSearchTarget,
	)

	if _, err := conn.WriteTo([]byte(request), addr); err != nil {
		return nil, &TransportError{Op: "discover", Err: err}
	}

	locations := []string{}
	deadline := time.Now().Add(d.Timeout)
	_ = conn.SetReadDeadline(deadline)

	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return locations, ctx.Err()
		default:
		}

		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				break // Normal timeout, we're done
			}
			continue
		}

		headers := parseSSDPResponse(string(buf[:n]))
		if location := headers["LOCATION"]; location != "" {
			locations = append(locations, location)
		}
	}
	return locations, nil
}

// describeAndConnect fetches a description document and, when it names a
// supported device, connects to it. Returns nil for other vendors.
func (d *Discovery) describeAndConnect(ctx context.Context, location string, opts ...Option) (*Device, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "discover", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "discover", Err: err}
	}

	var desc deviceDescription
	if err := xml.Unmarshal(body, &desc); err != nil {
		return nil, &DecodeError{What: "device description", Err: err, Body: body}
	}
	if !strings.EqualFold(desc.Device.Manufacturer, supportedManufacturer) {
		return nil, nil
	}

	ip, _ := parseLocationURL(location)
	if ip == "" {
		return nil, nil
	}

	return NewDevice(ctx,
		desc.Device.FriendlyName,
		desc.Device.Manufacturer,
		desc.Device.ModelName,
		ip,
		stripUUIDPrefix(desc.Device.UDN),
		opts...,
	)
}

// parseSSDPResponse parses an SSDP response into a header map.
func parseSSDPResponse(response string) map[string]string {
	headers := make(map[string]string)
	scanner := bufio.NewScanner(strings.NewReader(response))

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		// Skip the HTTP status line
		if strings.HasPrefix(line, "HTTP/") {
			continue
		}

		idx := strings.Index(line, ":")
		if idx == -1 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		headers[key] = value
	}

	return headers
}

// parseLocationURL extracts IP and port from a location URL.
func parseLocationURL(location string) (string, int) {
	// Pattern: http://IP:PORT/...
	re := regexp.MustCompile(`https?://([^:/]+):?(\d*)`)
	matches := re.FindStringSubmatch(location)
	if len(matches) < 2 {
		return "", 0
	}

	ip := matches[1]
	port := 80
	if matches[2] != "" {
		if p, err := strconv.Atoi(matches[2]); err == nil {
			port = p
		}
	}
	return ip, port
}

// stripUUIDPrefix drops the "uuid:" scheme from a UDN value.
// Format: uuid:XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX
func stripUUIDPrefix(udn string) string {
	if idx := strings.LastIndex(udn, ":"); idx != -1 {
		return udn[idx+1:]
	}
	return udn
}

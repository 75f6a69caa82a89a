// Package smartcast provides a Go client library for Vizio SmartCast
// devices (TVs and sound bars) on the local network.
//
// The library speaks the device's HTTP/JSON API directly: no cloud
// account is involved, only the device's LAN address.
//
// # Connecting
//
// Discover devices via SSDP, or connect directly by IP:
//
//	devices, err := smartcast.Discover(ctx)
//	dev, err := smartcast.FromIP(ctx, "192.168.0.14")
//
// Connecting probes the device's candidate API ports and resolves its
// settings root, so a returned *Device is ready to use.
//
// # Pairing
//
// Most operations require an auth token, obtained by pairing once. The
// device displays a PIN; the client exchanges it for a token:
//
//	data, err := dev.BeginPair(ctx, "my-remote", "")
//	// ...read the PIN off the screen...
//	token, err := dev.FinishPair(ctx, data, pin)
//
// Store the token and restore it on later sessions:
//
//	err := dev.SetAuthToken(ctx, token)
//
// SetAuthToken verifies the token against the device and reverts to the
// previous token if the device rejects it.
//
// # Basic Usage
//
// Send remote-control key presses:
//
//	err := dev.KeyPress(ctx, smartcast.ButtonVolumeUp)
//
// Switch inputs:
//
//	err := dev.ChangeInput(ctx, "HDMI-1")
//
// Browse and write settings:
//
//	settings, err := dev.Settings(ctx)
//	for _, s := range settings {
//	    if s.Type() == smartcast.SettingMenu {
//	        children, err := s.Expand(ctx)
//	        // ...
//	    }
//	}
//	err = setting.Write(ctx, 25)
//
// Writes are validated locally before anything is sent: type against the
// current value, range against slider bounds, membership against list
// elements.
//
// # Error Handling
//
// Failures reported by the device arrive as *APIError with a stable
// code; network failures are wrapped in *TransportError:
//
//	err := dev.KeyPress(ctx, smartcast.ButtonPlay)
//	if err != nil {
//	    if smartcast.IsRequiresPairing(err) {
//	        // No valid auth token; pair first
//	    } else if smartcast.IsBlocked(err) {
//	        // Too many failed pair attempts; wait it out
//	    }
//	}
package smartcast

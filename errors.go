package smartcast

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the SmartCast client before any network call.
// All client-side errors are defined here for easy discovery.
var (
	// Discovery / connection errors
	ErrDeviceNotFound  = errors.New("smartcast: no matching device found on network")
	ErrNoReachablePort = errors.New("smartcast: no reachable API port on device")

	// Validation errors
	ErrEmptyIP          = errors.New("smartcast: device IP cannot be empty")
	ErrEmptyUUID        = errors.New("smartcast: device UUID cannot be empty")
	ErrEmptyToken       = errors.New("smartcast: auth token cannot be empty")
	ErrEmptyInputName   = errors.New("smartcast: input name cannot be empty")
	ErrEmptyPIN         = errors.New("smartcast: pairing PIN cannot be empty")
	ErrNoPairingSession = errors.New("smartcast: no pairing session data")

	// Settings write errors
	ErrSettingNotWritable = errors.New("smartcast: setting is read-only or unwritable")
)

// ErrorCode identifies a named rejection code returned by the device API.
// The device reports these as the STATUS.RESULT string of the response
// envelope; matching is case-insensitive.
type ErrorCode string

// Device API rejection codes.
const (
	CodeInvalidParameter      ErrorCode = "invalid_parameter"
	CodeURINotFound           ErrorCode = "uri_not_found"
	CodeMaxChallengesExceeded ErrorCode = "max_challenges_exceeded"
	CodePairingDenied         ErrorCode = "pairing_denied"
	CodeValueOutOfRange       ErrorCode = "value_out_of_range"
	CodeChallengeIncorrect    ErrorCode = "challenge_incorrect"
	CodeBlocked               ErrorCode = "blocked"
	CodeFailure               ErrorCode = "failure"
	CodeAborted               ErrorCode = "aborted"
	CodeBusy                  ErrorCode = "busy"
	CodeRequiresPairing       ErrorCode = "requires_pairing"
	CodeRequiresSystemPin     ErrorCode = "requires_system_pin"
	CodeRequiresNewSystemPin  ErrorCode = "requires_new_system_pin"

	CodeNetWifiNeedsValidSSID   ErrorCode = "net_wifi_needs_valid_ssid"
	CodeNetWifiAlreadyConnected ErrorCode = "net_wifi_already_connected"
	CodeNetWifiMissingPassword  ErrorCode = "net_wifi_missing_password"
	CodeNetWifiNotExisted       ErrorCode = "net_wifi_not_existed"
	CodeNetWifiAuthRejected     ErrorCode = "net_wifi_auth_rejected"
	CodeNetWifiConnectTimeout   ErrorCode = "net_wifi_connect_timeout"
	CodeNetWifiConnectAborted   ErrorCode = "net_wifi_connect_aborted"
	CodeNetWifiConnection       ErrorCode = "net_wifi_connection_error"
	CodeNetIPManualConfig       ErrorCode = "net_ip_manual_config_error"
	CodeNetIPDHCPFailed         ErrorCode = "net_ip_dhcp_failed"
	CodeNetUnknown              ErrorCode = "net_unknown_error"

	// CodeUnknown marks a STATUS.RESULT string the library does not
	// recognize. The raw result and detail are preserved on the APIError
	// for diagnostics.
	CodeUnknown ErrorCode = "unknown"
)

// apiErrorMessages maps rejection codes to human-readable descriptions.
var apiErrorMessages = map[ErrorCode]string{
	CodeInvalidParameter:      "invalid parameter",
	CodeURINotFound:           "endpoint not found on device",
	CodeMaxChallengesExceeded: "too many failed pair attempts",
	CodePairingDenied:         "incorrect pin",
	CodeValueOutOfRange:       "pin out of range",
	CodeChallengeIncorrect:    "incorrect challenge",
	CodeBlocked:               "pairing is already in progress",
	CodeFailure:               "unknown command failure",
	CodeAborted:               "unknown abort",
	CodeBusy:                  "device is busy",
	CodeRequiresPairing:       "device requires pairing",
	CodeRequiresSystemPin:     "device requires system pin",
	CodeRequiresNewSystemPin:  "device requires new system pin",

	CodeNetWifiNeedsValidSSID:   "wifi needs SSID",
	CodeNetWifiAlreadyConnected: "wifi already connected",
	CodeNetWifiMissingPassword:  "wifi needs password",
	CodeNetWifiNotExisted:       "wifi network does not exist",
	CodeNetWifiAuthRejected:     "wifi authentication rejected",
	CodeNetWifiConnectTimeout:   "wifi connection timeout",
	CodeNetWifiConnectAborted:   "wifi connection aborted",
	CodeNetWifiConnection:       "wifi connection error",
	CodeNetIPManualConfig:       "IP config error",
	CodeNetIPDHCPFailed:         "DHCP failure",
	CodeNetUnknown:              "unknown network error",
}

// APIError represents an explicit rejection returned by the device API.
// It is distinct from transport errors (device unreachable) and from
// DecodeError (malformed response).
type APIError struct {
	// Code is the recognized rejection code, or CodeUnknown.
	Code ErrorCode
	// Result is the raw STATUS.RESULT string as sent by the device.
	Result string
	// Detail is the raw STATUS.DETAIL string as sent by the device.
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == CodeUnknown {
		return fmt.Sprintf("smartcast: unrecognized API error (result: %q, detail: %q)", e.Result, e.Detail)
	}
	return fmt.Sprintf("smartcast: API error %s: %s", e.Code, apiErrorMessages[e.Code])
}

// TransportError wraps a network-level failure (connection refused,
// timeout, TLS failure). The device was never reached or never answered.
type TransportError struct {
	Op  string // "probe", "request", "discover"
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("smartcast: transport error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError indicates the device answered but the response could not be
// interpreted: malformed JSON, a missing envelope field, or a value of an
// unexpected type.
type DecodeError struct {
	What string // which field or structure failed to decode
	Err  error
	Body []byte // raw response, truncated in the message
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("smartcast: failed to decode %s: %v (body: %s)", e.What, e.Err, truncatePreview(e.Body))
	}
	return fmt.Sprintf("smartcast: failed to decode %s (body: %s)", e.What, truncatePreview(e.Body))
}

// Unwrap returns the underlying decode error, if any.
func (e *DecodeError) Unwrap() error { return e.Err }

// TypeMismatchError is returned by SubSetting.Write when the new value's
// JSON type differs from the setting's current value type. Both values are
// carried for diagnostics. No network call was made.
type TypeMismatchError struct {
	Expected string // JSON type of the current value
	Got      string // JSON type of the attempted value
	Current  any
	Value    any
}

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("smartcast: setting value type mismatch: have %s (%v), got %s (%v)",
		e.Expected, e.Current, e.Got, e.Value)
}

// SliderRangeError is returned by SubSetting.Write when a slider value
// falls outside the declared [Min, Max] bounds. No network call was made.
type SliderRangeError struct {
	Min int32
	Max int32
	// Value is the attempted value as a float64 intermediate; it may
	// exceed the int32 range entirely.
	Value float64
}

// Error implements the error interface.
func (e *SliderRangeError) Error() string {
	return fmt.Sprintf("smartcast: slider value %v out of bounds [%d, %d]", e.Value, e.Min, e.Max)
}

// InvalidElementError is returned by SubSetting.Write when a list value is
// not one of the setting's declared elements. No write call was made.
type InvalidElementError struct {
	Value    string
	Elements []string
}

// Error implements the error interface.
func (e *InvalidElementError) Error() string {
	return fmt.Sprintf("smartcast: %q is not a valid element (options: %v)", e.Value, e.Elements)
}

// IsAPIError returns the rejection code if the error is a device API
// rejection.
func IsAPIError(err error) (ErrorCode, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	return "", false
}

// IsTransport returns true if the error is a network-level failure,
// meaning the device was unreachable or did not answer.
func IsTransport(err error) bool {
	var tErr *TransportError
	return errors.As(err, &tErr)
}

// IsDecode returns true if the error is a response decoding failure.
func IsDecode(err error) bool {
	var dErr *DecodeError
	return errors.As(err, &dErr)
}

// IsRequiresPairing returns true if the device rejected the call because
// the client is not paired. Callers typically branch on this to start the
// pairing flow.
func IsRequiresPairing(err error) bool {
	code, ok := IsAPIError(err)
	return ok && code == CodeRequiresPairing
}

// IsBlocked returns true if the device rejected the call because a pairing
// session is already in progress.
func IsBlocked(err error) bool {
	code, ok := IsAPIError(err)
	return ok && code == CodeBlocked
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

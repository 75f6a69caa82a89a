package smartcast

import (
	"context"
)

// Controller defines the interface for SmartCast device operations.
// Device implements this interface, enabling mocking for tests.
type Controller interface {
	// ============================================================================
	// Identity
	// ============================================================================

	Name() string
	Manufacturer() string
	ModelName() string
	IP() string
	UUID() string
	Port() int

	// ============================================================================
	// Session
	// ============================================================================

	AuthToken() string
	SetAuthToken(ctx context.Context, token string) error
	SettingsRoot() string
	IsPoweredOn(ctx context.Context) (bool, error)
	DeviceInfo(ctx context.Context) (*DeviceInfo, error)

	// ============================================================================
	// Pairing
	// ============================================================================

	BeginPair(ctx context.Context, clientName, clientID string) (*PairingData, error)
	FinishPair(ctx context.Context, data *PairingData, pin string) (string, error)
	CancelPair(ctx context.Context, data *PairingData) error

	// ============================================================================
	// Remote Control
	// ============================================================================

	KeyPress(ctx context.Context, button Button) error
	KeyDown(ctx context.Context, button Button) error
	KeyUp(ctx context.Context, button Button) error

	// ============================================================================
	// Inputs
	// ============================================================================

	CurrentInput(ctx context.Context) (*Input, error)
	ListInputs(ctx context.Context) ([]Input, error)
	ChangeInput(ctx context.Context, name string) error

	// ============================================================================
	// Settings
	// ============================================================================

	Settings(ctx context.Context) ([]SubSetting, error)

	// ============================================================================
	// Apps
	// ============================================================================

	CurrentApp(ctx context.Context) (*AppPayload, error)
	LaunchApp(ctx context.Context, payload *AppPayload) error
}

// Compile-time check that Device implements Controller.
var _ Controller = (*Device)(nil)

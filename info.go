package smartcast

import (
	"encoding/json"
)

// DeviceInfo describes a device as reported by its device-info endpoint.
type DeviceInfo struct {
	// CastName is the device name as known by cast protocols.
	CastName string
	// Inputs are the names of the physical inputs on the device.
	Inputs []string
	// ModelName is the device's model name.
	ModelName string
	// SerialNumber is the device's serial number.
	SerialNumber string
	// FirmwareVersion is the device's firmware version.
	FirmwareVersion string
	// SettingsRoot is the path fragment prefixing all settings endpoints.
	SettingsRoot string
	// Chipset is the device's chipset revision.
	Chipset uint32
}

// deviceInfoWire matches the nested wire shape; system details arrive
// under a SYSTEM_INFO object and are flattened into DeviceInfo.
type deviceInfoWire struct {
	CastName     string   `json:"CAST_NAME"`
	Inputs       []string `json:"INPUTS"`
	ModelName    string   `json:"MODEL_NAME"`
	SettingsRoot string   `json:"SETTINGS_ROOT"`
	SystemInfo   struct {
		Chipset      uint32 `json:"CHIPSET"`
		SerialNumber string `json:"SERIAL_NUMBER"`
		Version      string `json:"VERSION"`
	} `json:"SYSTEM_INFO"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *DeviceInfo) UnmarshalJSON(data []byte) error {
	var wire deviceInfoWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*i = DeviceInfo{
		CastName:        wire.CastName,
		Inputs:          wire.Inputs,
		ModelName:       wire.ModelName,
		SettingsRoot:    wire.SettingsRoot,
		Chipset:         wire.SystemInfo.Chipset,
		SerialNumber:    wire.SystemInfo.SerialNumber,
		FirmwareVersion: wire.SystemInfo.Version,
	}
	return nil
}

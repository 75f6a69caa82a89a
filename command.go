package smartcast

import (
	"net/http"
)

// endpointBase selects which menu tree a settings command targets. The
// dynamic tree carries live values and hashvals; the static tree carries
// schema data such as slider bounds.
type endpointBase int

const (
	baseDynamic endpointBase = iota
	baseStatic
)

// path returns the URL prefix for the base.
func (b endpointBase) path() string {
	if b == baseStatic {
		return "/menu_native/static"
	}
	return "/menu_native/dynamic"
}

// commandKind enumerates every operation the device API supports.
type commandKind int

const (
	cmdStartPairing commandKind = iota
	cmdFinishPairing
	cmdCancelPairing
	cmdGetPowerState
	cmdGetDeviceInfo
	cmdRemoteButton
	cmdGetCurrentInput
	cmdGetInputList
	cmdChangeInput
	cmdGetCurrentApp
	cmdLaunchApp
	cmdReadSettings
	cmdWriteSettings
)

// command is a stateless value describing one API operation: its endpoint,
// HTTP method, and JSON body. Commands are built per call and consumed by
// Device.sendCommand.
type command struct {
	kind commandKind

	// Pairing fields
	clientName   string
	clientID     string
	pairingToken uint32
	challenge    uint32
	pin          string

	// Remote button events
	events []keyEvent

	// Input change / settings write fields
	name    string
	hashval uint32
	value   any

	// Settings read fields
	base endpointBase
	path string

	// App launch payload
	payload *AppPayload
}

// endpoint computes the target path. Menu-scoped paths are templated with
// the settings root resolved at connection time; pairing, power, key and
// app paths are fixed.
func (c command) endpoint(settingsRoot string) string {
	switch c.kind {
	case cmdStartPairing:
		return "/pairing/start"
	case cmdFinishPairing:
		return "/pairing/pair"
	case cmdCancelPairing:
		return "/pairing/cancel"
	case cmdGetPowerState:
		return "/state/device/power_mode"
	case cmdGetDeviceInfo:
		return "/state/device/deviceinfo"
	case cmdRemoteButton:
		return "/key_command/"
	case cmdGetCurrentInput, cmdChangeInput:
		return baseDynamic.path() + "/" + settingsRoot + "/devices/current_input"
	case cmdGetInputList:
		return baseDynamic.path() + "/" + settingsRoot + "/devices/name_input"
	case cmdGetCurrentApp, cmdLaunchApp:
		if c.kind == cmdGetCurrentApp {
			return "/app/current"
		}
		return "/app/launch"
	case cmdReadSettings:
		return c.base.path() + c.path
	case cmdWriteSettings:
		return baseDynamic.path() + c.path
	}
	return ""
}

// method returns the HTTP verb: PUT for all mutating, pairing, remote-key
// and app-launch operations, GET for all read queries.
func (c command) method() string {
	switch c.kind {
	case cmdStartPairing, cmdFinishPairing, cmdCancelPairing,
		cmdRemoteButton, cmdChangeInput, cmdLaunchApp, cmdWriteSettings:
		return http.MethodPut
	default:
		return http.MethodGet
	}
}

// Wire-format request bodies.
type startPairingBody struct {
	DeviceName string `json:"DEVICE_NAME"`
	DeviceID   string `json:"DEVICE_ID"`
}

type finishPairingBody struct {
	DeviceID        string `json:"DEVICE_ID"`
	ChallengeType   uint32 `json:"CHALLENGE_TYPE"`
	ResponseValue   string `json:"RESPONSE_VALUE"`
	PairingReqToken uint32 `json:"PAIRING_REQ_TOKEN"`
}

type keyListBody struct {
	KeyList []keyEvent `json:"KEYLIST"`
}

type modifyBody struct {
	Request string `json:"REQUEST"`
	Value   any    `json:"VALUE"`
	Hashval uint32 `json:"HASHVAL"`
}

type launchAppBody struct {
	Value *AppPayload `json:"VALUE"`
}

// body returns the JSON request body for the command, or nil for GET
// commands which serialize no body.
func (c command) body() any {
	switch c.kind {
	case cmdStartPairing:
		return startPairingBody{DeviceName: c.clientName, DeviceID: c.clientID}
	case cmdFinishPairing:
		return finishPairingBody{
			DeviceID:        c.clientID,
			ChallengeType:   c.challenge,
			ResponseValue:   c.pin,
			PairingReqToken: c.pairingToken,
		}
	case cmdCancelPairing:
		// The cancel handshake sends a fixed placeholder pin.
		return finishPairingBody{
			DeviceID:        c.clientID,
			ChallengeType:   c.challenge,
			ResponseValue:   "1111",
			PairingReqToken: c.pairingToken,
		}
	case cmdRemoteButton:
		return keyListBody{KeyList: c.events}
	case cmdChangeInput:
		return modifyBody{Request: "MODIFY", Value: c.name, Hashval: c.hashval}
	case cmdWriteSettings:
		return modifyBody{Request: "MODIFY", Value: c.value, Hashval: c.hashval}
	case cmdLaunchApp:
		return launchAppBody{Value: c.payload}
	default:
		return nil
	}
}

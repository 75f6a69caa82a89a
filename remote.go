package smartcast

import (
	"context"
	"errors"
)

// Button identifies a virtual remote control button.
type Button int

// Virtual remote buttons.
const (
	ButtonSeekFwd Button = iota
	ButtonSeekBack
	ButtonPause
	ButtonPlay
	ButtonDown
	ButtonLeft
	ButtonUp
	ButtonRight
	ButtonOK
	ButtonBack
	ButtonSmartCast
	ButtonCCToggle
	ButtonInfo
	ButtonMenu
	ButtonHome
	ButtonVolumeDown
	ButtonVolumeUp
	ButtonMuteOff
	ButtonMuteOn
	ButtonMuteToggle
	ButtonPicMode
	ButtonPicSize
	ButtonInputNext
	ButtonChannelDown
	ButtonChannelUp
	ButtonChannelPrev
	ButtonExit
	ButtonPowerOff
	ButtonPowerOn
	ButtonPowerToggle
)

// Key event actions.
const (
	actionKeyDown  = "KEYDOWN"
	actionKeyUp    = "KEYUP"
	actionKeyPress = "KEYPRESS"
)

// codeSet returns the button's code table group.
func (b Button) codeSet() uint8 {
	switch b {
	case ButtonSeekFwd, ButtonSeekBack, ButtonPause, ButtonPlay:
		return 2
	case ButtonDown, ButtonLeft, ButtonUp, ButtonRight, ButtonOK:
		return 3
	case ButtonBack, ButtonSmartCast, ButtonCCToggle, ButtonInfo, ButtonMenu, ButtonHome:
		return 4
	case ButtonVolumeDown, ButtonVolumeUp, ButtonMuteOff, ButtonMuteOn, ButtonMuteToggle:
		return 5
	case ButtonPicMode, ButtonPicSize:
		return 6
	case ButtonInputNext:
		return 7
	case ButtonChannelDown, ButtonChannelUp, ButtonChannelPrev:
		return 8
	case ButtonExit:
		return 9
	case ButtonPowerOff, ButtonPowerOn, ButtonPowerToggle:
		return 11
	}
	return 0
}

// code returns the button's primary code within its code set.
func (b Button) code() uint8 {
	switch b {
	case ButtonSeekFwd:
		return 0
	case ButtonSeekBack:
		return 1
	case ButtonPause:
		return 2
	case ButtonPlay:
		return 3
	case ButtonDown:
		return 0
	case ButtonLeft:
		return 1
	case ButtonUp:
		return 8
	case ButtonRight:
		return 7
	case ButtonOK:
		return 2
	case ButtonBack:
		return 0
	case ButtonSmartCast:
		return 3
	case ButtonCCToggle:
		return 4
	case ButtonInfo:
		return 6
	case ButtonMenu:
		return 8
	case ButtonHome:
		return 15
	case ButtonVolumeDown:
		return 0
	case ButtonVolumeUp:
		return 1
	case ButtonMuteOff:
		return 2
	case ButtonMuteOn:
		return 3
	case ButtonMuteToggle:
		return 4
	case ButtonPicMode:
		return 0
	case ButtonPicSize:
		return 2
	case ButtonInputNext:
		return 1
	case ButtonChannelDown:
		return 0
	case ButtonChannelUp:
		return 1
	case ButtonChannelPrev:
		return 2
	case ButtonExit:
		return 0
	case ButtonPowerOff:
		return 0
	case ButtonPowerOn:
		return 1
	case ButtonPowerToggle:
		return 2
	}
	return 0
}

// altCode returns the button's alternate code, for D-pad buttons whose
// codes differ across firmware revisions.
func (b Button) altCode() (uint8, bool) {
	switch b {
	case ButtonUp:
		return 3, true
	case ButtonRight:
		return 5, true
	case ButtonDown:
		return 4, true
	case ButtonLeft:
		return 6, true
	}
	return 0, false
}

// keyEvent is the wire form of one entry in a KEYLIST body.
type keyEvent struct {
	CodeSet uint8  `json:"CODESET"`
	Code    uint8  `json:"CODE"`
	Action  string `json:"ACTION"`
}

// KeyPress clicks a button once.
func (d *Device) KeyPress(ctx context.Context, button Button) error {
	return d.sendKey(ctx, actionKeyPress, button)
}

// KeyDown holds a button down. Release it with KeyUp.
func (d *Device) KeyDown(ctx context.Context, button Button) error {
	return d.sendKey(ctx, actionKeyDown, button)
}

// KeyUp releases a button held with KeyDown.
func (d *Device) KeyUp(ctx context.Context, button Button) error {
	return d.sendKey(ctx, actionKeyUp, button)
}

// sendKey emits a remote button event. If the device rejects a D-pad
// button's primary code with an API-level error, the event is retried once
// with the alternate code table for that button; some firmware revisions
// use different D-pad codes. All other errors propagate untouched.
func (d *Device) sendKey(ctx context.Context, action string, button Button) error {
	err := d.sendKeyEvents(ctx, []keyEvent{{
		CodeSet: button.codeSet(),
		Code:    button.code(),
		Action:  action,
	}})
	if err == nil {
		return nil
	}

	alt, ok := button.altCode()
	if !ok {
		return err
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	return d.sendKeyEvents(ctx, []keyEvent{{
		CodeSet: button.codeSet(),
		Code:    alt,
		Action:  action,
	}})
}

// sendKeyEvents issues a raw KEYLIST command.
func (d *Device) sendKeyEvents(ctx context.Context, events []keyEvent) error {
	_, err := d.sendCommand(ctx, command{kind: cmdRemoteButton, events: events})
	return err
}

package smartcast

import (
	"context"
	"encoding/json"
	"strings"
)

// SettingType classifies a settings node.
type SettingType string

// Known setting types. Anything else is preserved as the raw wire tag.
const (
	// SettingMenu is a node containing more SubSettings.
	SettingMenu SettingType = "Menu"
	// SettingValue is a node holding a mutable scalar value.
	SettingValue SettingType = "Value"
	// SettingSlider is a node with a value on a bounded scale; see SliderInfo.
	SettingSlider SettingType = "Slider"
	// SettingList is a node whose value is one of a list of elements.
	SettingList SettingType = "List"
	// SettingXList is a List variant; same element semantics.
	SettingXList SettingType = "XList"
)

// settingTypeTags maps wire-format type tags to setting types. The
// vendor's schema reports sliders as plain values on some firmware; see
// the reclassification in Expand.
var settingTypeTags = map[string]SettingType{
	"T_VALUE_ABS_V1": SettingSlider,
	"T_LIST_V1":      SettingList,
	"T_VALUE_V1":     SettingValue,
	"T_MENU_V1":      SettingMenu,
	"T_LIST_X_V1":    SettingXList,
}

// UnmarshalJSON implements json.Unmarshaler. Unrecognized tags are kept
// verbatim so callers can inspect them.
func (t *SettingType) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if mapped, ok := settingTypeTags[tag]; ok {
		*t = mapped
	} else {
		*t = SettingType(tag)
	}
	return nil
}

// known reports whether the type is one of the recognized kinds.
func (t SettingType) known() bool {
	switch t {
	case SettingMenu, SettingValue, SettingSlider, SettingList, SettingXList:
		return true
	}
	return false
}

// SliderInfo describes the bounds of a Slider setting.
type SliderInfo struct {
	// DecMarker is the label at the low end of the slider.
	DecMarker string `json:"DECMARKER"`
	// IncMarker is the label at the high end of the slider.
	IncMarker string `json:"INCMARKER"`
	// Increment is the amount the value changes per step.
	Increment int32 `json:"INCREMENT"`
	// Max is the slider's maximum value, inclusive.
	Max int32 `json:"MAXIMUM"`
	// Min is the slider's minimum value, inclusive.
	Min int32 `json:"MINIMUM"`
	// Center is the value at the center of the slider.
	Center int32 `json:"CENTER"`
}

// SubSetting is one node of a device's settings tree.
//
// Every device lays its settings out differently, so the tree is traversed
// at runtime: a Menu node fetches and classifies its children on demand
// with Expand, and leaf nodes resolve slider bounds or list elements on
// demand. Nodes are created fresh from the device's current listing on
// each Expand call; only slider bounds, which are fixed for a given node,
// are cached on the node once resolved.
type SubSetting struct {
	// endpoint is the node's path accumulated top-down from the
	// settings root, e.g. "/tv_settings/picture/backlight".
	endpoint    string
	hashval     uint32
	hidden      bool
	name        string
	readOnly    bool
	settingType SettingType
	value       any

	// slider holds the node's bounds once resolved, either by the
	// reclassification probe in Expand or on first use.
	slider *SliderInfo

	device *Device
}

// flexBool accepts the wire format's "TRUE"/"FALSE" strings as well as
// plain JSON booleans.
type flexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v bool
	if err := json.Unmarshal(data, &v); err == nil {
		*b = flexBool(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*b = flexBool(strings.EqualFold(s, "true"))
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for the wire listing shape.
// The parent endpoint path is stitched on and the owning device attached
// immediately after deserialization, before the node is usable.
func (s *SubSetting) UnmarshalJSON(data []byte) error {
	var wire struct {
		CName    string      `json:"CNAME"`
		Hashval  uint32      `json:"HASHVAL"`
		Hidden   flexBool    `json:"HIDDEN"`
		Name     string      `json:"NAME"`
		ReadOnly flexBool    `json:"READONLY"`
		Type     SettingType `json:"TYPE"`
		Value    any         `json:"VALUE"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*s = SubSetting{
		endpoint:    wire.CName,
		hashval:     wire.Hashval,
		hidden:      bool(wire.Hidden),
		name:        wire.Name,
		readOnly:    bool(wire.ReadOnly),
		settingType: wire.Type,
		value:       wire.Value,
	}
	return nil
}

// Name returns the setting's display name.
func (s *SubSetting) Name() string { return s.name }

// Hidden reports whether the setting should be displayed to users.
func (s *SubSetting) Hidden() bool { return s.hidden }

// ReadOnly reports whether the device declares the setting read-only.
func (s *SubSetting) ReadOnly() bool { return s.readOnly }

// Type returns the setting's classification.
func (s *SubSetting) Type() SettingType { return s.settingType }

// Path returns the node's endpoint path relative to the menu tree root.
func (s *SubSetting) Path() string { return s.endpoint }

// Value returns the setting's current value as decoded JSON: bool,
// float64, string, or nil when the node carries no value.
func (s *SubSetting) Value() any { return s.value }

// ValueBool returns the current value if it is a boolean.
func (s *SubSetting) ValueBool() (bool, bool) {
	v, ok := s.value.(bool)
	return v, ok
}

// ValueString returns the current value if it is a string.
func (s *SubSetting) ValueString() (string, bool) {
	v, ok := s.value.(string)
	return v, ok
}

// ValueInt returns the current value if it is an integral number.
func (s *SubSetting) ValueInt() (int, bool) {
	v, ok := s.value.(float64)
	if !ok || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}

// ValueFloat returns the current value if it is a number.
func (s *SubSetting) ValueFloat() (float64, bool) {
	v, ok := s.value.(float64)
	return v, ok
}

// adopt stitches the parent's accumulated path onto the node and attaches
// the owning device handle.
func (s *SubSetting) adopt(parent *SubSetting) {
	s.device = parent.device
	s.endpoint = parent.endpoint + "/" + s.endpoint
}

// Settings returns the top-level nodes of the device's settings tree,
// read live from the menu root resolved at connection time.
func (d *Device) Settings(ctx context.Context) ([]SubSetting, error) {
	root := SubSetting{
		endpoint:    "/" + d.SettingsRoot(),
		name:        "",
		settingType: SettingMenu,
		device:      d,
	}
	return root.Expand(ctx)
}

// Expand returns a Menu node's children, read live from the device.
// Children reported as plain Value are probed for slider bounds and
// reclassified as Slider when the probe succeeds; the vendor's schema
// conflates the two on some firmware. The probe costs one extra round
// trip per ambiguous child.
//
// Calling Expand on a non-Menu node returns a single-element slice
// containing the node itself.
func (s *SubSetting) Expand(ctx context.Context) ([]SubSetting, error) {
	if s.settingType != SettingMenu {
		return []SubSetting{*s}, nil
	}

	env, err := s.readSettings(ctx, baseDynamic)
	if err != nil {
		return nil, err
	}
	children, err := env.settings()
	if err != nil {
		return nil, err
	}

	for i := range children {
		children[i].adopt(s)
		if children[i].settingType != SettingValue {
			continue
		}
		info, err := children[i].fetchSliderInfo(ctx)
		switch {
		case err == nil:
			children[i].settingType = SettingSlider
			children[i].slider = info
		case IsTransport(err):
			// A device that dropped offline mid-expand must not leave
			// real sliders classified as plain values.
			return nil, err
		}
	}
	return children, nil
}

// SliderInfo resolves a Slider node's bounds. Bounds captured by Expand's
// reclassification probe are reused; otherwise they are fetched once and
// cached on the node. Returns nil for non-Slider nodes.
func (s *SubSetting) SliderInfo(ctx context.Context) (*SliderInfo, error) {
	if s.settingType != SettingSlider {
		return nil, nil
	}
	return s.sliderBounds(ctx)
}

// sliderBounds returns the node's cached bounds, fetching and caching
// them on first use.
func (s *SubSetting) sliderBounds(ctx context.Context) (*SliderInfo, error) {
	if s.slider != nil {
		return s.slider, nil
	}
	info, err := s.fetchSliderInfo(ctx)
	if err != nil {
		return nil, err
	}
	s.slider = info
	return info, nil
}

// fetchSliderInfo reads slider bounds regardless of the node's declared
// type; Expand uses it to disambiguate sliders reported as plain values.
func (s *SubSetting) fetchSliderInfo(ctx context.Context) (*SliderInfo, error) {
	if env, err := s.readSettings(ctx, baseStatic); err == nil {
		if info, err := env.sliderInfo(); err == nil {
			return info, nil
		}
	}
	env, err := s.readSettings(ctx, baseDynamic)
	if err != nil {
		return nil, err
	}
	return env.sliderInfo()
}

// Elements resolves a List or XList node's elements, trying the dynamic
// endpoint first (the server populates ELEMENTS there) and falling back
// to the static endpoint. A node that publishes no elements on either
// endpoint resolves to an empty set; only transport failures are
// reported as errors. Returns nil for other node types.
func (s *SubSetting) Elements(ctx context.Context) ([]string, error) {
	if s.settingType != SettingList && s.settingType != SettingXList {
		return nil, nil
	}

	elems, err := s.elementsFrom(ctx, baseDynamic)
	if err == nil || IsTransport(err) {
		return elems, err
	}
	elems, err = s.elementsFrom(ctx, baseStatic)
	if err == nil || IsTransport(err) {
		return elems, err
	}
	return nil, nil
}

// elementsFrom reads the node from one endpoint base and extracts its
// element list.
func (s *SubSetting) elementsFrom(ctx context.Context, base endpointBase) ([]string, error) {
	env, err := s.readSettings(ctx, base)
	if err != nil {
		return nil, err
	}
	return env.elements()
}

// Write validates the new value locally and sends it to the device.
//
// Validation order:
//  1. Menu nodes, read-only nodes, nodes without a current value, and
//     nodes of unrecognized type are rejected with ErrSettingNotWritable.
//  2. The new value's JSON type must match the current value's, else a
//     TypeMismatchError carrying both values is returned.
//  3. Slider values must lie within the declared [Min, Max], inclusive;
//     List and XList values must be one of Elements.
//
// Numeric writes funnel through a canonical signed-32-bit representation
// (with a float64 intermediate for bounds checks) so that wider integer
// or floating types cannot silently truncate past validation. Validation
// failures are raised before any write reaches the device; a rejection
// from the device itself, such as a stale hashval, propagates as an
// APIError without retry.
func (s *SubSetting) Write(ctx context.Context, value any) error {
	if s.settingType == SettingMenu || !s.settingType.known() || s.readOnly || s.value == nil {
		return ErrSettingNotWritable
	}

	wireValue, err := s.checkedValue(ctx, value)
	if err != nil {
		return err
	}

	_, err = s.device.sendCommand(ctx, command{
		kind:    cmdWriteSettings,
		path:    s.endpoint,
		hashval: s.hashval,
		value:   wireValue,
	})
	return err
}

// checkedValue type-checks value against the node's current value and
// applies the kind-specific range or membership check. It returns the
// canonical wire representation to send.
func (s *SubSetting) checkedValue(ctx context.Context, value any) (any, error) {
	currentType := jsonTypeName(s.value)
	newType := goValueTypeName(value)

	if currentType != newType {
		return nil, &TypeMismatchError{Expected: currentType, Got: newType, Current: s.value, Value: value}
	}

	switch s.settingType {
	case SettingSlider:
		f, ok := toFloat64(value)
		if !ok {
			// Non-integral floats would truncate past the bounds check.
			return nil, &TypeMismatchError{Expected: currentType, Got: newType, Current: s.value, Value: value}
		}
		info, err := s.sliderBounds(ctx)
		if err != nil {
			return nil, err
		}
		if f < float64(info.Min) || f > float64(info.Max) {
			return nil, &SliderRangeError{Min: info.Min, Max: info.Max, Value: f}
		}
		return int32(f), nil

	case SettingList, SettingXList:
		elem, ok := value.(string)
		if !ok {
			return nil, &TypeMismatchError{Expected: currentType, Got: newType, Current: s.value, Value: value}
		}
		elements, err := s.Elements(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range elements {
			if e == elem {
				return elem, nil
			}
		}
		return nil, &InvalidElementError{Value: elem, Elements: elements}

	default:
		if newType == "number" {
			canonical, ok := toInt32(value)
			if !ok {
				return nil, &TypeMismatchError{Expected: currentType, Got: newType, Current: s.value, Value: value}
			}
			return canonical, nil
		}
		return value, nil
	}
}

// readSettings issues a settings read for this node's path against the
// chosen endpoint base.
func (s *SubSetting) readSettings(ctx context.Context, base endpointBase) (*envelope, error) {
	return s.device.sendCommand(ctx, command{
		kind: cmdReadSettings,
		base: base,
		path: s.endpoint,
	})
}

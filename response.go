package smartcast

import (
	"bytes"
	"encoding/json"
	"strings"
)

// apiStatus is the STATUS object present on every response envelope.
type apiStatus struct {
	Result string `json:"RESULT"`
	Detail string `json:"DETAIL"`
}

// envelope wraps a decoded device response. Every response carries a
// STATUS object plus either an ITEM object or an ITEMS array. Envelopes
// are ephemeral: constructed per round trip and consumed immediately into
// a typed result.
type envelope struct {
	Status apiStatus       `json:"STATUS"`
	Item   json.RawMessage `json:"ITEM"`
	Items  json.RawMessage `json:"ITEMS"`

	raw []byte
}

// decodeEnvelope parses a raw response body, classifies STATUS.RESULT and
// returns the envelope on success. A malformed body yields a DecodeError;
// a non-success result yields an APIError with the matching code, or
// CodeUnknown carrying the raw result and detail verbatim.
func decodeEnvelope(body []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{What: "response envelope", Err: err, Body: body}
	}
	env.raw = body

	result := strings.ToLower(env.Status.Result)
	if result == "success" {
		return &env, nil
	}

	code := ErrorCode(result)
	if _, known := apiErrorMessages[code]; !known {
		code = CodeUnknown
	}
	return nil, &APIError{Code: code, Result: env.Status.Result, Detail: env.Status.Detail}
}

// isNull reports whether a raw JSON value is absent or literal null.
func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// firstItem returns the sole ITEM, or the first element of ITEMS when ITEM
// is absent, optionally projected through the named field. Fails with a
// DecodeError if neither is present or the key is missing.
func (e *envelope) firstItem(key string) (json.RawMessage, error) {
	item := e.Item
	if isNull(item) {
		var items []json.RawMessage
		if err := json.Unmarshal(e.Items, &items); err != nil || len(items) == 0 {
			return nil, &DecodeError{What: "ITEM or ITEMS", Err: err, Body: e.raw}
		}
		item = items[0]
	}

	if key == "" {
		return item, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return nil, &DecodeError{What: "item object", Err: err, Body: e.raw}
	}
	for name, raw := range fields {
		if strings.EqualFold(name, key) && !isNull(raw) {
			return raw, nil
		}
	}
	return nil, &DecodeError{What: "item field " + key, Body: e.raw}
}

// decodeItems deserializes the full ITEMS array into dst.
func (e *envelope) decodeItems(dst any) error {
	if isNull(e.Items) {
		return &DecodeError{What: "ITEMS", Body: e.raw}
	}
	if err := json.Unmarshal(e.Items, dst); err != nil {
		return &DecodeError{What: "ITEMS", Err: err, Body: e.raw}
	}
	return nil
}

// decodeFirstItem deserializes firstItem(key) into dst.
func (e *envelope) decodeFirstItem(key string, dst any) error {
	raw, err := e.firstItem(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		what := "item"
		if key != "" {
			what = "item field " + key
		}
		return &DecodeError{What: what, Err: err, Body: e.raw}
	}
	return nil
}

// pairingData extracts the pairing challenge tuple from a pairing/start
// response.
func (e *envelope) pairingData() (token, challenge uint32, err error) {
	var item struct {
		PairingReqToken uint32 `json:"PAIRING_REQ_TOKEN"`
		ChallengeType   uint32 `json:"CHALLENGE_TYPE"`
	}
	if err := e.decodeFirstItem("", &item); err != nil {
		return 0, 0, err
	}
	return item.PairingReqToken, item.ChallengeType, nil
}

// authToken extracts the auth token from a pairing/pair response.
func (e *envelope) authToken() (string, error) {
	var token string
	if err := e.decodeFirstItem("AUTH_TOKEN", &token); err != nil {
		return "", err
	}
	return token, nil
}

// powerState extracts the power flag from a power_mode response.
func (e *envelope) powerState() (bool, error) {
	var value int
	if err := e.decodeFirstItem("VALUE", &value); err != nil {
		return false, err
	}
	return value == 1, nil
}

// deviceInfo extracts the device description from a deviceinfo response.
func (e *envelope) deviceInfo() (*DeviceInfo, error) {
	var info DeviceInfo
	if err := e.decodeFirstItem("VALUE", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// currentInput extracts the active input from a current_input response.
func (e *envelope) currentInput() (*Input, error) {
	var input Input
	if err := e.decodeFirstItem("", &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// inputList extracts all named inputs from a name_input response.
func (e *envelope) inputList() ([]Input, error) {
	var inputs []Input
	if err := e.decodeItems(&inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

// settings extracts child setting nodes from a menu read.
func (e *envelope) settings() ([]SubSetting, error) {
	var subs []SubSetting
	if err := e.decodeItems(&subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// sliderInfo extracts slider bounds from a settings read. Both bounds
// must be present: their absence is what distinguishes a plain value
// node from a slider during classification.
func (e *envelope) sliderInfo() (*SliderInfo, error) {
	var wire struct {
		DecMarker string `json:"DECMARKER"`
		IncMarker string `json:"INCMARKER"`
		Increment int32  `json:"INCREMENT"`
		Max       *int32 `json:"MAXIMUM"`
		Min       *int32 `json:"MINIMUM"`
		Center    int32  `json:"CENTER"`
	}
	if err := e.decodeFirstItem("", &wire); err != nil {
		return nil, err
	}
	if wire.Max == nil || wire.Min == nil {
		return nil, &DecodeError{What: "slider bounds", Body: e.raw}
	}
	return &SliderInfo{
		DecMarker: wire.DecMarker,
		IncMarker: wire.IncMarker,
		Increment: wire.Increment,
		Max:       *wire.Max,
		Min:       *wire.Min,
		Center:    wire.Center,
	}, nil
}

// elements extracts the list options from a settings read.
func (e *envelope) elements() ([]string, error) {
	var elems []string
	if err := e.decodeFirstItem("ELEMENTS", &elems); err != nil {
		return nil, err
	}
	return elems, nil
}

// currentApp extracts the running app payload from an app/current response.
func (e *envelope) currentApp() (*AppPayload, error) {
	var payload AppPayload
	if err := e.decodeFirstItem("VALUE", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

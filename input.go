package smartcast

import (
	"context"
	"encoding/json"
)

// Input is one input on the device, physical or virtual.
type Input struct {
	name         string
	friendlyName string
	hashval      uint32
}

// Name returns the input's name, used when changing inputs.
func (i Input) Name() string { return i.name }

// FriendlyName returns the input's user-facing name.
func (i Input) FriendlyName() string { return i.friendlyName }

// UnmarshalJSON implements json.Unmarshaler. The friendly name arrives
// either as a plain VALUE string or nested as VALUE.NAME, depending on
// which endpoint produced the input.
func (i *Input) UnmarshalJSON(data []byte) error {
	var wire struct {
		Name    string          `json:"NAME"`
		Value   json.RawMessage `json:"VALUE"`
		Hashval uint32          `json:"HASHVAL"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	i.name = wire.Name
	i.hashval = wire.Hashval

	if len(wire.Value) > 0 {
		var friendly string
		if err := json.Unmarshal(wire.Value, &friendly); err == nil {
			i.friendlyName = friendly
		} else {
			var nested struct {
				Name string `json:"NAME"`
			}
			if err := json.Unmarshal(wire.Value, &nested); err != nil {
				return err
			}
			i.friendlyName = nested.Name
		}
	}
	return nil
}

// CurrentInput queries the device's active input.
func (d *Device) CurrentInput(ctx context.Context) (*Input, error) {
	env, err := d.sendCommand(ctx, command{kind: cmdGetCurrentInput})
	if err != nil {
		return nil, err
	}
	return env.currentInput()
}

// ListInputs queries every input the device exposes.
func (d *Device) ListInputs(ctx context.Context) ([]Input, error) {
	env, err := d.sendCommand(ctx, command{kind: cmdGetInputList})
	if err != nil {
		return nil, err
	}
	return env.inputList()
}

// ChangeInput switches the device to the named input. The current input
// is re-read first to obtain the hashval authorizing the write; the
// read-then-write pair is not atomic, so a concurrent input change
// elsewhere surfaces as an API error from the device.
func (d *Device) ChangeInput(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyInputName
	}

	current, err := d.CurrentInput(ctx)
	if err != nil {
		return err
	}

	_, err = d.sendCommand(ctx, command{
		kind:    cmdChangeInput,
		name:    name,
		hashval: current.hashval,
	})
	return err
}

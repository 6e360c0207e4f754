package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"partyrace/controls"
)

// ErrUnsupportedFrame is returned for frame kinds that never carry packets.
var ErrUnsupportedFrame = errors.New("protocol: unsupported frame kind")

// DecodeError reports a text frame whose payload is not a valid packet.
type DecodeError struct {
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode %q: %v", e.Payload, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

const (
	tagInput    = "Input"
	tagButton   = "Button"
	tagJoystick = "Joystick"
)

// Encode renders p as a text frame, e.g. {"Input":{"Button":["A",true]}}.
func Encode(p ClientPacket) (Frame, error) {
	var body any
	switch p := p.(type) {
	case Input:
		u, err := encodeUpdate(p.Update)
		if err != nil {
			return Frame{}, err
		}
		body = map[string]any{tagInput: u}
	default:
		return Frame{}, fmt.Errorf("protocol: cannot encode %T", p)
	}
	b, err := json.Marshal(body)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Kind: FrameText, Data: b}, nil
}

func encodeUpdate(u controls.InputUpdate) (any, error) {
	switch u := u.(type) {
	case controls.Button:
		return map[string]any{tagButton: []any{u.Type.String(), u.Pressed}}, nil
	case controls.Joystick:
		return map[string]any{tagJoystick: []any{u.Axis.String(), u.Value}}, nil
	default:
		return nil, fmt.Errorf("protocol: cannot encode input %T", u)
	}
}

// Decode parses a frame into a ClientPacket. Binary frames yield
// ErrUnsupportedFrame, malformed text yields *DecodeError.
func Decode(f Frame) (ClientPacket, error) {
	if f.Kind != FrameText {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFrame, f.Kind)
	}
	p, err := decodePacket(f.Data)
	if err != nil {
		return nil, &DecodeError{Payload: truncate(f.Data, 128), Err: err}
	}
	return p, nil
}

func decodePacket(data []byte) (ClientPacket, error) {
	tag, raw, err := variant(data)
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagInput:
		u, err := decodeUpdate(raw)
		if err != nil {
			return nil, err
		}
		return Input{Update: u}, nil
	default:
		return nil, fmt.Errorf("unknown packet %q", tag)
	}
}

func decodeUpdate(data []byte) (controls.InputUpdate, error) {
	tag, raw, err := variant(data)
	if err != nil {
		return nil, err
	}
	var fields [2]json.RawMessage
	if err := strictUnmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	var name string
	if err := json.Unmarshal(fields[0], &name); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	switch tag {
	case tagButton:
		bt, err := controls.ParseButtonType(name)
		if err != nil {
			return nil, err
		}
		var pressed bool
		if err := json.Unmarshal(fields[1], &pressed); err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		return controls.Button{Type: bt, Pressed: pressed}, nil
	case tagJoystick:
		axis, err := controls.ParseJoystickAxis(name)
		if err != nil {
			return nil, err
		}
		var v float32
		if err := json.Unmarshal(fields[1], &v); err != nil {
			return nil, fmt.Errorf("%s: %w", tag, err)
		}
		return controls.Joystick{Axis: axis, Value: v}, nil
	default:
		return nil, fmt.Errorf("unknown input %q", tag)
	}
}

// variant splits an externally tagged object {"Tag": payload}.
func variant(data []byte) (string, json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, err
	}
	if len(obj) != 1 {
		return "", nil, fmt.Errorf("want exactly one variant, got %d", len(obj))
	}
	var tag string
	for k := range obj {
		tag = k
	}
	return tag, obj[tag], nil
}

var jsonNull = []byte("null")

// strictUnmarshal rejects arrays of the wrong length and null fields, which
// encoding/json would otherwise decode as zero values.
func strictUnmarshal(data []byte, fields *[2]json.RawMessage) error {
	var all []json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	if len(all) != len(fields) {
		return fmt.Errorf("want %d fields, got %d", len(fields), len(all))
	}
	for i, f := range all {
		if bytes.Equal(bytes.TrimSpace(f), jsonNull) {
			return fmt.Errorf("field %d is null", i)
		}
	}
	copy(fields[:], all)
	return nil
}

func truncate(b []byte, n int) string {
	b = bytes.TrimSpace(b)
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

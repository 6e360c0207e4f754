package controls

import "fmt"

// ButtonType identifies a controller button.
type ButtonType uint8

const (
	ButtonA ButtonType = iota
	ButtonB
	ButtonX
	ButtonY
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight

	numButtons = int(ButtonRight) + 1
)

var buttonNames = [numButtons]string{"A", "B", "X", "Y", "Up", "Down", "Left", "Right"}

func (b ButtonType) String() string {
	if int(b) < numButtons {
		return buttonNames[b]
	}
	return fmt.Sprintf("ButtonType(%d)", uint8(b))
}

// ButtonValues lists every button in declaration order.
func ButtonValues() []ButtonType {
	out := make([]ButtonType, numButtons)
	for i := range out {
		out[i] = ButtonType(i)
	}
	return out
}

// ParseButtonType resolves a wire name such as "Up".
func ParseButtonType(s string) (ButtonType, error) {
	for i, name := range buttonNames {
		if name == s {
			return ButtonType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

// JoystickAxis identifies one axis of a stick (a stick has an X and a Y axis).
type JoystickAxis uint8

const (
	AxisLeftX JoystickAxis = iota
	AxisLeftY
	AxisRightX
	AxisRightY

	numAxes = int(AxisRightY) + 1
)

var axisNames = [numAxes]string{"LeftX", "LeftY", "RightX", "RightY"}

func (a JoystickAxis) String() string {
	if int(a) < numAxes {
		return axisNames[a]
	}
	return fmt.Sprintf("JoystickAxis(%d)", uint8(a))
}

// AxisValues lists every axis in declaration order.
func AxisValues() []JoystickAxis {
	out := make([]JoystickAxis, numAxes)
	for i := range out {
		out[i] = JoystickAxis(i)
	}
	return out
}

// ParseJoystickAxis resolves a wire name such as "LeftX".
func ParseJoystickAxis(s string) (JoystickAxis, error) {
	for i, name := range axisNames {
		if name == s {
			return JoystickAxis(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joystick axis %q", s)
}

// InputUpdate is one change reported by a controller: Button or Joystick.
type InputUpdate interface {
	isInputUpdate()
}

// Button reports a button going down (Pressed) or up.
type Button struct {
	Type    ButtonType
	Pressed bool
}

// Joystick reports the latest value of one axis, nominally -1..1.
type Joystick struct {
	Axis  JoystickAxis
	Value float32
}

func (Button) isInputUpdate()   {}
func (Joystick) isInputUpdate() {}

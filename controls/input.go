package controls

// ButtonState tracks the level of one button plus two edge latches.
//
// Network updates may arrive many times between two simulation ticks, while the
// simulation reads once per tick. A latch holds its edge until that read
// consumes it or the level flips back; repeated reports of the same level never
// re-arm it. JustPressed and JustReleased mutate the state: only the simulation
// goroutine may call them, once per tick per consumer.
type ButtonState struct {
	pressed      bool
	justPressed  bool
	justReleased bool
}

// Update records the latest level reported by the controller.
func (s *ButtonState) Update(pressed bool) {
	s.justPressed = pressed && (!s.pressed || s.justPressed)
	s.justReleased = !pressed && (s.pressed || s.justReleased)
	s.pressed = pressed
}

// IsPressed reports the current level without consuming anything.
func (s *ButtonState) IsPressed() bool {
	return s.pressed
}

// JustPressed consumes the rising-edge latch.
func (s *ButtonState) JustPressed() bool {
	latched := s.justPressed
	s.justPressed = false
	return s.pressed && latched
}

// JustReleased consumes the falling-edge latch.
func (s *ButtonState) JustReleased() bool {
	latched := s.justReleased
	s.justReleased = false
	return !s.pressed && latched
}

// JoystickState holds the last written axis value. No smoothing.
type JoystickState struct {
	value float32
}

func (j *JoystickState) Update(v float32) { j.value = v }

func (j *JoystickState) Value() float32 { return j.value }

// PlayerInput is the most recent input state of one controller. Every button
// and axis is always present.
type PlayerInput struct {
	buttons   [numButtons]ButtonState
	joysticks [numAxes]JoystickState
}

func NewPlayerInput() *PlayerInput {
	return &PlayerInput{}
}

// Apply folds one update from the wire into the state.
func (p *PlayerInput) Apply(u InputUpdate) {
	switch u := u.(type) {
	case Button:
		p.UpdateButton(u.Type, u.Pressed)
	case Joystick:
		p.UpdateJoystick(u.Axis, u.Value)
	}
}

func (p *PlayerInput) UpdateButton(b ButtonType, pressed bool) {
	if s := p.button(b); s != nil {
		s.Update(pressed)
	}
}

func (p *PlayerInput) UpdateJoystick(a JoystickAxis, v float32) {
	if int(a) < numAxes {
		p.joysticks[a].Update(v)
	}
}

func (p *PlayerInput) IsPressed(b ButtonType) bool {
	if s := p.button(b); s != nil {
		return s.IsPressed()
	}
	return false
}

// JustPressed is a consuming read, see ButtonState.
func (p *PlayerInput) JustPressed(b ButtonType) bool {
	if s := p.button(b); s != nil {
		return s.JustPressed()
	}
	return false
}

// JustReleased is a consuming read, see ButtonState.
func (p *PlayerInput) JustReleased(b ButtonType) bool {
	if s := p.button(b); s != nil {
		return s.JustReleased()
	}
	return false
}

func (p *PlayerInput) Joystick(a JoystickAxis) float32 {
	if int(a) < numAxes {
		return p.joysticks[a].Value()
	}
	return 0
}

func (p *PlayerInput) button(b ButtonType) *ButtonState {
	if int(b) >= numButtons {
		return nil
	}
	return &p.buttons[b]
}

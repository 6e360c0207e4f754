package controls

import "testing"

func TestButtonStateIsPressedFollowsLastUpdate(t *testing.T) {
	seqs := [][]bool{
		{true},
		{true, false},
		{false, false, true, true},
		{true, true, false, true, false, false},
	}
	for _, seq := range seqs {
		var s ButtonState
		for i, v := range seq {
			s.Update(v)
			// interleave consuming reads, they must not affect the level
			if i%2 == 0 {
				s.JustPressed()
			} else {
				s.JustReleased()
			}
			if s.IsPressed() != v {
				t.Fatalf("seq %v step %d: IsPressed=%v, want %v", seq, i, s.IsPressed(), v)
			}
		}
	}
}

func TestButtonStateJustPressedOncePerEdge(t *testing.T) {
	var s ButtonState
	s.Update(true)
	s.Update(true)
	s.Update(true)
	if !s.JustPressed() {
		t.Fatal("expected rising edge")
	}
	s.Update(true)
	if s.JustPressed() {
		t.Fatal("repeated press must not re-arm the latch")
	}
	s.Update(false)
	s.Update(true)
	if !s.JustPressed() {
		t.Fatal("expected second rising edge after release")
	}
}

func TestButtonStateLatchSurvivesUntilRead(t *testing.T) {
	var s ButtonState
	s.Update(true)
	s.Update(true) // latched already, must stay latched
	if !s.JustPressed() {
		t.Fatal("latch cleared early")
	}
	if s.JustPressed() {
		t.Fatal("latch reported twice")
	}
}

func TestButtonStateJustReleased(t *testing.T) {
	var s ButtonState
	if s.JustReleased() {
		t.Fatal("fresh button reported a release")
	}
	s.Update(false)
	if s.JustReleased() {
		t.Fatal("release without prior press")
	}
	s.Update(true)
	s.JustPressed()
	s.Update(false)
	s.Update(false)
	if !s.JustReleased() {
		t.Fatal("expected falling edge")
	}
	if s.JustReleased() {
		t.Fatal("falling edge reported twice")
	}
}

func TestButtonStatePressReleaseBetweenReads(t *testing.T) {
	var s ButtonState
	s.Update(true)
	s.Update(false)
	if s.JustPressed() {
		t.Fatal("press latch must not report while released")
	}
	if !s.JustReleased() {
		t.Fatal("release edge lost")
	}
	if s.JustReleased() {
		t.Fatal("release edge reported twice")
	}
}

func TestButtonStateReadWhileLevelFlippedClears(t *testing.T) {
	var s ButtonState
	s.Update(true)
	if s.JustReleased() {
		t.Fatal("release read while pressed")
	}
	s.Update(false)
	s.Update(true)
	// release latch was cleared by the press; a read now must be false
	if s.JustReleased() {
		t.Fatal("stale release reported")
	}
	if !s.JustPressed() {
		t.Fatal("expected rising edge")
	}
}

func TestPlayerInputApply(t *testing.T) {
	p := NewPlayerInput()
	for _, b := range ButtonValues() {
		if p.IsPressed(b) {
			t.Fatalf("%v pressed by default", b)
		}
	}
	for _, a := range AxisValues() {
		if p.Joystick(a) != 0 {
			t.Fatalf("%v non-zero by default", a)
		}
	}

	p.Apply(Button{Type: ButtonUp, Pressed: true})
	p.Apply(Joystick{Axis: AxisLeftX, Value: 0.42})
	p.Apply(Joystick{Axis: AxisLeftX, Value: -0.5})

	if !p.IsPressed(ButtonUp) || p.IsPressed(ButtonDown) {
		t.Fatal("button state not applied")
	}
	if !p.JustPressed(ButtonUp) || p.JustPressed(ButtonUp) {
		t.Fatal("edge not consumed exactly once")
	}
	if got := p.Joystick(AxisLeftX); got != -0.5 {
		t.Fatalf("joystick=%v, want last write -0.5", got)
	}
}

func TestParseNames(t *testing.T) {
	for _, b := range ButtonValues() {
		got, err := ParseButtonType(b.String())
		if err != nil || got != b {
			t.Fatalf("ParseButtonType(%q) = %v, %v", b.String(), got, err)
		}
	}
	for _, a := range AxisValues() {
		got, err := ParseJoystickAxis(a.String())
		if err != nil || got != a {
			t.Fatalf("ParseJoystickAxis(%q) = %v, %v", a.String(), got, err)
		}
	}
	if _, err := ParseButtonType("Start"); err == nil {
		t.Fatal("expected error for unknown button")
	}
	if _, err := ParseJoystickAxis("Trigger"); err == nil {
		t.Fatal("expected error for unknown axis")
	}
}

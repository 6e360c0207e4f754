package racing

import (
	"math"
	"testing"

	"partyrace/config"
	"partyrace/controls"
)

func TestControlFor(t *testing.T) {
	cases := []struct {
		pressed []controls.ButtonType
		want    Control
	}{
		{nil, Control{}},
		{[]controls.ButtonType{controls.ButtonUp}, Control{Acceleration: 2}},
		{[]controls.ButtonType{controls.ButtonDown}, Control{Acceleration: -2}},
		{[]controls.ButtonType{controls.ButtonUp, controls.ButtonDown}, Control{}},
		{[]controls.ButtonType{controls.ButtonLeft}, Control{Turn: 0.5}},
		{[]controls.ButtonType{controls.ButtonRight, controls.ButtonUp}, Control{Acceleration: 2, Turn: -0.5}},
		{[]controls.ButtonType{controls.ButtonA, controls.ButtonB}, Control{}},
	}
	for _, c := range cases {
		in := controls.NewPlayerInput()
		for _, b := range c.pressed {
			in.UpdateButton(b, true)
		}
		if got := ControlFor(in, 2, 0.5); got != c.want {
			t.Errorf("%v: got %+v, want %+v", c.pressed, got, c.want)
		}
	}
}

func TestKinematicsStep(t *testing.T) {
	k := NewKinematics(config.RacingTuning{MaxSpeed: 3, Drag: 0})
	k.Spawn(1, Pose{Forward: Vec3{Z: -1}})

	k.Drive(1, Control{Acceleration: 2})
	k.Step()
	pos, ok := k.Position(1)
	if !ok || pos != (Vec3{Z: -2}) {
		t.Fatalf("pos=%v ok=%v, want (0,0,-2)", pos, ok)
	}

	// control lasts a single tick, speed is kept and capped
	k.Drive(1, Control{Acceleration: 2})
	k.Step()
	k.Step()
	pos, _ = k.Position(1)
	if pos != (Vec3{Z: -8}) {
		t.Fatalf("pos=%v, want (0,0,-8)", pos)
	}

	k.Drive(1, Control{Turn: math.Pi / 2})
	k.Step()
	pose, _ := k.Pose(1)
	if pose.Forward.Distance(Vec3{X: -1}) > 1e-9 {
		t.Fatalf("forward=%v, want (-1,0,0) after a left turn", pose.Forward)
	}

	k.Despawn(1)
	if _, ok := k.Position(1); ok {
		t.Fatal("despawned car still has a position")
	}
	k.Drive(1, Control{Acceleration: 1}) // no body, ignored
	k.Step()
}

func TestKinematicsDrag(t *testing.T) {
	k := NewKinematics(config.RacingTuning{MaxSpeed: 100, Drag: 0.5})
	k.Spawn(2, Pose{Forward: Vec3{X: 1}})
	k.Drive(2, Control{Acceleration: 4})
	k.Step() // speed 2
	k.Step() // speed 1
	pos, _ := k.Position(2)
	if pos != (Vec3{X: 3}) {
		t.Fatalf("pos=%v, want (3,0,0)", pos)
	}
}

func TestKinematicsPullAndRetune(t *testing.T) {
	k := NewKinematics(config.RacingTuning{MaxSpeed: 1, Drag: 0})
	k.Spawn(1, Pose{Forward: Vec3{X: 1}})
	k.Pull(1, Vec3{Z: 2})
	k.Pull(1, Vec3{Z: 1})
	k.Drive(1, Control{Acceleration: 5})
	k.Step()
	pos, _ := k.Position(1)
	if pos != (Vec3{X: 1, Z: 3}) {
		t.Fatalf("pos=%v, want (1,0,3)", pos)
	}

	// pulls last a single step
	k.Retune(config.RacingTuning{MaxSpeed: 4, Drag: 0})
	k.Drive(1, Control{Acceleration: 5})
	k.Step()
	pos, _ = k.Position(1)
	if pos != (Vec3{X: 5, Z: 3}) {
		t.Fatalf("pos=%v, want (5,0,3) with the raised cap", pos)
	}
	k.Pull(7, Vec3{X: 1}) // no body, ignored
}

package racing

import (
	"math"

	"partyrace/config"
	"partyrace/controls"
	"partyrace/players"
)

// Control is what a car is asked to do this tick.
type Control struct {
	Acceleration float64
	// Turn is in radians per tick, positive to the left.
	Turn float64
}

// ControlFor reads the d-pad: Up/Down accelerate, Left/Right steer. Held
// buttons act every tick.
func ControlFor(in *controls.PlayerInput, accSpeed, turnSpeed float64) Control {
	var c Control
	if in.IsPressed(controls.ButtonUp) {
		c.Acceleration += accSpeed
	}
	if in.IsPressed(controls.ButtonDown) {
		c.Acceleration -= accSpeed
	}
	if in.IsPressed(controls.ButtonRight) {
		c.Turn -= turnSpeed
	}
	if in.IsPressed(controls.ButtonLeft) {
		c.Turn += turnSpeed
	}
	return c
}

// Bodies is the physical side of the race: whatever moves the cars. A real
// engine implements it with rigid bodies; Kinematics is the headless stand-in.
type Bodies interface {
	Spawn(p players.PlayerNum, at Pose)
	Despawn(p players.PlayerNum)
	Drive(p players.PlayerNum, c Control)
	// Pull displaces car p by v on the next Step, on top of its own motion.
	Pull(p players.PlayerNum, v Vec3)
	// Step advances one tick.
	Step()
	Position(p players.PlayerNum) (Vec3, bool)
}

type body struct {
	pose    Pose
	speed   float64
	control Control
	pull    Vec3
}

// Kinematics moves cars along their heading with no collisions. Speeds are in
// world units per tick.
type Kinematics struct {
	bodies   map[players.PlayerNum]*body
	maxSpeed float64
	drag     float64
}

func NewKinematics(rt config.RacingTuning) *Kinematics {
	return &Kinematics{
		bodies:   make(map[players.PlayerNum]*body),
		maxSpeed: rt.MaxSpeed,
		drag:     rt.Drag,
	}
}

func (k *Kinematics) Spawn(p players.PlayerNum, at Pose) {
	k.bodies[p] = &body{pose: at}
}

func (k *Kinematics) Despawn(p players.PlayerNum) {
	delete(k.bodies, p)
}

func (k *Kinematics) Drive(p players.PlayerNum, c Control) {
	if b, ok := k.bodies[p]; ok {
		b.control = c
	}
}

func (k *Kinematics) Pull(p players.PlayerNum, v Vec3) {
	if b, ok := k.bodies[p]; ok {
		b.pull = b.pull.Add(v)
	}
}

// Retune picks up a new speed cap and drag for the following steps.
func (k *Kinematics) Retune(rt config.RacingTuning) {
	k.maxSpeed = rt.MaxSpeed
	k.drag = rt.Drag
}

func (k *Kinematics) Step() {
	for _, b := range k.bodies {
		b.pose.Forward = b.pose.Forward.RotateY(b.control.Turn).Normalize()
		b.speed = (b.speed + b.control.Acceleration) * (1 - k.drag)
		b.speed = math.Max(-k.maxSpeed, math.Min(k.maxSpeed, b.speed))
		b.pose.Position = b.pose.Position.Add(b.pose.Forward.Scale(b.speed)).Add(b.pull)
		b.control = Control{}
		b.pull = Vec3{}
	}
}

func (k *Kinematics) Position(p players.PlayerNum) (Vec3, bool) {
	b, ok := k.bodies[p]
	if !ok {
		return Vec3{}, false
	}
	return b.pose.Position, true
}

// Pose returns where car p is and where it faces.
func (k *Kinematics) Pose(p players.PlayerNum) (Pose, bool) {
	b, ok := k.bodies[p]
	if !ok {
		return Pose{}, false
	}
	return b.pose, true
}

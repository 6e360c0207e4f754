package racing

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrEmptyTragnet   = errors.New("racing: tragnet has no anchors")
	ErrBadCheckpoints = errors.New("racing: checkpoints must be at least 1")
)

// Anchor is one point on the track's center line.
type Anchor struct {
	Position Vec3 `json:"position"`
	Rotation Quat `json:"rotation"`
}

// Tragnet is the ring of anchors laid along a track, divided into equal
// sectors for lap counting. It does not change after construction.
type Tragnet struct {
	anchors     []Anchor
	checkpoints int
}

// NewTragnet builds a ring from anchors in track order.
func NewTragnet(anchors []Anchor, checkpoints int) (*Tragnet, error) {
	if len(anchors) == 0 {
		return nil, ErrEmptyTragnet
	}
	if checkpoints < 1 {
		return nil, fmt.Errorf("%w, got %d", ErrBadCheckpoints, checkpoints)
	}
	return &Tragnet{
		anchors:     append([]Anchor(nil), anchors...),
		checkpoints: checkpoints,
	}, nil
}

func (t *Tragnet) Len() int         { return len(t.anchors) }
func (t *Tragnet) Checkpoints() int { return t.checkpoints }

// Anchor returns the anchor at index i (mod N).
func (t *Tragnet) Anchor(i int) Anchor {
	return t.anchors[t.wrap(i)]
}

// Tether is a car's current reference anchor. The zero value is lost.
type Tether struct {
	anchor   int
	tethered bool
}

// tetherAt returns a tether attached to anchor i, which must be in range.
func tetherAt(i int) Tether {
	return Tether{anchor: i, tethered: true}
}

// Anchor returns the anchor index, or false if the tether is lost.
func (t Tether) Anchor() (int, bool) {
	return t.anchor, t.tethered
}

func (t Tether) Lost() bool { return !t.tethered }

func (t Tether) String() string {
	if !t.tethered {
		return "Lost"
	}
	return fmt.Sprintf("Anchor(%d)", t.anchor)
}

// FindNearest scans every anchor and returns the closest one to pos. Ties go to
// the lowest index.
func (t *Tragnet) FindNearest(pos Vec3) int {
	nearest := 0
	best := t.anchors[0].Position.Distance(pos)
	for i := 1; i < len(t.anchors); i++ {
		if d := t.anchors[i].Position.Distance(pos); d < best {
			nearest, best = i, d
		}
	}
	return nearest
}

// UpdateTether moves tether to the anchor nearest pos and returns the signed
// progress in anchors: positive forward, negative backward.
//
// A lost tether is re-acquired with a full scan and reports 0. Otherwise only
// the 2k+1 anchors centered on the current one are searched, so the car is
// assumed to move less than k anchors per tick. A jump further than that is not
// seen; the tether stays on the best anchor inside the window.
func (t *Tragnet) UpdateTether(tether *Tether, pos Vec3, k int) int {
	if !tether.tethered {
		*tether = tetherAt(t.FindNearest(pos))
		return 0
	}
	if k < 0 {
		k = 0
	}
	start := t.wrap(tether.anchor - k)
	nearest := tether.anchor
	best := t.anchors[nearest].Position.Distance(pos)
	progress := 0
	for j := 0; j <= 2*k; j++ {
		i := t.wrap(start + j)
		if d := t.anchors[i].Position.Distance(pos); d < best {
			nearest, best = i, d
			progress = j - k
		}
	}
	tether.anchor = nearest
	return progress
}

// CurrentSector maps a tether to its sector, 0..checkpoints-1. Lost is 0.
func (t *Tragnet) CurrentSector(tether Tether) int {
	if !tether.tethered {
		return 0
	}
	return tether.anchor * t.checkpoints / len(t.anchors)
}

// AnchorOf returns the anchor a tether points at.
func (t *Tragnet) AnchorOf(tether Tether) (Anchor, bool) {
	if !tether.tethered {
		return Anchor{}, false
	}
	return t.anchors[tether.anchor], true
}

// Pull is the correction that brings a car at pos back towards its tethered
// anchor once it is more than radius away from it: strength * excess^exp along
// the direction to the anchor. A lost tether or a car within radius gets none.
func (t *Tragnet) Pull(tether Tether, pos Vec3, radius, strength, exp float64) (Vec3, bool) {
	a, ok := t.AnchorOf(tether)
	if !ok || strength <= 0 {
		return Vec3{}, false
	}
	to := a.Position.Sub(pos)
	excess := to.Length() - radius
	if excess <= 0 {
		return Vec3{}, false
	}
	return to.Normalize().Scale(strength * math.Pow(excess, exp)), true
}

// StartPose is the pose at anchor 0, facing towards anchor 1.
func (t *Tragnet) StartPose() Pose {
	a := t.anchors[0].Position
	fwd := t.Anchor(1).Position.Sub(a)
	fwd.Y = 0
	fwd = fwd.Normalize()
	if fwd == (Vec3{}) {
		fwd = Vec3{Z: 1}
	}
	return Pose{Position: a, Forward: fwd}
}

func (t *Tragnet) wrap(i int) int {
	n := len(t.anchors)
	return ((i % n) + n) % n
}

// LapCounter counts sectors and laps of one car. Only a step to the next
// sector counts: going backwards or skipping a sector is ignored. With a single
// checkpoint every observation is a step, so races use at least two.
type LapCounter struct {
	lap         int
	sector      int
	checkpoints int
}

// NewLapCounter starts at lap 0, sector 0.
func NewLapCounter(checkpoints int) LapCounter {
	return StartLapCounter(0, checkpoints)
}

// StartLapCounter starts counting in the sector a car is first seen in. A car
// first seen anywhere but sector 0 is behind the start line: crossing the line
// only brings it to lap 0.
func StartLapCounter(sector, checkpoints int) LapCounter {
	if checkpoints < 1 {
		checkpoints = 1
	}
	c := LapCounter{sector: sector % checkpoints, checkpoints: checkpoints}
	if c.sector != 0 {
		c.lap = -1
	}
	return c
}

// Lap is the number of completed laps.
func (c *LapCounter) Lap() int    { return max(c.lap, 0) }
func (c *LapCounter) Sector() int { return c.sector }

// UpdateSector observes the car in sector s and reports whether this completed
// a lap.
func (c *LapCounter) UpdateSector(s int) bool {
	next := (c.sector + 1) % c.checkpoints
	if s != next {
		return false
	}
	c.sector = next
	if next == 0 {
		c.lap++
		return c.lap > 0
	}
	return false
}

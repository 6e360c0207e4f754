package racing

import (
	"iter"
	"maps"
	"slices"

	"partyrace/config"
	"partyrace/controls"
	"partyrace/players"
)

// Phase is the stage a race is in.
type Phase int

const (
	// PreGame: players join and leave, the race starts once everyone holds A.
	PreGame Phase = iota
	// Playing: cars drive, laps are counted.
	Playing
	// PostGame: results are shown until someone presses A.
	PostGame
)

func (p Phase) String() string {
	switch p {
	case PreGame:
		return "pregame"
	case Playing:
		return "playing"
	case PostGame:
		return "postgame"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Lobby is the race's view of who is connected and what they are pressing.
type Lobby interface {
	Players() iter.Seq[players.PlayerNum]
	// InputForPlayer returns nil for a player with no input state.
	InputForPlayer(p players.PlayerNum) *controls.PlayerInput
}

// cars per row on the starting grid
const gridWidth = 4

// Car is the race state of one player.
type Car struct {
	Player   players.PlayerNum
	Tether   Tether
	Laps     LapCounter
	Ready    bool
	Finished bool
	Place    int
	// Progress is the tether movement of the last tick, in anchors.
	Progress int
}

// Race runs one racing game on one track. It is driven by Tick from the
// simulation goroutine only.
type Race struct {
	tragnet  *Tragnet
	tuning   config.RacingTuning
	bodies   Bodies
	phase    Phase
	cars     map[players.PlayerNum]*Car
	finished int
}

func NewRace(t *Tragnet, rt config.RacingTuning, bodies Bodies) *Race {
	return &Race{
		tragnet: t,
		tuning:  rt,
		bodies:  bodies,
		phase:   PreGame,
		cars:    make(map[players.PlayerNum]*Car),
	}
}

func (r *Race) Phase() Phase { return r.phase }

func (r *Race) Tragnet() *Tragnet { return r.tragnet }

func (r *Race) Tuning() config.RacingTuning { return r.tuning }

// Retune swaps the tuning between ticks. The checkpoint count belongs to the
// tragnet and is kept. Bodies that read the tuning themselves are retuned too.
func (r *Race) Retune(rt config.RacingTuning) {
	rt.Checkpoints = r.tuning.Checkpoints
	r.tuning = rt
	if b, ok := r.bodies.(interface{ Retune(config.RacingTuning) }); ok {
		b.Retune(rt)
	}
}

// Car returns a copy of player p's car.
func (r *Race) Car(p players.PlayerNum) (Car, bool) {
	c, ok := r.cars[p]
	if !ok {
		return Car{}, false
	}
	return *c, true
}

// Tick advances the race by one simulation tick and returns what happened.
func (r *Race) Tick(l Lobby) []Event {
	connected := slices.Sorted(l.Players())
	switch r.phase {
	case PreGame:
		return r.tickPreGame(l, connected)
	case Playing:
		return r.tickPlaying(l, connected)
	default:
		return r.tickPostGame(l, connected)
	}
}

func (r *Race) tickPreGame(l Lobby, connected []players.PlayerNum) []Event {
	events := r.dropDisconnected(connected)
	joined := false
	for _, p := range connected {
		if _, ok := r.cars[p]; !ok {
			r.cars[p] = &Car{Player: p, Laps: NewLapCounter(r.tragnet.Checkpoints())}
			events = append(events, Event{Kind: EventJoined, Player: p})
			joined = true
		}
	}
	if joined {
		r.arrange()
	}

	allReady := len(connected) > 0
	for _, p := range connected {
		in := l.InputForPlayer(p)
		ready := in != nil && in.IsPressed(controls.ButtonA)
		r.cars[p].Ready = ready
		allReady = allReady && ready
	}
	if allReady {
		r.arrange()
		r.phase = Playing
		events = append(events, Event{Kind: EventRaceStarted})
	}
	return events
}

func (r *Race) tickPlaying(l Lobby, connected []players.PlayerNum) []Event {
	events := r.dropDisconnected(connected)
	order := slices.Sorted(maps.Keys(r.cars))

	for _, p := range order {
		if r.cars[p].Finished {
			continue
		}
		if in := l.InputForPlayer(p); in != nil {
			r.bodies.Drive(p, ControlFor(in, r.tuning.AccSpeed, r.tuning.TurnSpeed))
		}
	}
	r.bodies.Step()

	running := 0
	for _, p := range order {
		car := r.cars[p]
		if car.Finished {
			continue
		}
		pos, ok := r.bodies.Position(p)
		if !ok {
			continue
		}
		wasLost := car.Tether.Lost()
		car.Progress = r.tragnet.UpdateTether(&car.Tether, pos, r.tuning.TragnetK)
		sector := r.tragnet.CurrentSector(car.Tether)
		if wasLost {
			// grid slots sit behind the line, counting starts where the car is
			car.Laps = StartLapCounter(sector, r.tragnet.Checkpoints())
		} else if car.Laps.UpdateSector(sector) {
			events = append(events, Event{Kind: EventLapCompleted, Player: p, Lap: car.Laps.Lap()})
		}
		if car.Laps.Lap() >= r.tuning.Laps {
			r.finished++
			car.Finished = true
			car.Place = r.finished
			r.bodies.Despawn(p)
			events = append(events, Event{Kind: EventFinished, Player: p, Place: car.Place})
			continue
		}
		if v, ok := r.tragnet.Pull(car.Tether, pos, r.tuning.TrackRadius, r.tuning.TragnetStrength, r.tuning.TragnetStrengthExp); ok {
			r.bodies.Pull(p, v)
		}
		running++
	}

	if running == 0 {
		r.phase = PostGame
		events = append(events, Event{Kind: EventRaceOver})
		// edges latched during the race must not restart the next one
		for _, p := range connected {
			if in := l.InputForPlayer(p); in != nil {
				in.JustPressed(controls.ButtonA)
			}
		}
	}
	return events
}

func (r *Race) tickPostGame(l Lobby, connected []players.PlayerNum) []Event {
	again := false
	for _, p := range connected {
		if in := l.InputForPlayer(p); in != nil && in.JustPressed(controls.ButtonA) {
			again = true
		}
	}
	if !again {
		return nil
	}
	r.Reset()
	return []Event{{Kind: EventRaceReset}}
}

// Reset removes every car and returns to PreGame.
func (r *Race) Reset() {
	for p := range r.cars {
		r.bodies.Despawn(p)
	}
	r.cars = make(map[players.PlayerNum]*Car)
	r.finished = 0
	r.phase = PreGame
}

func (r *Race) dropDisconnected(connected []players.PlayerNum) []Event {
	var events []Event
	for p := range r.cars {
		if _, found := slices.BinarySearch(connected, p); !found {
			r.bodies.Despawn(p)
			delete(r.cars, p)
			events = append(events, Event{Kind: EventLeft, Player: p})
		}
	}
	return events
}

// arrange puts every car on the starting grid behind anchor 0, ordered by
// player number, and resets its tether and lap count.
func (r *Race) arrange() {
	start := r.tragnet.StartPose()
	right := start.Forward.Cross(up)
	radius := r.tuning.TrackRadius
	order := slices.Sorted(maps.Keys(r.cars))
	for i, p := range order {
		row, col := i/gridWidth, i%gridWidth
		inRow := min(gridWidth, len(order)-row*gridWidth)
		lateral := (float64(col)+0.5)/float64(inRow)*2*radius - radius
		behind := float64(row+1) * radius
		pos := start.Position.Add(right.Scale(lateral)).Sub(start.Forward.Scale(behind))
		r.bodies.Spawn(p, Pose{Position: pos, Forward: start.Forward})

		car := r.cars[p]
		car.Tether = Tether{}
		car.Laps = NewLapCounter(r.tragnet.Checkpoints())
		car.Progress = 0
	}
}

// Standing is one roster row.
type Standing struct {
	Player   players.PlayerNum `json:"player"`
	Ready    bool              `json:"ready"`
	Lap      int               `json:"lap"`
	Sector   int               `json:"sector"`
	Finished bool              `json:"finished"`
	Place    int               `json:"place,omitempty"`
}

// Snapshot is a copy of the race state that is safe to hand to other
// goroutines.
type Snapshot struct {
	Phase Phase      `json:"phase"`
	Laps  int        `json:"laps"`
	Cars  []Standing `json:"cars"`
}

// Snapshot lists every car ordered by player number.
func (r *Race) Snapshot() Snapshot {
	s := Snapshot{Phase: r.phase, Laps: r.tuning.Laps, Cars: make([]Standing, 0, len(r.cars))}
	for _, p := range slices.Sorted(maps.Keys(r.cars)) {
		c := r.cars[p]
		s.Cars = append(s.Cars, Standing{
			Player:   p,
			Ready:    c.Ready,
			Lap:      c.Laps.Lap(),
			Sector:   c.Laps.Sector(),
			Finished: c.Finished,
			Place:    c.Place,
		})
	}
	return s
}

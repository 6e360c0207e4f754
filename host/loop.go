package host

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"partyrace/config"
	"partyrace/racing"
	"partyrace/server"
)

// DefaultTickRate is used when a loop is built with a non-positive rate.
const DefaultTickRate = 60

// EventSink receives what happened in the race. Implementations must not block
// the tick.
type EventSink interface {
	PublishEvent(e racing.Event)
	PublishStandings(s racing.Snapshot)
}

// Loop advances the simulation at a fixed rate: pump the relay, tick the race,
// report what happened. Only the goroutine running the loop touches the host
// and the race; other goroutines read the published snapshot.
type Loop struct {
	host     *Host
	race     *racing.Race
	sink     EventSink
	metrics  *server.Metrics
	interval time.Duration
	snapshot atomic.Pointer[racing.Snapshot]
	ticks    atomic.Uint64

	tuneMu  sync.Mutex
	tuning  atomic.Pointer[config.RacingTuning]
	pending atomic.Pointer[config.RacingTuning]
}

// NewLoop builds a loop; sink may be nil.
func NewLoop(h *Host, race *racing.Race, tickRate int, sink EventSink, metrics *server.Metrics) *Loop {
	if tickRate <= 0 {
		tickRate = DefaultTickRate
	}
	l := &Loop{
		host:     h,
		race:     race,
		sink:     sink,
		metrics:  metrics,
		interval: time.Second / time.Duration(tickRate),
	}
	snap := race.Snapshot()
	l.snapshot.Store(&snap)
	rt := race.Tuning()
	l.tuning.Store(&rt)
	return l
}

// Run ticks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	server.Log.Infow("simulation loop started", "interval", l.interval)
	for {
		select {
		case <-ctx.Done():
			server.Log.Infow("simulation loop stopped", "ticks", l.ticks.Load())
			return
		case <-ticker.C:
			l.Step()
		}
	}
}

// Step runs a single tick.
func (l *Loop) Step() {
	start := time.Now()
	if rt := l.pending.Swap(nil); rt != nil {
		l.race.Retune(*rt)
		server.Log.Infow("racing tuning applied", "tuning", *rt)
	}
	l.host.Pump()
	events := l.race.Tick(l.host)
	snap := l.race.Snapshot()
	l.snapshot.Store(&snap)

	for _, e := range events {
		if e.Kind == racing.EventLapCompleted {
			l.metrics.LapCompleted()
		}
		server.Log.Infow("race event", "kind", e.Kind, "player", e.Player, "lap", e.Lap, "place", e.Place)
		if l.sink != nil {
			l.sink.PublishEvent(e)
		}
	}
	if len(events) > 0 && l.sink != nil {
		l.sink.PublishStandings(snap)
	}
	l.ticks.Add(1)
	l.metrics.Tick(time.Since(start))
}

// Snapshot returns the race state as of the last tick. Safe from any
// goroutine.
func (l *Loop) Snapshot() racing.Snapshot {
	return *l.snapshot.Load()
}

// Ticks is the number of completed ticks.
func (l *Loop) Ticks() uint64 { return l.ticks.Load() }

// Tuning returns the racing tuning the loop runs with, including an update
// that waits for the next tick.
func (l *Loop) Tuning() config.RacingTuning { return *l.tuning.Load() }

// PatchTuning applies a partial racing update (see config.RacingTuning.Patch).
// The race picks it up at the start of the next tick. Safe from any goroutine.
func (l *Loop) PatchTuning(data []byte) (config.RacingTuning, error) {
	l.tuneMu.Lock()
	defer l.tuneMu.Unlock()
	rt, err := l.Tuning().Patch(data)
	if err != nil {
		return config.RacingTuning{}, err
	}
	l.tuning.Store(&rt)
	l.pending.Store(&rt)
	return rt, nil
}

package host

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"partyrace/config"
	"partyrace/controls"
	"partyrace/protocol"
	"partyrace/racing"
	"partyrace/server"
)

type recordingSink struct {
	mu        sync.Mutex
	events    []racing.Event
	standings []racing.Snapshot
}

func (s *recordingSink) PublishEvent(e racing.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) PublishStandings(snap racing.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standings = append(s.standings, snap)
}

func newTestRace(t *testing.T) *racing.Race {
	t.Helper()
	rt := config.RacingTuning{
		TrackRadius: 2,
		TragnetK:    3,
		Checkpoints: 3,
		Laps:        1,
		AccSpeed:    0.1,
		TurnSpeed:   0.05,
		MaxSpeed:    2,
	}
	anchors, err := racing.CaptureAnchors(racing.RingTrack(32, 40))
	if err != nil {
		t.Fatal(err)
	}
	tr, err := racing.NewTragnet(anchors, rt.Checkpoints)
	if err != nil {
		t.Fatal(err)
	}
	return racing.NewRace(tr, rt, racing.NewKinematics(rt))
}

func TestLoopStepPumpsAndStartsRace(t *testing.T) {
	relay := server.NewRelay()
	h := New(relay, nil)
	sink := &recordingSink{}
	loop := NewLoop(h, newTestRace(t), 0, sink, nil)

	if got := loop.Snapshot().Phase; got != racing.PreGame {
		t.Fatalf("initial phase=%v", got)
	}

	send(t, relay, 5, protocol.Connected{})
	send(t, relay, 5, button(controls.ButtonA, true))
	loop.Step()

	snap := loop.Snapshot()
	if snap.Phase != racing.Playing || len(snap.Cars) != 1 || snap.Cars[0].Player != 1 {
		t.Fatalf("snapshot=%+v, want player 1 racing", snap)
	}
	want := []racing.EventKind{racing.EventJoined, racing.EventRaceStarted}
	if len(sink.events) != len(want) {
		t.Fatalf("events=%v, want %v", sink.events, want)
	}
	for i, k := range want {
		if sink.events[i].Kind != k {
			t.Fatalf("event %d=%v, want %v", i, sink.events[i].Kind, k)
		}
	}
	if len(sink.standings) != 1 {
		t.Fatalf("standings published %d times, want 1", len(sink.standings))
	}

	loop.Step()
	if len(sink.standings) != 1 {
		t.Fatal("standings published on a quiet tick")
	}
	if loop.Ticks() != 2 {
		t.Fatalf("ticks=%d", loop.Ticks())
	}
}

func TestLoopDriveMovesCar(t *testing.T) {
	relay := server.NewRelay()
	h := New(relay, nil)
	race := newTestRace(t)
	loop := NewLoop(h, race, 0, nil, nil)

	send(t, relay, 1, protocol.Connected{})
	send(t, relay, 1, button(controls.ButtonA, true))
	loop.Step()
	send(t, relay, 1, button(controls.ButtonUp, true))
	for range 40 {
		loop.Step()
	}
	car, ok := race.Car(1)
	if !ok {
		t.Fatal("no car for player 1")
	}
	if a, ok := car.Tether.Anchor(); !ok || a == 0 || a > 8 {
		t.Fatalf("tether=%v, want a few anchors past the start", car.Tether)
	}
}

func TestLoopPatchTuningAppliesOnNextStep(t *testing.T) {
	race := newTestRace(t)
	loop := NewLoop(New(server.NewRelay(), nil), race, 0, nil, nil)
	if loop.Tuning().Laps != 1 {
		t.Fatalf("loop tuning=%+v, want the race's", loop.Tuning())
	}

	if _, err := loop.PatchTuning([]byte(`{"laps":0}`)); err == nil {
		t.Fatal("invalid lap count accepted")
	}
	rt, err := loop.PatchTuning([]byte(`{"laps":3,"max-speed":4}`))
	if err != nil {
		t.Fatal(err)
	}
	if rt.Laps != 3 || loop.Tuning().Laps != 3 {
		t.Fatalf("patched=%+v loop=%+v", rt, loop.Tuning())
	}
	if race.Tuning().Laps != 1 {
		t.Fatal("race retuned outside the tick")
	}

	loop.Step()
	if race.Tuning().Laps != 3 || race.Tuning().MaxSpeed != 4 {
		t.Fatalf("race tuning=%+v after a step", race.Tuning())
	}
	if loop.Snapshot().Laps != 3 {
		t.Fatalf("snapshot laps=%d", loop.Snapshot().Laps)
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	loop := NewLoop(New(server.NewRelay(), nil), newTestRace(t), 500, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for loop.Ticks() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("loop did not tick")
		}
		time.Sleep(2 * time.Millisecond)
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// heldToken completes once release is closed.
type heldToken struct{ release chan struct{} }

func (t heldToken) Done() <-chan struct{} { return t.release }
func (t heldToken) Error() error          { return nil }

func (t heldToken) Wait() bool {
	<-t.release
	return true
}

func (t heldToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.release:
		return true
	case <-time.After(d):
		return false
	}
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// fakeClient records publishes; other mqtt.Client methods are not used.
type fakeClient struct {
	mqtt.Client
	mu           sync.Mutex
	sent         []published
	disconnected bool
	release      chan struct{} // if set, acks wait until it is closed
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, published{topic, retained, payload.([]byte)})
	if c.release != nil {
		return heldToken{c.release}
	}
	return doneToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
}

func TestMQTTPublisherTopics(t *testing.T) {
	client := &fakeClient{}
	p := NewMQTTPublisher(client, "partyrace/events")
	p.PublishEvent(racing.Event{Kind: racing.EventLapCompleted, Player: 2, Lap: 1})
	p.PublishStandings(racing.Snapshot{Phase: racing.Playing, Laps: 1})
	p.Close()

	if !client.disconnected {
		t.Fatal("client not disconnected")
	}
	if len(client.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(client.sent))
	}
	byTopic := make(map[string]published)
	for _, m := range client.sent {
		byTopic[m.topic] = m
	}

	lap, ok := byTopic["partyrace/events/lap_completed"]
	if !ok || lap.retained {
		t.Fatalf("lap message=%+v", lap)
	}
	var e racing.Event
	if err := json.Unmarshal(lap.payload, &e); err != nil || e.Player != 2 || e.Lap != 1 {
		t.Fatalf("lap payload=%s err=%v", lap.payload, err)
	}

	st, ok := byTopic["partyrace/events/standings"]
	if !ok || !st.retained {
		t.Fatalf("standings message=%+v", st)
	}
	if string(st.payload) != `{"phase":"playing","laps":1,"cars":null}` {
		t.Fatalf("standings payload=%s", st.payload)
	}
}

func TestMQTTPublisherKeepsOrder(t *testing.T) {
	client := &fakeClient{release: make(chan struct{})}
	p := NewMQTTPublisher(client, "race")
	p.PublishEvent(racing.Event{Kind: racing.EventLapCompleted, Player: 1, Lap: 1})
	p.PublishEvent(racing.Event{Kind: racing.EventFinished, Player: 1, Place: 1})
	p.PublishEvent(racing.Event{Kind: racing.EventRaceOver})
	p.PublishStandings(racing.Snapshot{Phase: racing.PostGame, Laps: 1})

	// handed over before any ack arrived
	client.mu.Lock()
	var got []string
	for _, m := range client.sent {
		got = append(got, m.topic)
	}
	client.mu.Unlock()
	want := []string{
		"race/" + string(racing.EventLapCompleted),
		"race/" + string(racing.EventFinished),
		"race/" + string(racing.EventRaceOver),
		"race/standings",
	}
	if len(got) != len(want) {
		t.Fatalf("sent %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sent %v, want %v", got, want)
		}
	}

	close(client.release)
	p.Close()
	if !client.disconnected {
		t.Fatal("client not disconnected")
	}
}

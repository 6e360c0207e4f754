package racing

import (
	"fmt"

	"partyrace/players"
)

type EventKind string

const (
	EventJoined       EventKind = "player_joined"
	EventLeft         EventKind = "player_left"
	EventRaceStarted  EventKind = "race_started"
	EventLapCompleted EventKind = "lap_completed"
	EventFinished     EventKind = "player_finished"
	EventRaceOver     EventKind = "race_finished"
	EventRaceReset    EventKind = "race_reset"
)

// Event is something that happened during a tick. Player, Lap and Place are
// set only where they apply.
type Event struct {
	Kind   EventKind         `json:"kind"`
	Player players.PlayerNum `json:"player,omitempty"`
	Lap    int               `json:"lap,omitempty"`
	Place  int               `json:"place,omitempty"`
}

func (e Event) String() string {
	switch e.Kind {
	case EventLapCompleted:
		return fmt.Sprintf("%s player=%d lap=%d", e.Kind, e.Player, e.Lap)
	case EventFinished:
		return fmt.Sprintf("%s player=%d place=%d", e.Kind, e.Player, e.Place)
	case EventJoined, EventLeft:
		return fmt.Sprintf("%s player=%d", e.Kind, e.Player)
	default:
		return string(e.Kind)
	}
}

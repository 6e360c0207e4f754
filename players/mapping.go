package players

import (
	"errors"
	"iter"
	"maps"

	"partyrace/protocol"
)

// PlayerNum is the gameplay-facing player slot, 1..255. The first controller
// to connect is player 1.
type PlayerNum uint8

// MaxPlayers is the number of distinct player numbers.
const MaxPlayers = 255

// ErrNoFreeSlot is returned when every player number is taken.
var ErrNoFreeSlot = errors.New("players: all player numbers are in use")

// PlayerMapping assigns player numbers to connected users. Numbers are always
// the smallest one not in use, so a freed slot is handed out again first.
type PlayerMapping struct {
	slots map[PlayerNum]protocol.UserId
}

func NewPlayerMapping() *PlayerMapping {
	return &PlayerMapping{slots: make(map[PlayerNum]protocol.UserId)}
}

// ConnectLowestNum maps user to the lowest free number.
func (m *PlayerMapping) ConnectLowestNum(user protocol.UserId) (PlayerNum, error) {
	for n := 1; n <= MaxPlayers; n++ {
		num := PlayerNum(n)
		if _, taken := m.slots[num]; !taken {
			m.slots[num] = user
			return num, nil
		}
	}
	return 0, ErrNoFreeSlot
}

// Remove unmaps user and returns the number it held.
func (m *PlayerMapping) Remove(user protocol.UserId) (PlayerNum, bool) {
	for num, u := range m.slots {
		if u == user {
			delete(m.slots, num)
			return num, true
		}
	}
	return 0, false
}

// Players yields the assigned numbers in no particular order. The sequence can
// be ranged over any number of times.
func (m *PlayerMapping) Players() iter.Seq[PlayerNum] {
	return maps.Keys(m.slots)
}

func (m *PlayerMapping) Contains(num PlayerNum) bool {
	_, ok := m.slots[num]
	return ok
}

// UserID returns the user holding num.
func (m *PlayerMapping) UserID(num PlayerNum) (protocol.UserId, bool) {
	u, ok := m.slots[num]
	return u, ok
}

func (m *PlayerMapping) Len() int {
	return len(m.slots)
}

package players

import (
	"errors"
	"testing"

	"partyrace/protocol"
)

func TestFreedSlotReused(t *testing.T) {
	m := NewPlayerMapping()
	if n, _ := m.ConnectLowestNum(10); n != 1 {
		t.Fatalf("user 10 got %d, want 1", n)
	}
	if n, _ := m.ConnectLowestNum(11); n != 2 {
		t.Fatalf("user 11 got %d, want 2", n)
	}
	if n, ok := m.Remove(10); !ok || n != 1 {
		t.Fatalf("Remove(10) = %d, %v", n, ok)
	}
	if n, _ := m.ConnectLowestNum(12); n != 1 {
		t.Fatalf("user 12 got %d, want freed slot 1", n)
	}
	if u, ok := m.UserID(1); !ok || u != 12 {
		t.Fatalf("slot 1 held by %d", u)
	}
}

func TestRemoveUnknown(t *testing.T) {
	m := NewPlayerMapping()
	m.ConnectLowestNum(1)
	if _, ok := m.Remove(2); ok {
		t.Fatal("removed unmapped user")
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d", m.Len())
	}
}

func TestPlayersRestartable(t *testing.T) {
	m := NewPlayerMapping()
	for u := protocol.UserId(1); u <= 3; u++ {
		m.ConnectLowestNum(u)
	}
	seq := m.Players()
	for pass := 0; pass < 2; pass++ {
		seen := map[PlayerNum]bool{}
		for n := range seq {
			seen[n] = true
		}
		if len(seen) != 3 || !seen[1] || !seen[2] || !seen[3] {
			t.Fatalf("pass %d saw %v", pass, seen)
		}
	}
	if !m.Contains(2) || m.Contains(4) {
		t.Fatal("Contains mismatch")
	}
}

func TestExhaustionRejected(t *testing.T) {
	m := NewPlayerMapping()
	for u := 1; u <= MaxPlayers; u++ {
		if _, err := m.ConnectLowestNum(protocol.UserId(u)); err != nil {
			t.Fatalf("user %d: %v", u, err)
		}
	}
	if _, err := m.ConnectLowestNum(1000); !errors.Is(err, ErrNoFreeSlot) {
		t.Fatalf("err = %v, want ErrNoFreeSlot", err)
	}
	if m.Len() != MaxPlayers {
		t.Fatalf("Len() = %d", m.Len())
	}
	m.Remove(7)
	if n, err := m.ConnectLowestNum(1000); err != nil || n != 7 {
		t.Fatalf("after free got %d, %v; want 7", n, err)
	}
}

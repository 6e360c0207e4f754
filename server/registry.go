package server

import (
	"errors"
	"math"
	"sync"

	"partyrace/protocol"
)

// ErrRegistryFull is returned when every UserId is taken.
var ErrRegistryFull = errors.New("server: no free user id")

// SessionRegistry hands out the small UserIds of active connections. It is the
// one piece of state shared between connection goroutines.
type SessionRegistry struct {
	mu    sync.Mutex
	inUse map[protocol.UserId]struct{}
	limit protocol.UserId
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		inUse: make(map[protocol.UserId]struct{}),
		limit: math.MaxUint64,
	}
}

// Allocate returns the smallest id >= 1 not currently allocated.
func (s *SessionRegistry) Allocate() (protocol.UserId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := protocol.UserId(1); ; id++ {
		if _, taken := s.inUse[id]; !taken {
			s.inUse[id] = struct{}{}
			return id, nil
		}
		if id == s.limit {
			return 0, ErrRegistryFull
		}
	}
}

// Free returns id to the pool. Freeing an unknown id is a no-op.
func (s *SessionRegistry) Free(id protocol.UserId) {
	s.mu.Lock()
	delete(s.inUse, id)
	s.mu.Unlock()
}

// Len reports the number of allocated ids.
func (s *SessionRegistry) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inUse)
}

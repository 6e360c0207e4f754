package server

import (
	"errors"
	"sync"

	"partyrace/protocol"
)

// ErrRelayClosed is returned by Send once the consumer has gone away.
var ErrRelayClosed = errors.New("server: relay closed")

// Relay is the unbounded FIFO queue between connection goroutines (many
// senders) and the simulation (one reader). Send never waits for the reader;
// memory is bounded only by the number of controllers.
type Relay struct {
	mu     sync.Mutex
	queue  []protocol.AnnotatedPacket
	closed bool
}

func NewRelay() *Relay {
	return &Relay{}
}

// Send enqueues p. Packets from one sender are drained in send order.
func (r *Relay) Send(p protocol.AnnotatedPacket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRelayClosed
	}
	r.queue = append(r.queue, p)
	return nil
}

// Drain hands every currently queued packet to apply, oldest first, and
// returns how many there were. It never blocks waiting for packets.
func (r *Relay) Drain(apply func(protocol.AnnotatedPacket)) int {
	r.mu.Lock()
	batch := r.queue
	r.queue = nil
	r.mu.Unlock()

	for _, p := range batch {
		apply(p)
	}
	return len(batch)
}

// Len reports the number of queued packets.
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Close marks the consumer as gone; later sends fail and queued packets are
// dropped.
func (r *Relay) Close() {
	r.mu.Lock()
	r.closed = true
	r.queue = nil
	r.mu.Unlock()
}

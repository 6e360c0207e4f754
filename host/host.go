package host

import (
	"iter"
	"maps"

	"partyrace/controls"
	"partyrace/players"
	"partyrace/protocol"
	"partyrace/server"
)

// Host is the consuming side of the relay: it keeps one input state per
// connected user and the player number each user plays as. All methods must be
// called from the simulation goroutine.
type Host struct {
	relay   *server.Relay
	inputs  map[protocol.UserId]*controls.PlayerInput
	mapping *players.PlayerMapping
	metrics *server.Metrics
}

func New(relay *server.Relay, metrics *server.Metrics) *Host {
	return &Host{
		relay:   relay,
		inputs:  make(map[protocol.UserId]*controls.PlayerInput),
		mapping: players.NewPlayerMapping(),
		metrics: metrics,
	}
}

// Pump applies every packet queued on the relay, oldest first, and returns
// how many there were. It does not wait for new packets.
func (h *Host) Pump() int {
	n := h.relay.Drain(h.apply)
	h.metrics.RelayDrained(n)
	h.metrics.PlayersMapped(h.mapping.Len())
	return n
}

func (h *Host) apply(p protocol.AnnotatedPacket) {
	switch pkt := p.Packet.(type) {
	case protocol.Connected:
		h.connect(p.UserID)
	case protocol.Disconnected:
		h.disconnect(p.UserID)
	case protocol.Client:
		in, ok := h.inputs[p.UserID]
		if !ok {
			// unknown or refused user
			return
		}
		switch cp := pkt.Packet.(type) {
		case protocol.Input:
			in.Apply(cp.Update)
		default:
			server.Log.Warnw("unhandled client packet", "user_id", p.UserID, "packet", cp)
		}
	}
}

func (h *Host) connect(id protocol.UserId) {
	if _, dup := h.inputs[id]; dup {
		server.Log.Warnw("duplicate connect ignored", "user_id", id)
		return
	}
	num, err := h.mapping.ConnectLowestNum(id)
	if err != nil {
		h.metrics.SlotRejected()
		server.Log.Warnw("controller refused a player slot", "user_id", id, "err", err)
		return
	}
	h.inputs[id] = controls.NewPlayerInput()
	server.Log.Infow("controller connected", "user_id", id, "player", num)
}

func (h *Host) disconnect(id protocol.UserId) {
	delete(h.inputs, id)
	if num, ok := h.mapping.Remove(id); ok {
		server.Log.Infow("controller disconnected", "user_id", id, "player", num)
	}
}

// Input returns the input state of user id.
func (h *Host) Input(id protocol.UserId) (*controls.PlayerInput, bool) {
	in, ok := h.inputs[id]
	return in, ok
}

// InputForPlayer returns the input state of whoever plays as num, or nil.
func (h *Host) InputForPlayer(num players.PlayerNum) *controls.PlayerInput {
	id, ok := h.mapping.UserID(num)
	if !ok {
		return nil
	}
	return h.inputs[id]
}

func (h *Host) Mapping() *players.PlayerMapping { return h.mapping }

// Players yields the player numbers currently assigned.
func (h *Host) Players() iter.Seq[players.PlayerNum] { return h.mapping.Players() }

// Users yields the users that have input state.
func (h *Host) Users() iter.Seq[protocol.UserId] { return maps.Keys(h.inputs) }

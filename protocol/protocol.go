package protocol

import "partyrace/controls"

// UserId identifies one active connection. Ids are reused only after the
// connection that held one has been torn down.
type UserId uint64

// AnnotatedPacket is what the relay carries from a connection to the host.
type AnnotatedPacket struct {
	UserID UserId
	Packet Packet
}

// Packet is Connected, Disconnected or Client.
type Packet interface {
	isPacket()
}

// Connected and Disconnected are synthesized from transport events; they have
// no wire form.
type (
	Connected    struct{}
	Disconnected struct{}
)

// Client wraps a packet decoded from the wire.
type Client struct {
	Packet ClientPacket
}

func (Connected) isPacket()    {}
func (Disconnected) isPacket() {}
func (Client) isPacket()       {}

// ClientPacket is a packet sent by a controller. New kinds are added as new
// variants handled in Encode and Decode.
type ClientPacket interface {
	isClientPacket()
}

// Input carries one controller update.
type Input struct {
	Update controls.InputUpdate
}

func (Input) isClientPacket() {}

// FrameKind mirrors the websocket data frame kinds.
type FrameKind int

const (
	FrameText FrameKind = iota + 1
	FrameBinary
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Frame is one inbound or outbound transport message.
type Frame struct {
	Kind FrameKind
	Data []byte
}

package server

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"partyrace/protocol"
)

// Stream is the inbound side of a controller connection. *websocket.Conn
// satisfies it.
type Stream interface {
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
}

// Handler turns controller connections into relay packets, one goroutine per
// connection.
type Handler struct {
	registry *SessionRegistry
	relay    *Relay
	metrics  *Metrics
	tracer   trace.Tracer
	upgrader websocket.Upgrader
	wg       sync.WaitGroup
}

func NewHandler(registry *SessionRegistry, relay *Relay, metrics *Metrics) *Handler {
	return &Handler{
		registry: registry,
		relay:    relay,
		metrics:  metrics,
		tracer:   otel.Tracer("partyrace/server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// controllers are phones on the local network, any origin is accepted
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWS upgrades the request and hands the socket to Connect.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnw("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	ws.SetReadLimit(1 << 16)
	h.Connect(ws)
}

// Connect starts serving s in its own goroutine and returns immediately.
func (h *Handler) Connect(s Stream) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.serve(s)
	}()
}

// Wait blocks until every connection goroutine has finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) serve(s Stream) {
	defer s.Close()
	_, span := h.tracer.Start(context.Background(), "controller.connection",
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	id, err := h.registry.Allocate()
	if err != nil {
		Log.Errorw("dropping connection, cannot allocate user id", "err", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "allocate")
		return
	}
	defer h.registry.Free(id)
	span.SetAttributes(attribute.Int64("user_id", int64(id)))
	log := Log.With("user_id", uint64(id))

	if err := h.send(id, protocol.Connected{}, "connected"); err != nil {
		log.Errorw("error while sending connection message", "err", err)
		span.RecordError(err)
		return
	}
	h.metrics.ConnOpened()
	defer h.metrics.ConnClosed()

	// runs before Free: the id must not be reused until Disconnected is queued
	defer func() {
		if err := h.send(id, protocol.Disconnected{}, "disconnected"); err != nil {
			log.Errorw("error while sending disconnect message", "err", err)
		}
	}()

	if err := h.readLoop(s, id, log); err != nil {
		span.RecordError(err)
		log.Infow("connection ended", "reason", err)
		return
	}
	log.Info("connection closed by client")
}

// readLoop forwards decoded frames until the stream closes. A nil return means
// a clean close.
func (h *Handler) readLoop(s Stream, id protocol.UserId, log *zap.SugaredLogger) error {
	for {
		mt, data, err := s.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			return err
		}
		pkt, err := protocol.Decode(protocol.Frame{Kind: frameKind(mt), Data: data})
		if errors.Is(err, protocol.ErrUnsupportedFrame) {
			return err
		}
		if err != nil {
			h.metrics.DecodeError()
			log.Warnw("failed to decode message", "err", err)
			continue
		}
		if err := h.send(id, protocol.Client{Packet: pkt}, "client"); err != nil {
			return err
		}
	}
}

func (h *Handler) send(id protocol.UserId, p protocol.Packet, kind string) error {
	if err := h.relay.Send(protocol.AnnotatedPacket{UserID: id, Packet: p}); err != nil {
		h.metrics.RelayError(kind)
		return err
	}
	h.metrics.PacketRelayed(kind)
	return nil
}

func frameKind(messageType int) protocol.FrameKind {
	switch messageType {
	case websocket.TextMessage:
		return protocol.FrameText
	case websocket.BinaryMessage:
		return protocol.FrameBinary
	default:
		return 0
	}
}

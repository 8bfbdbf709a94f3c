package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"webos/pkg/protocol"
)

// DefaultEventBuffer is the per-subscriber queue length.
const DefaultEventBuffer = 64

const writeTimeout = 5 * time.Second

// SnapshotFunc returns the state sent to a subscriber when it connects.
type SnapshotFunc func(ctx context.Context) (any, error)

// Hub fans desktop events out to WebSocket subscribers. A subscriber
// whose queue is full is disconnected instead of blocking publishers.
type Hub struct {
	log      *zap.Logger
	buffer   int
	snapshot SnapshotFunc

	mu     sync.Mutex
	subs   map[*subscriber]struct{}
	closed bool
}

type subscriber struct {
	msgs      chan *protocol.Message
	closeSlow func()
	cancel    context.CancelFunc
}

// NewHub creates a hub. A nil snapshot skips the initial state message.
func NewHub(buffer int, snapshot SnapshotFunc, log *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultEventBuffer
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:      log,
		buffer:   buffer,
		snapshot: snapshot,
		subs:     make(map[*subscriber]struct{}),
	}
}

// Publish queues msg for every subscriber.
func (h *Hub) Publish(msg *protocol.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		select {
		case s.msgs <- msg:
		default:
			delete(h.subs, s)
			go s.closeSlow()
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for s := range h.subs {
		s.cancel()
		delete(h.subs, s)
	}
}

func (h *Hub) add(s *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.subs[s] = struct{}{}
	return true
}

func (h *Hub) remove(s *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
}

// ServeHTTP upgrades to WebSocket and streams events until the client
// goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	err = h.serve(r.Context(), conn)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	case websocket.CloseStatus(err) != -1:
		h.log.Debug("websocket closed", zap.Stringer("status", websocket.CloseStatus(err)))
	default:
		h.log.Debug("websocket ended", zap.Error(err))
	}
}

func (h *Hub) serve(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := &subscriber{
		msgs: make(chan *protocol.Message, h.buffer),
		closeSlow: func() {
			conn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with messages")
		},
		cancel: cancel,
	}
	if !h.add(s) {
		return nil
	}
	defer h.remove(s)

	if h.snapshot != nil {
		state, err := h.snapshot(ctx)
		if err != nil {
			return err
		}
		msg, err := protocol.NewMessage(protocol.OpcodeSnapshot, state)
		if err != nil {
			return err
		}
		if err := write(ctx, conn, msg); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.readLoop(ctx, conn) })
	g.Go(func() error {
		for {
			select {
			case msg := <-s.msgs:
				if err := write(ctx, conn, msg); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})
	return g.Wait()
}

// readLoop answers pings. Anything else the client sends is rejected
// with an error message but keeps the connection open.
func (h *Hub) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := h.reply(ctx, conn, protocol.OpcodeError, map[string]string{"error": err.Error()}); err != nil {
				return err
			}
			continue
		}

		switch msg.Opcode {
		case protocol.OpcodePing:
			if err := h.reply(ctx, conn, protocol.OpcodePong, nil); err != nil {
				return err
			}
		default:
			if err := h.reply(ctx, conn, protocol.OpcodeError, map[string]string{"error": "unsupported opcode " + msg.Opcode.String()}); err != nil {
				return err
			}
		}
	}
}

func (h *Hub) reply(ctx context.Context, conn *websocket.Conn, op protocol.Opcode, payload any) error {
	msg, err := protocol.NewMessage(op, payload)
	if err != nil {
		return err
	}
	return write(ctx, conn, msg)
}

func write(ctx context.Context, conn *websocket.Conn, msg *protocol.Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}

package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/observable"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
)

// Frame types sent to websocket clients.
const (
	frameState = "state"
	frameError = "error"
	frameAck   = "ack"
)

type outFrame struct {
	Type    string `json:"type"`
	State   any    `json:"state,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Channel string `json:"channel,omitempty"`
}

type inFrame struct {
	Channel string              `json:"channel,omitempty"`
	Message jsoniter.RawMessage `json:"message"`
}

// hub tracks websocket clients.
type hub[S any] struct {
	server   *Server[S]
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client[S]
}

type client[S any] struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
	sub  observable.Subscription
}

func newHub[S any](s *Server[S]) *hub[S] {
	return &hub[S]{
		server:  s,
		clients: make(map[string]*client[S]),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *hub[S]) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client[S]{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.server.config.SendBuffer),
		done: make(chan struct{}),
	}
	logger := h.server.logger.With("conn", c.id)

	// Subscribing replays the current state, so the client's first frame is
	// always a state frame.
	err = h.server.do(r.Context(), func() error {
		sub, err := h.server.store.Observable().SubscribeFunc(func(state S) {
			h.push(c, outFrame{Type: frameState, State: state})
		})
		c.sub = sub
		return err
	})
	if err != nil {
		logger.Warn("websocket subscribe failed", "error", err)
		conn.Close()
		return
	}

	h.add(c)
	logger.Debug("websocket connected")

	go h.writeLoop(c)
	h.readLoop(c)

	h.remove(c)
	logger.Debug("websocket disconnected")
}

// push queues a frame for c. A client that cannot keep up is closed.
func (h *hub[S]) push(c *client[S], f outFrame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.server.logger.Error("websocket frame encode failed", "conn", c.id, "error", err)
		return
	}

	select {
	case <-c.done:
	case c.send <- data:
	default:
		h.server.logger.Warn("websocket client too slow, closing", "conn", c.id)
		h.close(c)
	}
}

func (h *hub[S]) readLoop(c *client[S]) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleFrame(c, data)
	}
}

func (h *hub[S]) handleFrame(c *client[S], data []byte) {
	var in inFrame
	if err := json.Unmarshal(data, &in); err != nil {
		h.pushError(c, err)
		return
	}
	msg, err := action.Decode(in.Message)
	if err != nil {
		h.pushError(c, err)
		return
	}

	err = h.server.do(context.Background(), func() error {
		_, err := h.server.store.DispatchChannel(in.Channel, msg)
		return err
	})
	if err != nil {
		h.pushError(c, err)
		return
	}
	if ch := routedChannel(in.Channel, msg); ch != "" {
		h.push(c, outFrame{Type: frameAck, Channel: ch})
	}
}

func (h *hub[S]) pushError(c *client[S], err error) {
	body := errorBody(err)
	h.push(c, outFrame{Type: frameError, Code: body.Code, Error: body.Error})
}

func (h *hub[S]) writeLoop(c *client[S]) {
	defer c.conn.Close()
	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.close(c)
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

func (h *hub[S]) add(c *client[S]) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	if h.server.config.Conns != nil {
		h.server.config.Conns.ConnOpened()
	}
}

// remove unregisters c and drops its subscription on the loop.
func (h *hub[S]) remove(c *client[S]) {
	h.close(c)

	h.mu.Lock()
	_, ok := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()
	if !ok {
		return
	}
	if h.server.config.Conns != nil {
		h.server.config.Conns.ConnClosed()
	}

	sub := c.sub
	h.server.loop.Post(func() {
		sub.Unsubscribe()
	})
}

// close signals the write loop to send a close frame and exit.
func (h *hub[S]) close(c *client[S]) {
	c.once.Do(func() {
		close(c.done)
	})
}

func (h *hub[S]) closeAll() {
	h.mu.RLock()
	clients := make([]*client[S], 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.close(c)
	}
}

func (h *hub[S]) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

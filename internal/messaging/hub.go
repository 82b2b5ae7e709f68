package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/metrics"
	"github.com/ITACHIDA/Standoutu-WorkSmart/internal/redis"
)

const maxClientsPerThread = 50

// SubscribeFunc opens a fanout subscription for a thread and returns the
// message channel plus a close func. Production wiring subscribes through
// Redis Pub/Sub so messages posted on other instances reach local clients.
type SubscribeFunc func(ctx context.Context, threadID uuid.UUID) (<-chan redis.MessagePosted, func())

// --- Command types ---

type hubCmd interface{ hubCmd() }

type cmdRegister struct {
	threadID uuid.UUID
	conn     *websocket.Conn
	errCh    chan error
}

func (cmdRegister) hubCmd() {}

type cmdUnregister struct {
	threadID uuid.UUID
	conn     *websocket.Conn
}

func (cmdUnregister) hubCmd() {}

type cmdBroadcast struct {
	threadID uuid.UUID
	data     []byte
}

func (cmdBroadcast) hubCmd() {}

type cmdGetClientCount struct {
	threadID uuid.UUID
	replyCh  chan int
}

func (cmdGetClientCount) hubCmd() {}

type cmdStop struct{}

func (cmdStop) hubCmd() {}

// --- Per-connection writer ---

type clientWriter struct {
	conn   *websocket.Conn
	sendCh chan []byte
	done   chan struct{}
}

func newClientWriter(conn *websocket.Conn) *clientWriter {
	cw := &clientWriter{
		conn:   conn,
		sendCh: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			cw.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := cw.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-cw.done:
			return
		}
	}
}

func (cw *clientWriter) stop() {
	close(cw.done)
	cw.conn.Close()
}

// --- Hub ---

type threadState struct {
	clients  map[*websocket.Conn]*clientWriter
	closeSub func()
}

// Hub fans thread messages out to websocket subscribers. The first client
// for a thread opens the thread's Pub/Sub subscription; the last disconnect
// closes it. All state is owned by the actor goroutine.
type Hub struct {
	cmdCh     chan hubCmd
	threads   map[uuid.UUID]*threadState
	subscribe SubscribeFunc
}

func NewHub(subscribe SubscribeFunc) *Hub {
	hub := &Hub{
		cmdCh:     make(chan hubCmd, 256),
		threads:   make(map[uuid.UUID]*threadState),
		subscribe: subscribe,
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for cmd := range h.cmdCh {
		switch c := cmd.(type) {
		case cmdRegister:
			h.handleRegister(c)
		case cmdUnregister:
			h.handleUnregister(c.threadID, c.conn)
		case cmdBroadcast:
			h.handleBroadcast(c)
		case cmdGetClientCount:
			if state, exists := h.threads[c.threadID]; exists {
				c.replyCh <- len(state.clients)
			} else {
				c.replyCh <- 0
			}
		case cmdStop:
			h.handleStop()
			return
		}
	}
}

func (h *Hub) handleRegister(c cmdRegister) {
	state, exists := h.threads[c.threadID]
	if !exists {
		state = &threadState{clients: make(map[*websocket.Conn]*clientWriter)}
		if h.subscribe != nil {
			ch, closeSub := h.subscribe(context.Background(), c.threadID)
			state.closeSub = closeSub
			go func() {
				for msg := range ch {
					h.BroadcastMessage(msg)
				}
			}()
		}
		h.threads[c.threadID] = state
	}

	if len(state.clients) >= maxClientsPerThread {
		slog.Warn("Rejecting client: max clients reached", "thread_id", c.threadID.String(), "max_clients", maxClientsPerThread)
		c.conn.Close()
		c.errCh <- fmt.Errorf("max clients per thread (%d) reached", maxClientsPerThread)
		return
	}

	state.clients[c.conn] = newClientWriter(c.conn)
	metrics.MessagingClients.Inc()
	slog.Debug("Client registered", "thread_id", c.threadID.String(), "total_clients", len(state.clients))
	c.errCh <- nil
}

func (h *Hub) handleUnregister(threadID uuid.UUID, conn *websocket.Conn) {
	state, exists := h.threads[threadID]
	if !exists {
		return
	}

	cw, exists := state.clients[conn]
	if !exists {
		return
	}

	cw.stop()
	delete(state.clients, conn)
	metrics.MessagingClients.Dec()

	if len(state.clients) == 0 {
		delete(h.threads, threadID)
		if state.closeSub != nil {
			state.closeSub()
		}
		slog.Debug("Last client disconnected", "thread_id", threadID.String())
	}
}

func (h *Hub) handleBroadcast(c cmdBroadcast) {
	state, exists := h.threads[c.threadID]
	if !exists {
		return
	}

	var slow []*websocket.Conn
	for conn, cw := range state.clients {
		select {
		case cw.sendCh <- c.data:
			metrics.MessagesBroadcast.Inc()
		default:
			slow = append(slow, conn)
		}
	}

	for _, conn := range slow {
		slog.Warn("Disconnecting slow client", "thread_id", c.threadID.String())
		h.handleUnregister(c.threadID, conn)
	}
}

func (h *Hub) handleStop() {
	for threadID, state := range h.threads {
		for _, cw := range state.clients {
			cw.stop()
		}
		if state.closeSub != nil {
			state.closeSub()
		}
		delete(h.threads, threadID)
	}
	metrics.MessagingClients.Set(0)
}

// --- Public API ---

// Register adds a websocket subscriber to a thread, opening the thread's
// Pub/Sub subscription if this is the first local client.
func (h *Hub) Register(threadID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	h.cmdCh <- cmdRegister{threadID: threadID, conn: conn, errCh: errCh}
	return <-errCh
}

// Unregister removes a subscriber, closing the thread's subscription when
// the last local client leaves.
func (h *Hub) Unregister(threadID uuid.UUID, conn *websocket.Conn) {
	h.cmdCh <- cmdUnregister{threadID: threadID, conn: conn}
}

// messageEvent is the wire format for a fanned-out thread message.
type messageEvent struct {
	Type      string    `json:"type"`
	MessageID uuid.UUID `json:"message_id"`
	ThreadID  uuid.UUID `json:"thread_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// BroadcastMessage fans a posted message out to the thread's subscribers.
func (h *Hub) BroadcastMessage(msg redis.MessagePosted) {
	event := messageEvent{
		Type:      "message",
		MessageID: msg.MessageID,
		ThreadID:  msg.ThreadID,
		AuthorID:  msg.AuthorID,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal thread message", "error", err)
		return
	}
	h.cmdCh <- cmdBroadcast{threadID: msg.ThreadID, data: data}
}

// GetClientCount returns the number of local subscribers for a thread.
func (h *Hub) GetClientCount(threadID uuid.UUID) int {
	replyCh := make(chan int, 1)
	h.cmdCh <- cmdGetClientCount{threadID: threadID, replyCh: replyCh}
	return <-replyCh
}

// Stop closes all subscribers and thread subscriptions.
func (h *Hub) Stop() {
	h.cmdCh <- cmdStop{}
}

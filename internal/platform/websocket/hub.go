// Package websocket delivers real-time events to subscribed connections.
// It implements a hub-and-spoke pattern where clients subscribe to typed
// topics and receive events published to those topics. Delivery is
// fire-and-forget: there is no persistence or replay, and a subscriber only
// sees events published after it subscribed.
package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	gorillawebsocket "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Event types published by the intake pipeline.
const (
	EventNewCaseAlert = "new_case_alert"
	EventVitalsUpdate = "vitals_update"
)

// Event is a real-time notification sent to subscribed clients.
type Event struct {
	Type      string          `json:"type"`
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ClientMessage is an inbound subscription command from a client.
type ClientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

// Publisher is the interface the intake pipeline publishes through.
type Publisher interface {
	Publish(topic Topic, eventType string, data any) error
}

// Conn abstracts a WebSocket connection for testability.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client represents a single connection and its topic memberships.
type Client struct {
	ID     string
	Send   chan []byte
	topics map[Topic]struct{}
	conn   Conn
}

// Hub is the central membership table. All operations are safe for
// concurrent subscribe/unsubscribe/publish; a publish racing an unsubscribe
// either delivers to a still-registered member or skips a departed one,
// never both.
type Hub struct {
	mu      sync.RWMutex
	clients map[Topic]map[*Client]struct{}
	all     map[*Client]struct{}
	logger  zerolog.Logger
}

// NewHub creates a Hub ready to manage clients.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[Topic]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a connection to the hub with no initial subscriptions.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client.topics == nil {
		client.topics = make(map[Topic]struct{})
	}
	h.all[client] = struct{}{}
}

// Unregister removes a client from the hub, tears down all its topic
// memberships, and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for topic := range client.topics {
		h.dropMemberLocked(topic, client)
	}

	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds the client to a topic's membership.
func (h *Hub) Subscribe(client *Client, topic Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
	client.topics[topic] = struct{}{}
}

// Unsubscribe removes the client from a topic's membership.
func (h *Hub) Unsubscribe(client *Client, topic Topic) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropMemberLocked(topic, client)
	delete(client.topics, topic)
}

func (h *Hub) dropMemberLocked(topic Topic, client *Client) {
	if members, ok := h.clients[topic]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.clients, topic)
		}
	}
}

// ProcessMessage dispatches an inbound client command.
func (h *Hub) ProcessMessage(client *Client, msg ClientMessage) {
	for _, raw := range msg.Topics {
		topic, err := ParseTopic(raw)
		if err != nil {
			h.logger.Debug().Err(err).Str("client", client.ID).Msg("ignoring malformed topic")
			continue
		}
		switch msg.Action {
		case "subscribe":
			h.Subscribe(client, topic)
		case "unsubscribe":
			h.Unsubscribe(client, topic)
		}
	}
}

// Publish marshals data into an Event and delivers it to every current
// member of the topic in publish order. Members whose send buffers are full
// are skipped rather than blocking the publisher.
func (h *Hub) Publish(topic Topic, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("websocket: marshal event data: %w", err)
	}
	event := Event{
		Type:      eventType,
		Topic:     topic.String(),
		Timestamp: time.Now().UTC(),
		Data:      payload,
	}
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("websocket: marshal event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[topic] {
		select {
		case client.Send <- message:
		default:
			// Client buffer full; skip to avoid blocking.
		}
	}
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a topic.
func (h *Hub) TopicCount(topic Topic) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// ---------------------------------------------------------------------------
// Handler — Echo HTTP handler for WebSocket connections
// ---------------------------------------------------------------------------

var upgrader = gorillawebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; tighten in production.
	},
}

// Handler upgrades HTTP connections and routes client messages to the hub.
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes registers the WebSocket endpoint on the provided Echo group.
func (wsh *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/ws", wsh.HandleConnect)
}

// HandleConnect upgrades the connection, registers the client, and starts
// read/write pumps.
func (wsh *Handler) HandleConnect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &Client{
		ID:     uuid.New().String(),
		Send:   make(chan []byte, 256),
		topics: make(map[Topic]struct{}),
		conn:   &gorillaConnAdapter{ws},
	}

	wsh.hub.Register(client)

	go wsh.writePump(client)
	go wsh.readPump(client)

	return nil
}

func (wsh *Handler) readPump(client *Client) {
	defer func() {
		wsh.hub.Unregister(client)
		client.conn.Close()
	}()

	for {
		_, message, err := client.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue // Ignore malformed messages.
		}

		wsh.hub.ProcessMessage(client, msg)
	}
}

func (wsh *Handler) writePump(client *Client) {
	defer client.conn.Close()

	for message := range client.Send {
		if err := client.conn.WriteMessage(gorillawebsocket.TextMessage, message); err != nil {
			break
		}
	}
}

// gorillaConnAdapter wraps a gorilla/websocket.Conn to satisfy Conn.
type gorillaConnAdapter struct {
	conn *gorillawebsocket.Conn
}

func (a *gorillaConnAdapter) ReadMessage() (int, []byte, error) {
	return a.conn.ReadMessage()
}

func (a *gorillaConnAdapter) WriteMessage(messageType int, data []byte) error {
	return a.conn.WriteMessage(messageType, data)
}

func (a *gorillaConnAdapter) Close() error {
	return a.conn.Close()
}

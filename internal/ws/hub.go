package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4 * 1024
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
	HandshakeTimeout: 10 * time.Second,
	ReadBufferSize:   1024,
	WriteBufferSize:  1024,
}

// Event is the envelope pushed to connected clients. Clients never send
// chat traffic over the socket; messages go through the REST API and come
// back out here.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type Client struct {
	conn *websocket.Conn
	send chan []byte

	// chatID filters delivery. Empty means the client receives events for
	// every chat, which the contact-list view relies on.
	chatID string
	hub    *Hub
}

// envelope pairs an encoded event with the chat it belongs to, so the hub
// goroutine can apply the per-client filter.
type envelope struct {
	chatID string
	data   []byte
}

// Hub fans chat events out to connected websocket clients. It satisfies
// the Broadcaster the services push through.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan envelope
	register   chan *Client
	unregister chan *Client
	log        *logger.Logger
	mu         sync.Mutex
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan envelope, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("ws client registered", "chat_id", client.chatID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case env := <-h.broadcast:
			h.deliver(env.data, env.chatID)
		}
	}
}

// BroadcastMessage queues a stored message for every client subscribed to
// its chat (and for unfiltered clients). Delivery happens on the hub
// goroutine; when the queue is full the event is dropped rather than
// blocking the chat turn.
func (h *Hub) BroadcastMessage(msg models.Message) {
	data, err := json.Marshal(Event{Type: "message", Payload: msg})
	if err != nil {
		h.log.LogError(err, "failed to encode ws event")
		return
	}
	select {
	case h.broadcast <- envelope{chatID: msg.ChatID, data: data}:
	default:
		h.log.Warn("ws broadcast queue full, event dropped", "chat_id", msg.ChatID)
	}
}

// ClientCount reports how many sockets are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) deliver(data []byte, chatID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if chatID != "" && client.chatID != "" && client.chatID != chatID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
			h.log.Warn("ws client dropped, send buffer full")
		}
	}
}

// readPump drains the connection so control frames are processed. Any
// text the client sends is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Debug("ws read failed", "error", err.Error())
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// Flush anything already queued as separate frames.
			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades the request and registers the client. An optional
// ?chatId= query scopes delivery to a single conversation.
func ServeWs(hub *Hub, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.LogError(err, "ws upgrade failed")
		return
	}
	conn.EnableWriteCompression(true)

	client := &Client{
		conn:   conn,
		send:   make(chan []byte, 256),
		chatID: c.Query("chatId"),
		hub:    hub,
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}

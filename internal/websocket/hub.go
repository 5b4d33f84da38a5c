package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"nhooyr.io/websocket"
)

// Message represents a WebSocket message
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Client represents a WebSocket client
type Client struct {
	ID   string
	Conn *websocket.Conn
	Hub  *Hub
	Send chan []byte
}

// Hub maintains active clients and broadcasts messages
type Hub struct {
	clients        map[*Client]bool
	broadcast      chan []byte
	register       chan *Client
	unregister     chan *Client
	mu             sync.RWMutex
	jwtSecret      string
	allowedOrigins []string
	tap            chan<- []byte
}

// NewHub creates a new Hub. An empty jwtSecret disables the connection token
// check.
func NewHub(jwtSecret string, allowedOrigins []string) *Hub {
	return &Hub{
		clients:        make(map[*Client]bool),
		broadcast:      make(chan []byte, 256),
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		jwtSecret:      jwtSecret,
		allowedOrigins: allowedOrigins,
	}
}

// Tap mirrors every broadcast message into ch. Used to feed the local
// reconciliation loop the same stream clients see. Must be called before Run.
func (h *Hub) Tap(ch chan<- []byte) {
	h.tap = ch
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("WebSocket client connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				log.Printf("WebSocket client disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			if h.tap != nil {
				select {
				case h.tap <- message:
				default:
				}
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a named message to all connected clients.
func (h *Hub) Broadcast(msgType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msgJSON, err := json.Marshal(Message{
		Type:    msgType,
		Payload: payloadJSON,
	})
	if err != nil {
		return err
	}

	h.broadcast <- msgJSON
	return nil
}

// HandleWebSocket handles WebSocket connections
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientID := r.RemoteAddr

	if h.jwtSecret != "" {
		token := r.URL.Query().Get("token")
		if token == "" {
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		subject, err := h.validateToken(token)
		if err != nil {
			log.Printf("WebSocket connection rejected from %s: %v", r.RemoteAddr, err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		clientID = "user:" + subject
	}

	allowedOrigins := h.allowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: allowedOrigins,
	})
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		ID:   clientID,
		Conn: conn,
		Hub:  h,
		Send: make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (h *Hub) validateToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("no token provided")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		if t.Method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing algorithm: %v", t.Method.Alg())
		}
		return []byte(h.jwtSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	subject, _ := claims.GetSubject()
	if subject == "" {
		return "", fmt.Errorf("token without subject")
	}
	return subject, nil
}

// readPump reads messages from the WebSocket connection
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := context.Background()
	for {
		_, message, err := c.Conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure ||
				status == websocket.StatusGoingAway ||
				status == websocket.StatusNoStatusRcvd {
				break
			}
			log.Printf("WebSocket unexpected error: %v", err)
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Failed to parse WebSocket message: %v", err)
			continue
		}

		c.handleMessage(msg)
	}
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ctx := context.Background()
	for message := range c.Send {
		err := c.Conn.Write(ctx, websocket.MessageText, message)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure &&
				status != websocket.StatusGoingAway &&
				status != websocket.StatusNoStatusRcvd {
				log.Printf("WebSocket unexpected write error: %v", err)
			}
			return
		}
	}
}

// handleMessage handles incoming WebSocket messages
func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		response, _ := json.Marshal(Message{
			Type:    "pong",
			Payload: json.RawMessage(`{}`),
		})
		c.Send <- response
	default:
		log.Printf("Unknown message type from %s: %s", c.ID, msg.Type)
	}
}

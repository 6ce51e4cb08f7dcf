package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Server message types. Quiz pushes use the service message types.
const (
	MsgGameState MessageType = "game_state"
	MsgGamesList MessageType = "games_list"
	MsgError     MessageType = "error"
)

// Client message types
const (
	MsgAnswer MessageType = "answer"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per game
type Hub struct {
	// gameID -> uid -> conn. Games list connections live under browserKey.
	conns map[string]map[string]*Connection

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// browserKey groups connections watching the open games list
const browserKey = ""

// Connection represents a WebSocket connection
type Connection struct {
	GameID string // Empty for games list connections
	UID    string
	Send   chan []byte
	Hub    *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	GameID string
	ToUID  string      // Empty means everyone in the game
	Conn   *Connection // Set for a single connection
	Data   []byte
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.GameID] == nil {
				h.conns[conn.GameID] = make(map[string]*Connection)
			}
			if old, ok := h.conns[conn.GameID][conn.UID]; ok && old != conn {
				// Newest connection of a user wins
				close(old.Send)
			}
			h.conns[conn.GameID][conn.UID] = conn
			h.mu.Unlock()
			log.Printf("User %s connected to game %q", conn.UID, conn.GameID)

		case conn := <-h.unregister:
			h.mu.Lock()
			if users, ok := h.conns[conn.GameID]; ok {
				if existing, ok := users[conn.UID]; ok && existing == conn {
					delete(users, conn.UID)
					close(conn.Send)
					if len(users) == 0 {
						delete(h.conns, conn.GameID)
					}
					log.Printf("User %s disconnected from game %q", conn.UID, conn.GameID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			if msg.Data == nil {
				continue
			}
			h.mu.RLock()
			users := h.conns[msg.GameID]
			switch {
			case msg.Conn != nil:
				if existing, ok := users[msg.Conn.UID]; ok && existing == msg.Conn {
					trySend(existing, msg.Data)
				}
			case msg.ToUID != "":
				if conn, ok := users[msg.ToUID]; ok {
					trySend(conn, msg.Data)
				}
			default:
				for _, conn := range users {
					trySend(conn, msg.Data)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func trySend(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
		// Drop message if buffer full
	}
}

func encode(msgType MessageType, payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error encoding %s payload: %v", msgType, err)
		return nil
	}
	msg, _ := json.Marshal(&Message{
		Type:    msgType,
		Payload: data,
	})
	return msg
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// Send delivers a message to one connection if it is still registered
func (h *Hub) Send(conn *Connection, msgType MessageType, payload interface{}) {
	h.broadcast <- &BroadcastMessage{
		GameID: conn.GameID,
		Conn:   conn,
		Data:   encode(msgType, payload),
	}
}

// BroadcastToPlayer sends a message to one player of a game (implements service.Broadcaster)
func (h *Hub) BroadcastToPlayer(gameID, uid string, msgType string, payload interface{}) {
	h.broadcast <- &BroadcastMessage{
		GameID: gameID,
		ToUID:  uid,
		Data:   encode(MessageType(msgType), payload),
	}
}

// BroadcastToGame sends a message to both players of a game (implements service.Broadcaster)
func (h *Hub) BroadcastToGame(gameID string, msgType string, payload interface{}) {
	h.broadcast <- &BroadcastMessage{
		GameID: gameID,
		Data:   encode(MessageType(msgType), payload),
	}
}

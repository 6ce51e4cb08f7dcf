package ws

import (
	"codequiz/internal/model"
	"codequiz/internal/service"
	"codequiz/internal/transport/rest/middleware"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub     *Hub
	authSvc *service.AuthService
	watcher *service.GameSessionWatcher
	quizSvc *service.QuizService
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, watcher *service.GameSessionWatcher, quizSvc *service.QuizService) *Handler {
	return &Handler{
		hub:     hub,
		authSvc: authSvc,
		watcher: watcher,
		quizSvc: quizSvc,
	}
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	token := middleware.ExtractToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return model.User{}, false
	}

	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return model.User{}, false
	}
	return service.UserFromClaims(claims), true
}

// GameWS handles GET /v1/ws/games/{id}
// It streams game_state envelopes and carries the quiz pushes of the caller.
func (h *Handler) GameWS(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		GameID: gameID,
		UID:    user.UID,
		Send:   make(chan []byte, 256),
		Hub:    h.hub,
	}
	h.hub.Register(conn)

	ctx, cancel := context.WithCancel(context.Background())
	h.hub.Send(conn, MsgGameState, model.Loading[*model.Game]())
	go stream(ctx, h.hub, conn, MsgGameState, func(ctx context.Context) (*service.Watch[*model.Game], error) {
		return h.watcher.Observe(ctx, gameID)
	})

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, cancel, func(msg *Message) {
		h.handleGameMessage(ctx, conn, user, msg)
	})
}

// GamesWS handles GET /v1/ws/games
// It streams the open games list as games_list envelopes.
func (h *Handler) GamesWS(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		GameID: browserKey,
		UID:    user.UID,
		Send:   make(chan []byte, 256),
		Hub:    h.hub,
	}
	h.hub.Register(conn)

	ctx, cancel := context.WithCancel(context.Background())
	h.hub.Send(conn, MsgGamesList, model.Loading[[]*model.Game]())
	go stream(ctx, h.hub, conn, MsgGamesList, h.watcher.ObserveList)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn, cancel, nil)
}

// stream forwards a watch as State envelopes until ctx ends. A watch that
// fails ends with a failure state.
func stream[T any](ctx context.Context, hub *Hub, conn *Connection, msgType MessageType, open func(ctx context.Context) (*service.Watch[T], error)) {
	watch, err := open(ctx)
	if err != nil {
		hub.Send(conn, msgType, model.Failure[T](err))
		return
	}
	defer watch.Close()

	for value := range watch.Updates() {
		hub.Send(conn, msgType, model.Success(value))
	}

	if err := watch.Err(); err != nil && !errors.Is(err, context.Canceled) {
		hub.Send(conn, msgType, model.Failure[T](err))
	}
}

func (h *Handler) handleGameMessage(ctx context.Context, conn *Connection, user model.User, msg *Message) {
	switch msg.Type {
	case MsgAnswer:
		var answer service.Answer
		if err := json.Unmarshal(msg.Payload, &answer); err != nil {
			h.hub.Send(conn, MsgError, map[string]string{"error": "invalid answer payload"})
			return
		}
		if err := h.quizSvc.Answer(ctx, conn.GameID, user, answer); err != nil {
			h.hub.Send(conn, MsgError, map[string]string{"error": err.Error()})
		}
	default:
		h.hub.Send(conn, MsgError, map[string]string{"error": "unknown message type " + string(msg.Type)})
	}
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection, cancel context.CancelFunc, onMessage func(*Message)) {
	defer func() {
		cancel()
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
		if onMessage == nil {
			continue
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.hub.Send(conn, MsgError, map[string]string{"error": "invalid message"})
			continue
		}
		onMessage(&msg)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// internal/api/websocket.go
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/chuzo/zxi/internal/services"
	"github.com/chuzo/zxi/internal/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Cross-origin clients are expected; auth is the user id.
		return true
	},
}

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
)

// QuestSocketMessage is a client command on the quest socket.
type QuestSocketMessage struct {
	Action     string `json:"action"` // start, current, choose, abandon
	QuestTitle string `json:"quest_title,omitempty"`
	ChoiceID   string `json:"choice_id,omitempty"`
}

// questClient is one live quest socket connection.
type questClient struct {
	id     string
	conn   *websocket.Conn
	userID string
	send   chan []byte
	closed int32
}

// Close shuts the connection down once.
func (c *questClient) Close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		c.conn.Close()
	}
}

func (c *questClient) IsClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// WebSocketHandler runs interactive quest sessions over WebSocket.
type WebSocketHandler struct {
	questService *services.QuestService
	logger       *utils.Logger

	mu      sync.RWMutex
	clients map[string]*questClient
}

func NewWebSocketHandler(questService *services.QuestService) *WebSocketHandler {
	return &WebSocketHandler{
		questService: questService,
		logger:       utils.GetLogger(),
		clients:      make(map[string]*questClient),
	}
}

// QuestWebSocket upgrades the request and runs the quest message loop.
// The client identifies itself via X-User-ID or ?user_id=.
func (h *WebSocketHandler) QuestWebSocket(c *gin.Context) {
	uid := userID(c)
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}

	client := &questClient{
		id:     uuid.NewString(),
		conn:   conn,
		userID: uid,
		send:   make(chan []byte, 16),
	}

	h.mu.Lock()
	h.clients[client.id] = client
	h.mu.Unlock()

	go h.writeLoop(client)
	go h.readLoop(client)
}

func (h *WebSocketHandler) readLoop(client *questClient) {
	defer h.drop(client)

	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg QuestSocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.push(client, "error", gin.H{"message": "invalid message"})
			continue
		}

		h.handleMessage(client, msg)
	}
}

func (h *WebSocketHandler) writeLoop(client *questClient) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WebSocketHandler) handleMessage(client *questClient, msg QuestSocketMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch msg.Action {
	case "start":
		view, err := h.questService.Start(ctx, client.userID, msg.QuestTitle)
		if err != nil {
			h.push(client, "error", gin.H{"message": err.Error()})
			return
		}
		h.push(client, "scene", view)

	case "current":
		view, err := h.questService.Current(ctx, client.userID)
		if err != nil {
			h.push(client, "error", gin.H{"message": err.Error()})
			return
		}
		h.push(client, "scene", view)

	case "choose":
		view, err := h.questService.Choose(ctx, client.userID, msg.ChoiceID)
		if err != nil {
			h.push(client, "error", gin.H{"message": err.Error()})
			return
		}
		kind := "scene"
		if view.Final {
			kind = "quest_complete"
		}
		h.push(client, kind, view)

	case "abandon":
		if err := h.questService.Abandon(ctx, client.userID); err != nil {
			h.push(client, "error", gin.H{"message": err.Error()})
			return
		}
		h.push(client, "abandoned", nil)

	default:
		h.push(client, "error", gin.H{"message": "unknown action: " + msg.Action})
	}
}

// push queues a typed message for the client, dropping it when the send
// buffer is full rather than blocking the reader.
func (h *WebSocketHandler) push(client *questClient, msgType string, data interface{}) {
	if client.IsClosed() {
		return
	}

	payload, err := json.Marshal(gin.H{
		"type":      msgType,
		"data":      data,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return
	}

	select {
	case client.send <- payload:
	default:
		h.logger.Warn("Quest socket send buffer full", map[string]interface{}{
			"client": client.id,
			"user":   client.userID,
		})
	}
}

func (h *WebSocketHandler) drop(client *questClient) {
	client.Close()

	h.mu.Lock()
	if _, ok := h.clients[client.id]; ok {
		delete(h.clients, client.id)
		close(client.send)
	}
	h.mu.Unlock()
}

// Status reports live connection counts, for debugging.
func (h *WebSocketHandler) Status() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make(map[string]int)
	for _, client := range h.clients {
		users[client.userID]++
	}

	return map[string]interface{}{
		"connections": len(h.clients),
		"users":       len(users),
		"timestamp":   time.Now().Format(time.RFC3339),
	}
}

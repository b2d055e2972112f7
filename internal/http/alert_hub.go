package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"medimate-backend/internal/events"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// AlertHub 按用户分组的 WebSocket 订阅者，照护者通过它实时收到 SOS 事件
// 同时实现 events.Publisher
type AlertHub struct {
	mu       sync.RWMutex
	clients  map[int64]map[*hubClient]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

var _ events.Publisher = (*AlertHub)(nil)

// NewAlertHub origins 为空或包含 "*" 时允许任意来源
func NewAlertHub(origins []string, logger *zap.Logger) *AlertHub {
	allowAll := len(origins) == 0
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}
	return &AlertHub{
		clients: make(map[int64]map[*hubClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowAll {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		logger: logger,
	}
}

// Subscribers 当前订阅该用户的连接数
func (h *AlertHub) Subscribers(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish 把事件推给订阅该用户的所有连接；发送队列已满的连接会被断开
func (h *AlertHub) Publish(_ context.Context, e events.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}

	var slow []*hubClient
	h.mu.RLock()
	for c := range h.clients[e.UserID] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("alert subscriber too slow, dropping", zap.Int64("user_id", e.UserID))
		h.remove(e.UserID, c)
	}
	return nil
}

// Serve 升级连接并订阅 userID 的告警，直到客户端断开
func (h *AlertHub) Serve(w http.ResponseWriter, r *http.Request, userID int64) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, sendBuffer)}
	welcome, _ := json.Marshal(map[string]any{
		"type":    "connected",
		"message": "Subscribed to emergency alerts",
		"user_id": userID,
	})
	c.send <- welcome

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*hubClient]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("alert subscriber connected", zap.Int64("user_id", userID))

	go h.writePump(c)
	h.readPump(userID, c)
}

// readPump 只处理 pong 与关闭；返回时注销连接
func (h *AlertHub) readPump(userID int64, c *hubClient) {
	defer func() {
		h.remove(userID, c)
		h.logger.Info("alert subscriber disconnected", zap.Int64("user_id", userID))
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.Int64("user_id", userID), zap.Error(err))
			}
			return
		}
	}
}

// writePump 是连接上唯一的写者
func (h *AlertHub) writePump(c *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *AlertHub) remove(userID int64, c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, userID)
	}
	close(c.send)
}

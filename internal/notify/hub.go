package notify

import (
	"sync"

	"doc-insight-go/pkg/log"

	"github.com/gorilla/websocket"
)

// Hub 维护每个用户的 WebSocket 连接，向在线用户推送通知。
type Hub struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]struct{}
}

// NewHub 创建一个新的 Hub 实例。
func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*websocket.Conn]struct{})}
}

// Register 登记一个用户连接。
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]struct{})
	}
	h.conns[userID][conn] = struct{}{}
}

// Unregister 注销一个用户连接。
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.conns[userID]; ok {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.conns, userID)
		}
	}
}

// ConnCount 返回指定用户当前的连接数。
func (h *Hub) ConnCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Push 向用户的所有连接推送一条 JSON 消息。写失败的连接就地注销。
func (h *Hub) Push(userID string, payload interface{}) {
	h.mu.RLock()
	targets := make([]*websocket.Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		targets = append(targets, conn)
	}
	h.mu.RUnlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(payload); err != nil {
			log.Warnf("[Hub] 向用户 %s 推送通知失败, 注销连接: %v", userID, err)
			h.Unregister(userID, conn)
			_ = conn.Close()
		}
	}
}

package handler

import (
	"net/http"
	"strconv"

	"doc-insight-go/internal/notify"
	"doc-insight-go/internal/repository"
	"doc-insight-go/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// NotificationHandler 负责通知列表与 WebSocket 推送通道。
type NotificationHandler struct {
	notificationRepo repository.NotificationRepository
	hub              *notify.Hub
	upgrader         websocket.Upgrader
}

// NewNotificationHandler 创建一个新的 NotificationHandler 实例。
func NewNotificationHandler(notificationRepo repository.NotificationRepository, hub *notify.Hub) *NotificationHandler {
	return &NotificationHandler{
		notificationRepo: notificationRepo,
		hub:              hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// List 处理获取用户通知列表的请求。
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 userId"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notificationRepo.ListByUser(userID, limit)
	if err != nil {
		log.Error("List notifications: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取通知列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": notifications})
}

// MarkRead 处理标记通知已读的请求。
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 userId"})
		return
	}

	if err := h.notificationRepo.MarkRead(id, userID); err != nil {
		log.Error("MarkRead: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "标记已读失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "已标记为已读"})
}

// Clear 处理清空用户通知的请求。
func (h *NotificationHandler) Clear(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 userId"})
		return
	}

	if err := h.notificationRepo.ClearByUser(userID); err != nil {
		log.Error("Clear notifications: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "清空通知失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "通知已清空"})
}

// Subscribe 升级到 WebSocket 并登记到推送 Hub，连接断开时注销。
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 userId"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Subscribe: websocket 升级失败", err)
		return
	}

	h.hub.Register(userID, conn)
	log.Infof("[NotificationHandler] 用户 %s 已订阅通知推送", userID)

	// 读取循环只用于感知连接关闭
	go func() {
		defer func() {
			h.hub.Unregister(userID, conn)
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

package handler

import (
	"net/http"
	"strconv"

	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// ChatHandler 负责处理检索增强对话相关的 API 请求。
type ChatHandler struct {
	chatService service.ChatService
}

// NewChatHandler 创建一个新的 ChatHandler 实例。
func NewChatHandler(chatService service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type chatRequest struct {
	UserID   string `json:"userId" binding:"required"`
	TenantID string `json:"tenantId" binding:"required"`
	Message  string `json:"message" binding:"required"`
}

// Chat 处理一轮对话请求。字段缺失返回 400，不产生任何副作用。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[ChatHandler] 对话请求缺少必填字段: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必填字段"})
		return
	}

	result, err := h.chatService.Chat(c.Request.Context(), req.UserID, req.TenantID, req.Message)
	if err != nil {
		log.Errorf("[ChatHandler] 对话处理失败, userId: %s, error: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "对话处理失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"data": gin.H{
			"response":  result.Response,
			"citations": result.Citations,
			"messageId": result.MessageID,
		},
	})
}

// History 处理获取对话历史的请求，按时间倒序返回。
func (h *ChatHandler) History(c *gin.Context) {
	userID := c.Query("userId")
	tenantID := c.Query("tenantId")
	if userID == "" || tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 userId 或 tenantId"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	messages, err := h.chatService.History(userID, tenantID, limit)
	if err != nil {
		log.Error("History: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取对话历史失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": messages})
}

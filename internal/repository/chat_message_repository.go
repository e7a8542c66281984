package repository

import (
	"doc-insight-go/internal/model"

	"gorm.io/gorm"
)

// ChatMessageRepository 定义了对 chat_messages 表的数据操作接口。
// 消息只追加不修改。
type ChatMessageRepository interface {
	Create(message *model.ChatMessage) error
	// Recent 返回指定用户与租户下按时间倒序的最近消息。
	Recent(userID, tenantID string, limit int) ([]*model.ChatMessage, error)
}

type chatMessageRepository struct {
	db *gorm.DB
}

// NewChatMessageRepository 创建一个新的 ChatMessageRepository 实例。
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

// Create 追加一条聊天记录。
func (r *chatMessageRepository) Create(message *model.ChatMessage) error {
	return r.db.Create(message).Error
}

// Recent 按 created_at 倒序读取最近的聊天记录。
func (r *chatMessageRepository) Recent(userID, tenantID string, limit int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

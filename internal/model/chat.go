package model

import "time"

// ChatMessage 对应于数据库中的 chat_messages 表，记录一轮完整的问答。
// 记录只追加不修改，按 created_at 倒序读取构建滚动历史。
type ChatMessage struct {
	MessageID string    `gorm:"type:varchar(160);primaryKey;column:message_id" json:"messageId"`
	UserID    string    `gorm:"type:varchar(64);not null;index:idx_chat_user_tenant" json:"userId"`
	TenantID  string    `gorm:"type:varchar(64);not null;index:idx_chat_user_tenant" json:"tenantId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Response  string    `gorm:"type:text;not null" json:"response"`
	Metadata  string    `gorm:"type:text" json:"metadata"` // relevantDocuments 引用列表的 JSON
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_user_tenant" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Citation 是返回给调用方并持久化到消息元数据中的文档引用。
// 只保留 id、文件名与得分，不落全文，控制存储体积。
type Citation struct {
	DocumentID string  `json:"documentId"`
	FileName   string  `json:"fileName"`
	Score      float64 `json:"score"`
}

// ChatMetadata 是 ChatMessage.Metadata 字段序列化前的结构。
type ChatMetadata struct {
	RelevantDocuments []Citation `json:"relevantDocuments"`
}

// ChatResult 是一轮对话的返回结果。
type ChatResult struct {
	Response  string     `json:"response"`
	Citations []Citation `json:"citations"`
	MessageID string     `json:"messageId"`
}

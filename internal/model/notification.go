package model

import "time"

// 通知类型。
const (
	NotificationTypeInfo  = "info"
	NotificationTypeError = "error"
)

// Notification 对应于数据库中的 notifications 表。
type Notification struct {
	ID        string    `gorm:"type:varchar(80);primaryKey" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;index" json:"userId"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Type      string    `gorm:"type:varchar(16);not null;default:'info'" json:"type"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	Metadata  string    `gorm:"type:text" json:"metadata"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Notification) TableName() string {
	return "notifications"
}

package repository

import (
	"doc-insight-go/internal/model"

	"gorm.io/gorm"
)

// NotificationRepository 定义了对 notifications 表的数据操作接口。
type NotificationRepository interface {
	Create(notification *model.Notification) error
	ListByUser(userID string, limit int) ([]*model.Notification, error)
	MarkRead(id, userID string) error
	ClearByUser(userID string) error
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建一个新的 NotificationRepository 实例。
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *model.Notification) error {
	return r.db.Create(notification).Error
}

func (r *notificationRepository) ListByUser(userID string, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepository) MarkRead(id, userID string) error {
	return r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true).Error
}

func (r *notificationRepository) ClearByUser(userID string) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Notification{}).Error
}

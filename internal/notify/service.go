package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doc-insight-go/internal/model"
	"doc-insight-go/internal/repository"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
)

// dedupTTL 是状态事件去重键的保留时长。
const dedupTTL = 24 * time.Hour

// Service 消费文档状态事件：按 (documentId, status) 去重后落库并推送给在线用户。
// 事件投递为至少一次，去重把它收敛为对用户有效一次。
type Service struct {
	notificationRepo repository.NotificationRepository
	rdb              *redis.Client
	hub              *Hub
}

// NewService 创建一个新的通知消费服务。
func NewService(notificationRepo repository.NotificationRepository, rdb *redis.Client, hub *Hub) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		rdb:              rdb,
		hub:              hub,
	}
}

// Handle 处理一条状态事件。
func (s *Service) Handle(ctx context.Context, event tasks.StatusEvent) error {
	if event.UserID == "" || event.DocumentName == "" || event.Status == "" {
		log.Warnf("[NotifyService] 状态事件缺少必填字段, 忽略: %+v", event)
		return nil
	}

	// 至少一次投递：按 (documentId, status) 去重
	dedupKey := fmt.Sprintf("notify:dedup:%s:%s", event.DocumentID, event.Status)
	fresh, err := s.rdb.SetNX(ctx, dedupKey, 1, dedupTTL).Result()
	if err != nil {
		return fmt.Errorf("通知去重检查失败: %w", err)
	}
	if !fresh {
		log.Infof("[NotifyService] 重复状态事件, 跳过: documentId=%s, status=%s", event.DocumentID, event.Status)
		return nil
	}

	notification := buildNotification(event)
	if err := s.notificationRepo.Create(notification); err != nil {
		return fmt.Errorf("持久化通知记录失败: %w", err)
	}

	s.hub.Push(event.UserID, notification)
	log.Infof("[NotifyService] 已创建通知: userId=%s, documentId=%s, status=%s",
		event.UserID, event.DocumentID, event.Status)
	return nil
}

// buildNotification 根据状态事件构造通知记录。
func buildNotification(event tasks.StatusEvent) *model.Notification {
	title := "文档分析完成"
	message := fmt.Sprintf("文档 \"%s\" 分析已成功完成。", event.DocumentName)
	notifType := model.NotificationTypeInfo
	if event.Status == StatusFailed {
		title = "文档分析失败"
		message = fmt.Sprintf("文档 \"%s\" 分析失败。%s", event.DocumentName, event.Message)
		notifType = model.NotificationTypeError
	}

	metaBytes, _ := json.Marshal(map[string]string{
		"documentId":   event.DocumentID,
		"documentName": event.DocumentName,
		"status":       event.Status,
		"type":         "documentAnalysis",
	})

	return &model.Notification{
		ID:       fmt.Sprintf("%d-%s-%s", time.Now().UnixNano(), event.DocumentID, event.Status),
		UserID:   event.UserID,
		Title:    title,
		Message:  message,
		Type:     notifType,
		Metadata: string(metaBytes),
	}
}

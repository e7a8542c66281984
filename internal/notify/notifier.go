// Package notify 实现了文档状态通知链路：发布端（Notifier）、
// 消费端（Service）与面向用户的 WebSocket 推送通道（Hub）。
package notify

import (
	"context"

	"doc-insight-go/pkg/kafka"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/tasks"
)

// 状态事件的取值。
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Notifier 定义了状态通知的发布接口。投递是 fire-and-forget 的：
// 发布失败只记录日志，绝不让通知旁路拖垮主流程。
type Notifier interface {
	DocumentStatus(ctx context.Context, event tasks.StatusEvent)
}

type kafkaNotifier struct {
	producer *kafka.Producer
}

// NewKafkaNotifier 创建一个基于 Kafka 主题的 Notifier。
func NewKafkaNotifier(producer *kafka.Producer) Notifier {
	return &kafkaNotifier{producer: producer}
}

// DocumentStatus 发布状态事件，失败时记录日志并吞掉错误。
func (n *kafkaNotifier) DocumentStatus(ctx context.Context, event tasks.StatusEvent) {
	if err := n.producer.PublishStatusEvent(ctx, event); err != nil {
		log.Errorf("[Notifier] 发布状态事件失败, documentId: %s, status: %s, error: %v",
			event.DocumentID, event.Status, err)
	}
}

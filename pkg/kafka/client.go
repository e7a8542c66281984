// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
)

// TaskProcessor defines the interface for any service that can process an
// ingestion task. This decouples the consumer from the pipeline implementation.
type TaskProcessor interface {
	Process(ctx context.Context, task tasks.IngestionTask) error
}

// StatusEventHandler 处理文档状态变更事件（通知消费侧）。
type StatusEventHandler interface {
	Handle(ctx context.Context, event tasks.StatusEvent) error
}

// Producer 持有摄取与通知两个主题的写入器，进程启动时构造并注入使用方。
type Producer struct {
	ingestionWriter    *kafka.Writer
	notificationWriter *kafka.Writer
}

// NewProducer 初始化 Kafka 生产者。
func NewProducer(cfg config.KafkaConfig) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	log.Info("Kafka 生产者初始化成功")
	return &Producer{
		ingestionWriter:    newWriter(cfg.IngestionTopic),
		notificationWriter: newWriter(cfg.NotificationTopic),
	}
}

// ProduceIngestionTask 发送一个文档处理任务，按 documentId 作为消息键。
func (p *Producer) ProduceIngestionTask(ctx context.Context, task tasks.IngestionTask) error {
	taskBytes, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return p.ingestionWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(task.DocumentID),
		Value: taskBytes,
	})
}

// PublishStatusEvent 发送一条状态变更事件。
func (p *Producer) PublishStatusEvent(ctx context.Context, event tasks.StatusEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.notificationWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.DocumentID),
		Value: eventBytes,
	})
}

// Close 关闭全部写入器。
func (p *Producer) Close() error {
	if err := p.ingestionWriter.Close(); err != nil {
		return err
	}
	return p.notificationWriter.Close()
}

// StartIngestionConsumer 启动消费者处理文档摄取任务。
// 处理失败时不提交 offset 让 Kafka 重投，用 Redis 计数失败次数，
// 连续失败 3 次后提交 offset 终止重试；管道自身的幂等性保证重投安全。
func StartIngestionConsumer(cfg config.KafkaConfig, processor TaskProcessor, rdb *redis.Client) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.IngestionTopic,
		GroupID:  "doc-insight-ingestion",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	log.Infof("Kafka 摄取消费者已启动，正在监听主题 '%s'", cfg.IngestionTopic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取消息失败", err)
			break
		}

		var task tasks.IngestionTask
		if err := json.Unmarshal(m.Value, &task); err != nil {
			log.Errorf("无法解析摄取任务消息: %v, value: %s", err, string(m.Value))
			// 消息格式错误，直接提交，避免阻塞队列
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交错误消息失败: %v", err)
			}
			continue
		}

		log.Infof("开始处理摄取任务: documentId=%s, fileName=%s", task.DocumentID, task.FileName)
		if err := processor.Process(context.Background(), task); err != nil {
			log.Errorf("摄取任务处理失败: documentId=%s, error: %v", task.DocumentID, err)
			attemptsKey := fmt.Sprintf("ingestion:attempts:%s", task.DocumentID)
			attempts, incErr := rdb.Incr(context.Background(), attemptsKey).Result()
			if incErr != nil {
				// Redis 异常时保守处理：不提交 offset，让 Kafka 重试
				continue
			}
			_ = rdb.Expire(context.Background(), attemptsKey, 24*time.Hour).Err()
			if attempts >= 3 {
				log.Errorf("摄取任务多次失败(>=3)，提交 offset 终止重试: documentId=%s", task.DocumentID)
				if err := r.CommitMessages(context.Background(), m); err != nil {
					log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
				}
			}
		} else {
			log.Infof("摄取任务处理成功: documentId=%s", task.DocumentID)
			_ = rdb.Del(context.Background(), fmt.Sprintf("ingestion:attempts:%s", task.DocumentID)).Err()
			if err := r.CommitMessages(context.Background(), m); err != nil {
				log.Errorf("提交 Kafka 消息 offset 失败: %v", err)
			}
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 摄取消费者失败: %v", err)
	}
}

// StartNotificationConsumer 启动消费者处理状态变更事件。
// 事件投递为至少一次，去重由 handler 负责；handler 失败只记录日志并提交，
// 通知属于尽力而为的旁路，不重投。
func StartNotificationConsumer(cfg config.KafkaConfig, handler StatusEventHandler) {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{cfg.Brokers},
		Topic:    cfg.NotificationTopic,
		GroupID:  "doc-insight-notifications",
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	log.Infof("Kafka 通知消费者已启动，正在监听主题 '%s'", cfg.NotificationTopic)

	for {
		m, err := r.FetchMessage(context.Background())
		if err != nil {
			log.Error("从 Kafka 读取通知消息失败", err)
			break
		}

		var event tasks.StatusEvent
		if err := json.Unmarshal(m.Value, &event); err != nil {
			log.Errorf("无法解析状态事件消息: %v, value: %s", err, string(m.Value))
		} else if err := handler.Handle(context.Background(), event); err != nil {
			log.Errorf("处理状态事件失败: documentId=%s, error: %v", event.DocumentID, err)
		}

		if err := r.CommitMessages(context.Background(), m); err != nil {
			log.Errorf("提交 Kafka 通知消息 offset 失败: %v", err)
		}
	}

	if err := r.Close(); err != nil {
		log.Fatalf("关闭 Kafka 通知消费者失败: %v", err)
	}
}

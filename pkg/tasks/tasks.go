// Package tasks defines the payload structures carried over Kafka.
package tasks

// IngestionTask 是上传事件触发的文档处理任务。
// 字段缺失属于校验错误，任务不会进入处理管道。
type IngestionTask struct {
	DocumentID string `json:"document_id"`
	TenantID   string `json:"tenant_id"`
	UserID     string `json:"user_id"`
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	FileSize   int64  `json:"file_size"`
	StorageKey string `json:"storage_key"`
}

// StatusEvent 是文档处理状态变更通知。投递语义为至少一次，
// 消费方需按 (document_id, status) 去重。
type StatusEvent struct {
	DocumentID   string `json:"document_id"`
	UserID       string `json:"user_id"`
	DocumentName string `json:"document_name"`
	Status       string `json:"status"` // "completed" | "failed"
	Message      string `json:"message"`
}

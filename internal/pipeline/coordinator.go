// Package pipeline 定义了文档摄取的核心流程。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"doc-insight-go/internal/model"
	"doc-insight-go/internal/notify"
	"doc-insight-go/internal/repository"
	"doc-insight-go/pkg/embedding"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/ocr"
	"doc-insight-go/pkg/search"
	"doc-insight-go/pkg/tasks"
)

// Coordinator 封装了文档摄取的所有依赖和状态机逻辑。
// 每次调用按 PENDING → PROCESSING → {COMPLETED | ERROR} 推进文档状态，
// 各阶段的持久化均为覆盖写，重新调用同一 documentId 是安全的。
type Coordinator struct {
	extractor       ocr.Extractor
	embeddingClient embedding.Client
	searchClient    search.Client
	docRepo         repository.DocumentRepository
	analysisRepo    repository.AnalysisRepository
	notifier        notify.Notifier
}

// NewCoordinator 创建一个新的 Coordinator 实例。
func NewCoordinator(
	extractor ocr.Extractor,
	embeddingClient embedding.Client,
	searchClient search.Client,
	docRepo repository.DocumentRepository,
	analysisRepo repository.AnalysisRepository,
	notifier notify.Notifier,
) *Coordinator {
	return &Coordinator{
		extractor:       extractor,
		embeddingClient: embeddingClient,
		searchClient:    searchClient,
		docRepo:         docRepo,
		analysisRepo:    analysisRepo,
		notifier:        notifier,
	}
}

// analysisMetadata 是 Analysis.Metadata 字段序列化前的结构。
type analysisMetadata struct {
	Blocks    []ocr.Block `json:"blocks"`
	ElapsedMS int64       `json:"elapsedMs"`
}

// Process 是文档摄取的主函数。
func (c *Coordinator) Process(ctx context.Context, task tasks.IngestionTask) error {
	if err := validateTask(task); err != nil {
		return err
	}
	log.Infof("[Coordinator] 开始处理文档, documentId: %s, fileName: %s", task.DocumentID, task.FileName)

	// 1. 持久化文档记录（PENDING），随后立即置为 PROCESSING。
	// PROCESSING 写入后进程崩溃会留下可被外部发现的"卡在处理中"记录，
	// 而不是静默丢失。
	doc := &model.Document{
		DocumentID: task.DocumentID,
		TenantID:   task.TenantID,
		UserID:     task.UserID,
		FileName:   task.FileName,
		FileType:   task.FileType,
		FileSize:   task.FileSize,
		StorageKey: task.StorageKey,
	}
	if err := c.docRepo.Ensure(doc); err != nil {
		return fmt.Errorf("持久化文档记录失败: %w", err)
	}
	if err := c.docRepo.UpdateStatus(task.DocumentID, model.StatusProcessing); err != nil {
		return fmt.Errorf("更新文档状态为 PROCESSING 失败: %w", err)
	}

	// 2. 提取文本
	log.Infof("[Coordinator] 步骤2: 提交异步提取任务, storageKey: %s", task.StorageKey)
	result, err := c.extractor.Extract(ctx, task.StorageKey)
	if err != nil {
		return c.fail(ctx, task, fmt.Errorf("%w: %v", ErrExtractionFailed, err))
	}
	log.Infof("[Coordinator] 步骤2: 提取完成, 文本长度: %d", len(result.Text))

	// 持久化提取阶段的分析记录（同键覆盖，重新摄取幂等）
	metaBytes, err := json.Marshal(analysisMetadata{
		Blocks:    result.Blocks,
		ElapsedMS: result.Elapsed.Milliseconds(),
	})
	if err != nil {
		return c.fail(ctx, task, fmt.Errorf("序列化分析元数据失败: %w", err))
	}
	analysis := &model.Analysis{
		AnalysisID:   task.DocumentID + "-ocr",
		DocumentID:   task.DocumentID,
		AnalysisType: model.AnalysisTypeOCR,
		Content:      result.Text,
		Metadata:     string(metaBytes),
	}
	if err := c.analysisRepo.Upsert(analysis); err != nil {
		return c.fail(ctx, task, fmt.Errorf("持久化分析记录失败: %w", err))
	}

	// 3. 向量化
	log.Info("[Coordinator] 步骤3: 向量化提取文本")
	vector, err := c.embeddingClient.CreateEmbedding(ctx, result.Text)
	if err != nil {
		return c.fail(ctx, task, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err))
	}
	log.Infof("[Coordinator] 步骤3: 向量化成功, 维度: %d", len(vector))

	// 4. 覆盖写入向量索引
	log.Info("[Coordinator] 步骤4: 写入向量索引")
	entry := &model.VectorEntry{
		DocumentID: task.DocumentID,
		TenantID:   task.TenantID,
		UserID:     task.UserID,
		FileName:   task.FileName,
		Text:       result.Text,
		Embedding:  vector,
	}
	if err := c.searchClient.Upsert(ctx, entry); err != nil {
		return c.fail(ctx, task, fmt.Errorf("%w: %v", ErrIndexFailed, err))
	}

	// 5. 置为 COMPLETED 并发送完成通知
	if err := c.docRepo.UpdateStatus(task.DocumentID, model.StatusCompleted); err != nil {
		return c.fail(ctx, task, fmt.Errorf("更新文档状态为 COMPLETED 失败: %w", err))
	}
	c.notifier.DocumentStatus(ctx, tasks.StatusEvent{
		DocumentID:   task.DocumentID,
		UserID:       task.UserID,
		DocumentName: task.FileName,
		Status:       notify.StatusCompleted,
	})

	log.Infof("[Coordinator] 文档处理成功完成, documentId: %s", task.DocumentID)
	return nil
}

// fail 执行错误路径：置文档为 ERROR（失败时重试一次），发送失败通知，
// 并把阶段错误原样返回给调用方。
func (c *Coordinator) fail(ctx context.Context, task tasks.IngestionTask, stageErr error) error {
	log.Errorf("[Coordinator] 文档处理失败, documentId: %s, error: %v", task.DocumentID, stageErr)

	if err := c.docRepo.UpdateStatus(task.DocumentID, model.StatusError); err != nil {
		log.Warnf("[Coordinator] 更新文档状态为 ERROR 失败, 重试一次: %v", err)
		if err := c.docRepo.UpdateStatus(task.DocumentID, model.StatusError); err != nil {
			// 文档可能停留在 PROCESSING，需要外部对账任务修复
			log.Errorf("[Coordinator] 错误路径状态写入再次失败, 文档 %s 状态可能不一致: %v", task.DocumentID, err)
		}
	}

	c.notifier.DocumentStatus(ctx, tasks.StatusEvent{
		DocumentID:   task.DocumentID,
		UserID:       task.UserID,
		DocumentName: task.FileName,
		Status:       notify.StatusFailed,
		Message:      stageErr.Error(),
	})
	return stageErr
}

// validateTask 校验触发载荷的必填字段；校验失败的任务不产生任何持久化。
func validateTask(task tasks.IngestionTask) error {
	switch {
	case task.DocumentID == "":
		return fmt.Errorf("%w: 缺少 documentId", ErrValidation)
	case task.TenantID == "":
		return fmt.Errorf("%w: 缺少 tenantId", ErrValidation)
	case task.UserID == "":
		return fmt.Errorf("%w: 缺少 userId", ErrValidation)
	case task.FileName == "":
		return fmt.Errorf("%w: 缺少 fileName", ErrValidation)
	case task.StorageKey == "":
		return fmt.Errorf("%w: 缺少 storageKey", ErrValidation)
	}
	return nil
}

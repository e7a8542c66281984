package service

import (
	"context"
	"fmt"
	"time"

	"doc-insight-go/internal/model"
	"doc-insight-go/internal/repository"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/search"
	"doc-insight-go/pkg/storage"
)

// uploadURLExpiry 是预签名上传/下载链接的有效期。
const uploadURLExpiry = 5 * time.Minute

// DocumentService 定义了文档管理的操作接口。
type DocumentService interface {
	// GenerateUploadURL 生成预签名上传链接，对象键按 <tenantId>/<documentId> 约定。
	GenerateUploadURL(ctx context.Context, tenantID, documentID string) (uploadURL, storageKey string, err error)
	GenerateDownloadURL(ctx context.Context, documentID string) (string, error)
	GetDocument(documentID string) (*model.Document, error)
	GetAnalyses(documentID string) ([]*model.Analysis, error)
	ListRecent(userID, tenantID string, limit int) ([]*model.Document, error)
	// Delete 删除文档：对象与元数据删除是承载操作；
	// 去索引与分析记录清理是尽力而为的旁路，失败只记录日志。
	Delete(ctx context.Context, documentID string) error
}

type documentService struct {
	docRepo      repository.DocumentRepository
	analysisRepo repository.AnalysisRepository
	blobStore    *storage.Client
	searchClient search.Client
}

// NewDocumentService 创建一个新的 DocumentService 实例。
func NewDocumentService(
	docRepo repository.DocumentRepository,
	analysisRepo repository.AnalysisRepository,
	blobStore *storage.Client,
	searchClient search.Client,
) DocumentService {
	return &documentService{
		docRepo:      docRepo,
		analysisRepo: analysisRepo,
		blobStore:    blobStore,
		searchClient: searchClient,
	}
}

// GenerateUploadURL 生成预签名上传链接。
func (s *documentService) GenerateUploadURL(ctx context.Context, tenantID, documentID string) (string, string, error) {
	storageKey := storage.ObjectKey(tenantID, documentID)
	uploadURL, err := s.blobStore.PresignedUploadURL(ctx, storageKey, uploadURLExpiry)
	if err != nil {
		return "", "", err
	}
	return uploadURL, storageKey, nil
}

// GenerateDownloadURL 生成文档的预签名下载链接。
func (s *documentService) GenerateDownloadURL(ctx context.Context, documentID string) (string, error) {
	doc, err := s.docRepo.FindByID(documentID)
	if err != nil {
		return "", fmt.Errorf("查找文档失败: %w", err)
	}
	return s.blobStore.PresignedDownloadURL(ctx, doc.StorageKey, uploadURLExpiry)
}

// GetDocument 返回文档元数据。
func (s *documentService) GetDocument(documentID string) (*model.Document, error) {
	return s.docRepo.FindByID(documentID)
}

// GetAnalyses 返回文档的分析记录。
func (s *documentService) GetAnalyses(documentID string) ([]*model.Analysis, error) {
	return s.analysisRepo.FindByDocumentID(documentID)
}

// ListRecent 返回用户最近的文档列表。
func (s *documentService) ListRecent(userID, tenantID string, limit int) ([]*model.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.docRepo.ListRecent(userID, tenantID, limit)
}

// Delete 删除文档的对象、元数据，并尽力清理向量索引与分析记录。
func (s *documentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.docRepo.FindByID(documentID)
	if err != nil {
		return fmt.Errorf("查找文档失败: %w", err)
	}

	if err := s.blobStore.DeleteObject(ctx, doc.StorageKey); err != nil {
		return err
	}
	if err := s.docRepo.Delete(documentID); err != nil {
		return fmt.Errorf("删除文档记录失败: %w", err)
	}

	// 旁路清理：失败不影响删除结果
	if err := s.searchClient.Delete(ctx, documentID); err != nil {
		log.Warnf("[DocumentService] 删除向量条目失败 (documentId=%s): %v", documentID, err)
	}
	if err := s.analysisRepo.DeleteByDocumentID(documentID); err != nil {
		log.Warnf("[DocumentService] 清理分析记录失败 (documentId=%s): %v", documentID, err)
	}

	log.Infof("[DocumentService] 文档删除完成, documentId: %s", documentID)
	return nil
}

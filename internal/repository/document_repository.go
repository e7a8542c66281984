// Package repository 提供了数据访问层的实现。
package repository

import (
	"time"

	"doc-insight-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentRepository 定义了对 documents 表的数据操作接口。
type DocumentRepository interface {
	// Ensure 确保文档记录存在且处于 PENDING：不存在则创建，
	// 已存在则重置状态（重新摄取开启新一轮处理）。
	Ensure(doc *model.Document) error
	// UpdateStatus 按主键条件更新状态并刷新 updated_at。
	UpdateStatus(documentID, status string) error
	FindByID(documentID string) (*model.Document, error)
	ListRecent(userID, tenantID string, limit int) ([]*model.Document, error)
	Delete(documentID string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Ensure 创建或重置文档记录为 PENDING。
func (r *documentRepository) Ensure(doc *model.Document) error {
	doc.Status = model.StatusPending
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tenant_id", "user_id", "file_name", "file_type", "file_size", "storage_key", "status", "updated_at",
		}),
	}).Create(doc).Error
}

// UpdateStatus 按主键更新状态。
func (r *documentRepository) UpdateStatus(documentID, status string) error {
	return r.db.Model(&model.Document{}).
		Where("document_id = ?", documentID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// FindByID 按主键查找文档。
func (r *documentRepository) FindByID(documentID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("document_id = ?", documentID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListRecent 返回指定用户与租户下按创建时间倒序的文档列表。
func (r *documentRepository) ListRecent(userID, tenantID string, limit int) ([]*model.Document, error) {
	var docs []*model.Document
	err := r.db.Where("user_id = ? AND tenant_id = ?", userID, tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

// Delete 按主键删除文档记录。
func (r *documentRepository) Delete(documentID string) error {
	return r.db.Where("document_id = ?", documentID).Delete(&model.Document{}).Error
}

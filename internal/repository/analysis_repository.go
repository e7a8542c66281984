package repository

import (
	"doc-insight-go/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AnalysisRepository 定义了对 analyses 表的数据操作接口。
type AnalysisRepository interface {
	// Upsert 写入分析记录；同一 (documentId, analysisType) 的主键冲突时覆盖。
	Upsert(analysis *model.Analysis) error
	FindByDocumentID(documentID string) ([]*model.Analysis, error)
	DeleteByDocumentID(documentID string) error
}

type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository 创建一个新的 AnalysisRepository 实例。
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Upsert 覆盖写入分析记录（重新摄取幂等）。
func (r *analysisRepository) Upsert(analysis *model.Analysis) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "analysis_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"document_id", "analysis_type", "content", "metadata",
		}),
	}).Create(analysis).Error
}

// FindByDocumentID 返回文档的全部分析记录。
func (r *analysisRepository) FindByDocumentID(documentID string) ([]*model.Analysis, error) {
	var analyses []*model.Analysis
	err := r.db.Where("document_id = ?", documentID).Find(&analyses).Error
	return analyses, err
}

// DeleteByDocumentID 删除文档的全部分析记录。
func (r *analysisRepository) DeleteByDocumentID(documentID string) error {
	return r.db.Where("document_id = ?", documentID).Delete(&model.Analysis{}).Error
}

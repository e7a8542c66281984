// Package model 包含了应用的数据模型定义。
package model

import "time"

// 文档处理状态。状态只允许 PENDING → PROCESSING → {COMPLETED | ERROR}，
// 终态之后只有重新摄取会开启新一轮处理（复用同一 documentId）。
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusError      = "ERROR"
)

// AnalysisTypeOCR 是文本提取阶段产出的分析记录类型。
const AnalysisTypeOCR = "OCR"

// Document 对应于数据库中的 documents 表，记录每个上传文档的元数据与处理状态。
type Document struct {
	DocumentID string    `gorm:"type:varchar(64);primaryKey;column:document_id" json:"documentId"`
	TenantID   string    `gorm:"type:varchar(64);not null;index:idx_tenant_user" json:"tenantId"`
	UserID     string    `gorm:"type:varchar(64);not null;index:idx_tenant_user" json:"userId"`
	FileName   string    `gorm:"type:varchar(255);not null" json:"fileName"`
	FileType   string    `gorm:"type:varchar(100)" json:"fileType"`
	FileSize   int64     `gorm:"not null;default:0" json:"fileSize"`
	StorageKey string    `gorm:"type:varchar(512);not null" json:"storageKey"`
	Status     string    `gorm:"type:varchar(16);not null;default:'PENDING'" json:"status"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// Analysis 对应于数据库中的 analyses 表。
// 每个 (documentId, analysisType) 至多一条记录，重新摄取时覆盖写入。
type Analysis struct {
	AnalysisID   string    `gorm:"type:varchar(80);primaryKey;column:analysis_id" json:"analysisId"`
	DocumentID   string    `gorm:"type:varchar(64);not null;index" json:"documentId"`
	AnalysisType string    `gorm:"type:varchar(32);not null" json:"analysisType"`
	Content      string    `gorm:"type:longtext" json:"content"`
	Metadata     string    `gorm:"type:longtext" json:"metadata"` // 原始结构化输出与阶段耗时的 JSON
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Analysis) TableName() string {
	return "analyses"
}

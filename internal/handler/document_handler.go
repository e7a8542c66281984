// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"

	"doc-insight-go/internal/service"
	"doc-insight-go/pkg/kafka"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/tasks"

	"github.com/gin-gonic/gin"
)

// DocumentHandler 负责处理所有与文档管理相关的 API 请求。
type DocumentHandler struct {
	docService service.DocumentService
	producer   *kafka.Producer
}

// NewDocumentHandler 创建一个新的 DocumentHandler 实例。
func NewDocumentHandler(docService service.DocumentService, producer *kafka.Producer) *DocumentHandler {
	return &DocumentHandler{
		docService: docService,
		producer:   producer,
	}
}

type uploadURLRequest struct {
	TenantID   string `json:"tenantId" binding:"required"`
	DocumentID string `json:"documentId" binding:"required"`
}

// GenerateUploadURL 处理生成预签名上传链接的请求。
func (h *DocumentHandler) GenerateUploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必填字段"})
		return
	}

	uploadURL, storageKey, err := h.docService.GenerateUploadURL(c.Request.Context(), req.TenantID, req.DocumentID)
	if err != nil {
		log.Error("GenerateUploadURL: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成上传链接失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code": http.StatusOK,
		"data": gin.H{"uploadUrl": uploadURL, "storageKey": storageKey},
	})
}

type analyzeRequest struct {
	DocumentID string `json:"documentId" binding:"required"`
	TenantID   string `json:"tenantId" binding:"required"`
	UserID     string `json:"userId" binding:"required"`
	FileName   string `json:"fileName" binding:"required"`
	FileType   string `json:"fileType"`
	FileSize   int64  `json:"fileSize"`
	StorageKey string `json:"storageKey" binding:"required"`
}

// Analyze 处理文档分析触发请求：校验后投递摄取任务，异步处理。
func (h *DocumentHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warnf("[DocumentHandler] 分析请求缺少必填字段: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必填字段"})
		return
	}

	task := tasks.IngestionTask{
		DocumentID: req.DocumentID,
		TenantID:   req.TenantID,
		UserID:     req.UserID,
		FileName:   req.FileName,
		FileType:   req.FileType,
		FileSize:   req.FileSize,
		StorageKey: req.StorageKey,
	}
	if err := h.producer.ProduceIngestionTask(c.Request.Context(), task); err != nil {
		log.Error("Analyze: 投递摄取任务失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "提交分析任务失败"})
		return
	}

	log.Infof("[DocumentHandler] 已提交分析任务, documentId: %s", req.DocumentID)
	c.JSON(http.StatusAccepted, gin.H{
		"code":    http.StatusAccepted,
		"message": "分析任务已提交",
		"data":    gin.H{"documentId": req.DocumentID},
	})
}

// GetDocument 处理获取文档元数据的请求。
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	documentID := c.Param("documentId")
	doc, err := h.docService.GetDocument(documentID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "文档不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": doc})
}

// GetAnalyses 处理获取文档分析记录的请求。
func (h *DocumentHandler) GetAnalyses(c *gin.Context) {
	documentID := c.Param("documentId")
	analyses, err := h.docService.GetAnalyses(documentID)
	if err != nil {
		log.Error("GetAnalyses: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取分析记录失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": analyses})
}

// ListDocuments 处理获取用户最近文档列表的请求。
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	userID := c.Query("userId")
	tenantID := c.Query("tenantId")
	if userID == "" || tenantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 userId 或 tenantId"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	docs, err := h.docService.ListRecent(userID, tenantID, limit)
	if err != nil {
		log.Error("ListDocuments: failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取文档列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": docs})
}

// GenerateDownloadURL 处理生成文件下载链接的请求。
func (h *DocumentHandler) GenerateDownloadURL(c *gin.Context) {
	documentID := c.Param("documentId")
	downloadURL, err := h.docService.GenerateDownloadURL(c.Request.Context(), documentID)
	if err != nil {
		log.Warnf("GenerateDownloadURL: failed for document %s, err: %v", documentID, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "文档不存在"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "data": gin.H{"downloadUrl": downloadURL}})
}

// DeleteDocument 处理删除文档的请求。
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	documentID := c.Param("documentId")
	if err := h.docService.Delete(c.Request.Context(), documentID); err != nil {
		log.Warnf("DeleteDocument: failed for document %s, err: %v", documentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "文档删除失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": "文档删除成功"})
}

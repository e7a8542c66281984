package model

// VectorEntry 代表存储在 Elasticsearch 向量索引中的文档结构。
// 每个 documentId 只有一条生效记录，重新摄取时按文档 id 覆盖写入。
type VectorEntry struct {
	DocumentID string    `json:"document_id"`
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	FileName   string    `json:"file_name"` // 冗余文件名，避免检索后回表
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// SearchResult 是向量检索返回的单条结果。
// Score 为余弦相似度平移到正区间后的值（cosineSimilarity + 1.0）。
type SearchResult struct {
	DocumentID string  `json:"documentId"`
	FileName   string  `json:"fileName"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

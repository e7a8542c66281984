// Package search 提供了基于 Elasticsearch 的向量索引客户端。
// 客户端在进程启动时显式构造并注入使用方，不做惰性全局初始化。
package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// DefaultLimit 是相似检索的默认返回条数。
const DefaultLimit = 5

// Client 定义了向量索引的操作接口。
// Upsert 与 Query 属于承载链路，错误必须向上传播；
// Delete 由删除路径按尽力而为处理（记录日志后继续）。
type Client interface {
	Upsert(ctx context.Context, entry *model.VectorEntry) error
	Query(ctx context.Context, vector []float32, tenantID, userID string, limit int) ([]model.SearchResult, error)
	Delete(ctx context.Context, documentID string) error
}

type esIndexClient struct {
	es        *elasticsearch.Client
	indexName string
}

// NewClient 构造 Elasticsearch 向量索引客户端，并在索引不存在时按配置的
// 向量维度创建映射。
func NewClient(cfg config.ElasticsearchConfig, dims int) (Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Addresses},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, err
	}

	c := &esIndexClient{es: es, indexName: cfg.IndexName}
	if err := c.createIndexIfNotExists(dims); err != nil {
		return nil, err
	}
	return c, nil
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它。
func (c *esIndexClient) createIndexIfNotExists(dims int) error {
	res, err := c.es.Indices.Exists([]string{c.indexName})
	if err != nil {
		return fmt.Errorf("检查索引是否存在时出错: %w", err)
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", c.indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"document_id": { "type": "keyword" },
				"tenant_id":   { "type": "keyword" },
				"user_id":     { "type": "keyword" },
				"file_name":   { "type": "keyword" },
				"text":        { "type": "text" },
				"embedding": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`, dims)

	res, err = c.es.Indices.Create(
		c.indexName,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", c.indexName, err)
	}
	if res.IsError() {
		return fmt.Errorf("创建索引时 Elasticsearch 返回错误: %s", res.String())
	}

	log.Infof("索引 '%s' 创建成功", c.indexName)
	return nil
}

// Upsert 以 documentId 为文档 id 覆盖写入向量条目。
// 索引期的覆盖写保证每个文档只有一条生效记录，且不存在删后写入的查询空窗。
func (c *esIndexClient) Upsert(ctx context.Context, entry *model.VectorEntry) error {
	docBytes, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("序列化向量条目失败: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      c.indexName,
		DocumentID: entry.DocumentID,
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("索引向量条目失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("索引向量条目时 Elasticsearch 返回错误: %s", res.String())
	}
	return nil
}

// Query 执行 script_score 余弦相似检索，结果限定在请求方的租户与用户内，
// 即使查询向量与其他租户文档高度相似也不会跨租户泄露。
func (c *esIndexClient) Query(ctx context.Context, vector []float32, tenantID, userID string, limit int) ([]model.SearchResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	esQuery := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"script_score": map[string]interface{}{
							"query": map[string]interface{}{"match_all": map[string]interface{}{}},
							"script": map[string]interface{}{
								"source": "cosineSimilarity(params.query_vector, 'embedding') + 1.0",
								"params": map[string]interface{}{"query_vector": vector},
							},
						},
					},
					{"term": map[string]interface{}{"tenant_id": tenantID}},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"user_id": userID}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("序列化检索请求失败: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.indexName),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("向量检索时 Elasticsearch 返回错误: %s", res.String())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.VectorEntry `json:"_source"`
				Score  float64           `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("解析检索响应失败: %w", err)
	}

	results := make([]model.SearchResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.SearchResult{
			DocumentID: hit.Source.DocumentID,
			FileName:   hit.Source.FileName,
			Text:       hit.Source.Text,
			Score:      hit.Score,
		})
	}
	return results, nil
}

// Delete 按 documentId 删除向量条目，条目不存在视为成功。
func (c *esIndexClient) Delete(ctx context.Context, documentID string) error {
	req := esapi.DeleteRequest{
		Index:      c.indexName,
		DocumentID: documentID,
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.es)
	if err != nil {
		return fmt.Errorf("删除向量条目失败: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("删除向量条目时 Elasticsearch 返回错误: %s", res.String())
	}
	return nil
}

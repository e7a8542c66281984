// Package ocr 提供了一个与异步文本提取（OCR）服务交互的客户端。
// 任务提交后通过轮询获取终态（SUCCEEDED / FAILED），成功后把
// 结构化输出压平为纯文本。
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/pkg/log"
)

// 提取任务的状态值。
const (
	JobInProgress = "IN_PROGRESS"
	JobSucceeded  = "SUCCEEDED"
	JobFailed     = "FAILED"
)

// Block 是提取结果中的单个结构化节点。
type Block struct {
	BlockType string `json:"block_type"`
	Text      string `json:"text"`
}

// Result 是一次成功提取的产物：压平后的纯文本与原始结构化输出。
type Result struct {
	Text    string
	Blocks  []Block
	Elapsed time.Duration
}

// Extractor 定义了文本提取客户端的接口。
type Extractor interface {
	Extract(ctx context.Context, storageKey string) (*Result, error)
}

// Client 是异步提取服务的 HTTP 客户端。
type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
}

// NewClient 创建一个新的提取客户端实例。
func NewClient(cfg config.OCRConfig) *Client {
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		pollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
		maxWait:      time.Duration(cfg.MaxWaitSeconds) * time.Second,
		httpClient:   &http.Client{},
	}
}

type submitRequest struct {
	StorageKey string `json:"storage_key"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type jobResponse struct {
	Status        string  `json:"status"`
	StatusMessage string  `json:"status_message"`
	Blocks        []Block `json:"blocks"`
}

// Extract 提交提取任务并轮询直到终态，成功后返回压平文本与原始块。
// 轮询总时长受 maxWait 限制，避免异常任务无限占用 worker。
func (c *Client) Extract(ctx context.Context, storageKey string) (*Result, error) {
	started := time.Now()

	jobID, err := c.submitJob(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	log.Infof("[OCRClient] 提取任务已提交, jobID: %s, storageKey: %s", jobID, storageKey)

	pollCtx, cancel := context.WithTimeout(ctx, c.maxWait)
	defer cancel()

	for {
		select {
		case <-pollCtx.Done():
			return nil, fmt.Errorf("等待提取任务 %s 超时: %w", jobID, pollCtx.Err())
		case <-time.After(c.pollInterval):
		}

		job, err := c.getJob(pollCtx, jobID)
		if err != nil {
			return nil, err
		}

		switch job.Status {
		case JobSucceeded:
			text := FlattenBlocks(job.Blocks)
			log.Infof("[OCRClient] 提取任务完成, jobID: %s, 文本长度: %d, 耗时: %s",
				jobID, len(text), time.Since(started))
			return &Result{Text: text, Blocks: job.Blocks, Elapsed: time.Since(started)}, nil
		case JobFailed:
			return nil, fmt.Errorf("提取任务失败: %s", job.StatusMessage)
		default:
			// 非终态，继续轮询
		}
	}
}

// submitJob 提交异步提取任务，返回不透明的任务 ID。
func (c *Client) submitJob(ctx context.Context, storageKey string) (string, error) {
	reqBytes, err := json.Marshal(submitRequest{StorageKey: storageKey})
	if err != nil {
		return "", fmt.Errorf("序列化提取请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("创建提取请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("调用提取服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("提取服务返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	var submitResp submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("解析提取服务响应失败: %w", err)
	}
	if submitResp.JobID == "" {
		return "", fmt.Errorf("提取服务未返回任务 ID")
	}
	return submitResp.JobID, nil
}

// getJob 查询提取任务当前状态。
func (c *Client) getJob(ctx context.Context, jobID string) (*jobResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("创建任务查询请求失败: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("查询提取任务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("提取服务返回错误 [%d]: %s", resp.StatusCode, string(body))
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("解析任务状态失败: %w", err)
	}
	return &job, nil
}

// FlattenBlocks 按文档顺序拼接 LINE 级文本节点，单空格分隔并去除首尾空白。
func FlattenBlocks(blocks []Block) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.BlockType != "LINE" {
			continue
		}
		sb.WriteString(block.Text)
		sb.WriteString(" ")
	}
	return strings.TrimSpace(sb.String())
}

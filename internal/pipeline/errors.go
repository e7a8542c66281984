package pipeline

import "errors"

// 管道错误分类。承载链路上的错误中止剩余阶段并向调用方与通知链路传播；
// 尽力而为的旁路（删除时去索引、通知投递本身）只记录日志。
var (
	// ErrValidation 表示触发载荷缺失必填字段，任务未开始处理。
	ErrValidation = errors.New("摄取请求校验失败")
	// ErrExtractionFailed 表示提取服务报告任务失败或轮询超时。
	ErrExtractionFailed = errors.New("文本提取失败")
	// ErrEmbeddingFailed 表示向量化调用失败。
	ErrEmbeddingFailed = errors.New("向量化失败")
	// ErrIndexFailed 表示向量索引写入失败（摄取链路上为承载错误）。
	ErrIndexFailed = errors.New("向量索引写入失败")
)

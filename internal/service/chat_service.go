// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/model"
	"doc-insight-go/internal/repository"
	"doc-insight-go/pkg/embedding"
	"doc-insight-go/pkg/llm"
	"doc-insight-go/pkg/log"
	"doc-insight-go/pkg/search"
)

// defaultNoResultText 是检索为空时注入上下文的字面量。
const defaultNoResultText = "No relevant documents found."

// defaultPersona 是系统提示中的固定人设。
const defaultPersona = "You are an AI assistant that helps users analyze and understand their documents."

// ChatService 定义了检索增强对话的操作接口。
type ChatService interface {
	// Chat 执行一轮完整的 RAG 对话：检索 → 组装上下文 → 生成 → 持久化。
	// 任一承载步骤失败都中止本轮，不留下半条聊天记录；检索为空不是错误。
	Chat(ctx context.Context, userID, tenantID, message string) (*model.ChatResult, error)
	// History 返回最近的聊天记录，按时间倒序。
	History(userID, tenantID string, limit int) ([]*model.ChatMessage, error)
}

type chatService struct {
	embeddingClient embedding.Client
	searchClient    search.Client
	llmClient       llm.Client
	chatRepo        repository.ChatMessageRepository
	chatCfg         config.ChatConfig
	promptCfg       config.LLMPromptConfig
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(
	embeddingClient embedding.Client,
	searchClient search.Client,
	llmClient llm.Client,
	chatRepo repository.ChatMessageRepository,
	chatCfg config.ChatConfig,
	promptCfg config.LLMPromptConfig,
) ChatService {
	return &chatService{
		embeddingClient: embeddingClient,
		searchClient:    searchClient,
		llmClient:       llmClient,
		chatRepo:        chatRepo,
		chatCfg:         chatCfg,
		promptCfg:       promptCfg,
	}
}

// Chat 协调一轮检索增强对话。
func (s *chatService) Chat(ctx context.Context, userID, tenantID, message string) (*model.ChatResult, error) {
	log.Infof("[ChatService] 开始处理对话, userId: %s, tenantId: %s", userID, tenantID)

	// 1. 加载最近的对话历史（倒序取回后恢复时间正序），作为模型的会话记忆
	history, err := s.chatRepo.Recent(userID, tenantID, s.chatCfg.HistoryWindow)
	if err != nil {
		log.Errorf("[ChatService] 加载对话历史失败: %v", err)
		history = nil
	}

	// 2. 向量化当前问题
	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("向量化查询失败: %w", err)
	}

	// 3. 在请求方租户与用户范围内检索 top-K 相关文档
	results, err := s.searchClient.Query(ctx, queryVector, tenantID, userID, s.chatCfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("检索相关文档失败: %w", err)
	}
	log.Infof("[ChatService] 检索到 %d 条相关文档", len(results))

	// 4. 组装上下文与消息序列并调用生成接口
	contextText := s.buildContextText(results)
	messages := s.composeMessages(contextText, history, message)
	response, err := s.llmClient.ChatCompletion(ctx, messages, nil)
	if err != nil {
		return nil, fmt.Errorf("生成回答失败: %w", err)
	}

	// 5. 持久化本轮问答（引用只保留 id/文件名/得分）
	citations := make([]model.Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, model.Citation{
			DocumentID: r.DocumentID,
			FileName:   r.FileName,
			Score:      r.Score,
		})
	}
	metaBytes, err := json.Marshal(model.ChatMetadata{RelevantDocuments: citations})
	if err != nil {
		return nil, fmt.Errorf("序列化消息元数据失败: %w", err)
	}

	now := time.Now().UTC()
	chatMessage := &model.ChatMessage{
		MessageID: fmt.Sprintf("%s-%s-%s", userID, tenantID, now.Format(time.RFC3339Nano)),
		UserID:    userID,
		TenantID:  tenantID,
		Message:   message,
		Response:  response,
		Metadata:  string(metaBytes),
		CreatedAt: now,
	}
	if err := s.chatRepo.Create(chatMessage); err != nil {
		return nil, fmt.Errorf("持久化聊天记录失败: %w", err)
	}

	log.Infof("[ChatService] 对话处理完成, messageId: %s", chatMessage.MessageID)
	return &model.ChatResult{
		Response:  response,
		Citations: citations,
		MessageID: chatMessage.MessageID,
	}, nil
}

// History 返回最近的聊天记录。
func (s *chatService) History(userID, tenantID string, limit int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = s.chatCfg.HistoryWindow
	}
	return s.chatRepo.Recent(userID, tenantID, limit)
}

// buildContextText 把检索结果组装为上下文块：每个文档一段
// "Document: <文件名>\nContent: <前 N 字符>..."，段落间空行分隔；
// 无检索结果时使用兜底字面量。
func (s *chatService) buildContextText(results []model.SearchResult) string {
	if len(results) == 0 {
		noRes := s.promptCfg.NoResultText
		if noRes == "" {
			noRes = defaultNoResultText
		}
		return noRes
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		snippet := r.Text
		if runes := []rune(snippet); len(runes) > s.chatCfg.SnippetMaxChars {
			snippet = string(runes[:s.chatCfg.SnippetMaxChars])
		}
		parts = append(parts, fmt.Sprintf("Document: %s\nContent: %s...", r.FileName, snippet))
	}
	return strings.Join(parts, "\n\n")
}

// composeMessages 构造模型消息序列：系统人设+上下文、时间正序的历史轮次、
// 当前用户消息。
func (s *chatService) composeMessages(contextText string, history []*model.ChatMessage, userInput string) []llm.Message {
	persona := s.promptCfg.Persona
	if persona == "" {
		persona = defaultPersona
	}

	var sys strings.Builder
	sys.WriteString(persona)
	sys.WriteString("\nYou have access to the following context from the user's documents:\n")
	sys.WriteString(contextText)
	sys.WriteString("\n\nUse this context to provide accurate and helpful responses to the user's questions.\n")
	sys.WriteString("If the context doesn't contain relevant information, say so and ask for clarification.\n")
	sys.WriteString("Be concise, accurate, and helpful.")

	messages := make([]llm.Message, 0, len(history)*2+2)
	messages = append(messages, llm.Message{Role: "system", Content: sys.String()})
	// Recent 返回倒序，这里倒着遍历恢复时间正序
	for i := len(history) - 1; i >= 0; i-- {
		messages = append(messages, llm.Message{Role: "user", Content: history[i].Message})
		messages = append(messages, llm.Message{Role: "assistant", Content: history[i].Response})
	}
	messages = append(messages, llm.Message{Role: "user", Content: userInput})
	return messages
}

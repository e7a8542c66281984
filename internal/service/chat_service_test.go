package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"doc-insight-go/internal/config"
	"doc-insight-go/internal/model"
	"doc-insight-go/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbedder implements embedding.Client for testing.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

// fakeSearchClient implements search.Client for testing.
type fakeSearchClient struct {
	results      []model.SearchResult
	err          error
	lastVector   []float32
	lastTenantID string
	lastUserID   string
	lastLimit    int
}

func (f *fakeSearchClient) Upsert(ctx context.Context, entry *model.VectorEntry) error {
	return nil
}

func (f *fakeSearchClient) Query(ctx context.Context, vector []float32, tenantID, userID string, limit int) ([]model.SearchResult, error) {
	f.lastVector = vector
	f.lastTenantID = tenantID
	f.lastUserID = userID
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeSearchClient) Delete(ctx context.Context, documentID string) error {
	return nil
}

// fakeLLM implements llm.Client for testing.
type fakeLLM struct {
	response     string
	err          error
	lastMessages []llm.Message
}

func (f *fakeLLM) ChatCompletion(ctx context.Context, messages []llm.Message, gen *llm.GenerationParams) (string, error) {
	f.lastMessages = messages
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeChatRepo implements repository.ChatMessageRepository for testing.
type fakeChatRepo struct {
	created   []*model.ChatMessage
	recent    []*model.ChatMessage
	recentErr error
}

func (f *fakeChatRepo) Create(message *model.ChatMessage) error {
	f.created = append(f.created, message)
	return nil
}

func (f *fakeChatRepo) Recent(userID, tenantID string, limit int) ([]*model.ChatMessage, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func testChatConfig() config.ChatConfig {
	return config.ChatConfig{HistoryWindow: 10, TopK: 5, SnippetMaxChars: 1000}
}

func newTestChatService(embedder *fakeEmbedder, searchClient *fakeSearchClient, llmClient *fakeLLM, repo *fakeChatRepo) ChatService {
	return NewChatService(embedder, searchClient, llmClient, repo, testChatConfig(), config.LLMPromptConfig{})
}

func TestChatWithRelevantDocuments(t *testing.T) {
	searchClient := &fakeSearchClient{results: []model.SearchResult{
		{DocumentID: "doc-1", FileName: "invoice.pdf", Text: "Invoice #42 Total: $100", Score: 1.93},
		{DocumentID: "doc-2", FileName: "contract.pdf", Text: "Service agreement terms", Score: 1.71},
	}}
	llmClient := &fakeLLM{response: "The invoice total is $100."}
	repo := &fakeChatRepo{}

	s := newTestChatService(&fakeEmbedder{vector: []float32{0.1}}, searchClient, llmClient, repo)
	result, err := s.Chat(context.Background(), "user-1", "tenant-a", "What is the invoice total?")
	require.NoError(t, err)

	assert.Equal(t, "The invoice total is $100.", result.Response)
	require.Len(t, result.Citations, 2)
	assert.Equal(t, "doc-1", result.Citations[0].DocumentID)
	assert.Equal(t, "invoice.pdf", result.Citations[0].FileName)
	assert.InDelta(t, 1.93, result.Citations[0].Score, 1e-9)

	// 检索限定在请求方的租户与用户内
	assert.Equal(t, "tenant-a", searchClient.lastTenantID)
	assert.Equal(t, "user-1", searchClient.lastUserID)
	assert.Equal(t, 5, searchClient.lastLimit)

	// 系统消息携带文档上下文
	require.NotEmpty(t, llmClient.lastMessages)
	sys := llmClient.lastMessages[0]
	assert.Equal(t, "system", sys.Role)
	assert.Contains(t, sys.Content, "Document: invoice.pdf\nContent: Invoice #42 Total: $100...")
	assert.Contains(t, sys.Content, "Document: contract.pdf")

	// 聊天记录落库，messageId 以 userId-tenantId 开头，引用写入元数据
	require.Len(t, repo.created, 1)
	saved := repo.created[0]
	assert.True(t, strings.HasPrefix(saved.MessageID, "user-1-tenant-a-"))
	assert.Equal(t, result.MessageID, saved.MessageID)

	var meta model.ChatMetadata
	require.NoError(t, json.Unmarshal([]byte(saved.Metadata), &meta))
	require.Len(t, meta.RelevantDocuments, 2)
	assert.Equal(t, "doc-2", meta.RelevantDocuments[1].DocumentID)
}

func TestChatNoRelevantDocumentsFallback(t *testing.T) {
	llmClient := &fakeLLM{response: "I don't have relevant documents."}
	repo := &fakeChatRepo{}

	s := newTestChatService(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearchClient{}, llmClient, repo)
	result, err := s.Chat(context.Background(), "user-1", "tenant-a", "Anything?")
	require.NoError(t, err)

	// 检索为空不是错误：兜底字面量注入上下文，引用为空
	assert.Contains(t, llmClient.lastMessages[0].Content, "No relevant documents found.")
	assert.Empty(t, result.Citations)
	require.Len(t, repo.created, 1)
}

func TestChatSnippetTruncation(t *testing.T) {
	longText := strings.Repeat("年", 1500)
	searchClient := &fakeSearchClient{results: []model.SearchResult{
		{DocumentID: "doc-1", FileName: "long.pdf", Text: longText, Score: 1.5},
	}}
	llmClient := &fakeLLM{response: "ok"}

	s := newTestChatService(&fakeEmbedder{vector: []float32{0.1}}, searchClient, llmClient, &fakeChatRepo{})
	_, err := s.Chat(context.Background(), "user-1", "tenant-a", "q")
	require.NoError(t, err)

	// 上下文按字符截断到 1000 并以 "..." 收尾
	sys := llmClient.lastMessages[0].Content
	want := "Content: " + strings.Repeat("年", 1000) + "..."
	assert.Contains(t, sys, want)
	assert.NotContains(t, sys, strings.Repeat("年", 1001))
}

func TestChatHistoryInChronologicalOrder(t *testing.T) {
	// Recent 返回倒序：最新的在前
	repo := &fakeChatRepo{recent: []*model.ChatMessage{
		{Message: "second question", Response: "second answer"},
		{Message: "first question", Response: "first answer"},
	}}
	llmClient := &fakeLLM{response: "third answer"}

	s := newTestChatService(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearchClient{}, llmClient, repo)
	_, err := s.Chat(context.Background(), "user-1", "tenant-a", "third question")
	require.NoError(t, err)

	msgs := llmClient.lastMessages
	require.Len(t, msgs, 6) // system + 2 轮历史 + 当前问题
	assert.Equal(t, "first question", msgs[1].Content)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "first answer", msgs[2].Content)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "second question", msgs[3].Content)
	assert.Equal(t, "second answer", msgs[4].Content)
	assert.Equal(t, "third question", msgs[5].Content)
}

func TestChatHistoryLoadFailureIsNotFatal(t *testing.T) {
	repo := &fakeChatRepo{recentErr: errors.New("db down")}
	llmClient := &fakeLLM{response: "ok"}

	s := newTestChatService(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearchClient{}, llmClient, repo)
	result, err := s.Chat(context.Background(), "user-1", "tenant-a", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Response)
}

func TestChatEmbeddingFailureAborts(t *testing.T) {
	repo := &fakeChatRepo{}
	s := newTestChatService(&fakeEmbedder{err: errors.New("api down")}, &fakeSearchClient{}, &fakeLLM{}, repo)
	_, err := s.Chat(context.Background(), "user-1", "tenant-a", "q")
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestChatGenerationFailureLeavesNoRecord(t *testing.T) {
	repo := &fakeChatRepo{}
	llmClient := &fakeLLM{err: errors.New("model overloaded")}

	s := newTestChatService(&fakeEmbedder{vector: []float32{0.1}}, &fakeSearchClient{}, llmClient, repo)
	_, err := s.Chat(context.Background(), "user-1", "tenant-a", "q")
	require.Error(t, err)

	// 生成失败中止本轮，不留下半条聊天记录
	assert.Empty(t, repo.created)
}

func TestChatCustomPromptConfig(t *testing.T) {
	llmClient := &fakeLLM{response: "ok"}
	s := NewChatService(
		&fakeEmbedder{vector: []float32{0.1}},
		&fakeSearchClient{},
		llmClient,
		&fakeChatRepo{},
		testChatConfig(),
		config.LLMPromptConfig{Persona: "你是一名财务助理。", NoResultText: "没有找到相关文档。"},
	)
	_, err := s.Chat(context.Background(), "user-1", "tenant-a", "q")
	require.NoError(t, err)

	sys := llmClient.lastMessages[0].Content
	assert.Contains(t, sys, "你是一名财务助理。")
	assert.Contains(t, sys, "没有找到相关文档。")
}

func TestHistoryDefaultsToWindow(t *testing.T) {
	repo := &fakeChatRepo{recent: []*model.ChatMessage{{Message: "q", Response: "a"}}}
	s := newTestChatService(&fakeEmbedder{}, &fakeSearchClient{}, &fakeLLM{}, repo)

	messages, err := s.History("user-1", "tenant-a", 0)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"doc-insight-go/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatService implements service.ChatService for testing.
type fakeChatService struct {
	result      *model.ChatResult
	err         error
	lastUserID  string
	lastTenant  string
	lastMessage string
}

func (f *fakeChatService) Chat(ctx context.Context, userID, tenantID, message string) (*model.ChatResult, error) {
	f.lastUserID = userID
	f.lastTenant = tenantID
	f.lastMessage = message
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeChatService) History(userID, tenantID string, limit int) ([]*model.ChatMessage, error) {
	return []*model.ChatMessage{{MessageID: "m-1", UserID: userID, TenantID: tenantID}}, nil
}

func newChatRouter(svc *fakeChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChatHandler(svc)
	r.POST("/api/v1/chat", h.Chat)
	r.GET("/api/v1/chat/history", h.History)
	return r
}

func TestChatEndpoint(t *testing.T) {
	svc := &fakeChatService{result: &model.ChatResult{
		Response:  "The total is $100.",
		Citations: []model.Citation{{DocumentID: "doc-1", FileName: "invoice.pdf", Score: 1.9}},
		MessageID: "user-1-tenant-a-2026-01-02T03:04:05Z",
	}}
	r := newChatRouter(svc)

	body := `{"userId": "user-1", "tenantId": "tenant-a", "message": "What is the total?"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", svc.lastUserID)
	assert.Equal(t, "tenant-a", svc.lastTenant)
	assert.Equal(t, "What is the total?", svc.lastMessage)
	assert.Contains(t, w.Body.String(), "The total is $100.")
	assert.Contains(t, w.Body.String(), "invoice.pdf")
}

func TestChatEndpointValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing userId", `{"tenantId": "tenant-a", "message": "q"}`},
		{"missing tenantId", `{"userId": "user-1", "message": "q"}`},
		{"missing message", `{"userId": "user-1", "tenantId": "tenant-a"}`},
		{"malformed json", `{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeChatService{}
			r := newChatRouter(svc)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			// 校验失败返回 400，不触达业务层
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, svc.lastUserID)
		})
	}
}

func TestChatEndpointServiceError(t *testing.T) {
	svc := &fakeChatService{err: errors.New("model overloaded")}
	r := newChatRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat",
		strings.NewReader(`{"userId": "user-1", "tenantId": "tenant-a", "message": "q"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestChatHistoryEndpoint(t *testing.T) {
	r := newChatRouter(&fakeChatService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?userId=user-1&tenantId=tenant-a", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "m-1")

	// 缺少身份参数直接 400
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/chat/history?userId=user-1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"invoicing-agent-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatWithToolsParsesToolCalls(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"model":"llama3.1","done":true,"message":{"role":"assistant","content":"","tool_calls":[{"function":{"name":"selectCustomer","arguments":{"customerId":7}}}]}}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.1")
	history := []llm.Message{
		{Role: llm.RoleUser, Content: "bill acme"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "a", Name: "lookupCustomer", Arguments: json.RawMessage(`{"query":"acme"}`)}}},
		{Role: llm.RoleTool, Content: `{"found":true}`, ToolName: "lookupCustomer", ToolCallID: "a"},
	}
	tools := []llm.ToolDefinition{{Name: "selectCustomer", Description: "pick", Parameters: map[string]interface{}{"type": "object"}}}

	resp, err := p.ChatWithTools(context.Background(), history, tools, llm.WithTemperature(0.5), llm.WithMaxTokens(256))
	require.NoError(t, err)

	require.NotNil(t, got.Options)
	assert.Equal(t, 0.5, got.Options.Temperature)
	assert.Equal(t, 256, got.Options.NumPredict)

	require.Len(t, got.Tools, 1)
	assert.Equal(t, "function", got.Tools[0].Type)
	assert.Equal(t, "selectCustomer", got.Tools[0].Function.Name)
	assert.False(t, got.Stream)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "lookupCustomer", got.Messages[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "lookupCustomer", got.Messages[2].ToolName)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "selectCustomer", resp.ToolCalls[0].Name)
	assert.NotEmpty(t, resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"customerId":7}`, string(resp.ToolCalls[0].Arguments))
}

func TestChatReturnsErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "missing").ChatWithTools(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "hi"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

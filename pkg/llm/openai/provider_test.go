package openai

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

func TestChatWithToolsEncodesArgumentsAsString(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"addInvoiceItem","arguments":"{\"description\":\"Design\",\"quantity\":1,\"unitPrice\":500}"}}]}}]}`))
	}))
	defer srv.Close()

	p := NewProvider("secret", srv.URL, "gpt-test")
	history := []llm.Message{
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "call_0", Name: "countClients", Arguments: json.RawMessage(`{}`)}}},
		{Role: llm.RoleTool, ToolCallID: "call_0", Content: `{"count":1}`},
	}

	resp, err := p.ChatWithTools(context.Background(), history, []llm.ToolDefinition{{Name: "addInvoiceItem"}}, llm.WithMaxTokens(64))
	require.NoError(t, err)

	assert.Equal(t, "gpt-test", got["model"])
	assert.Equal(t, 64.0, got["max_tokens"])
	assert.Equal(t, 0.2, got["temperature"])

	msgs := got["messages"].([]interface{})
	call := msgs[0].(map[string]interface{})["tool_calls"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "{}", call["function"].(map[string]interface{})["arguments"])
	assert.Equal(t, "call_0", msgs[1].(map[string]interface{})["tool_call_id"])

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.JSONEq(t, `{"description":"Design","quantity":1,"unitPrice":500}`, string(resp.ToolCalls[0].Arguments))
}

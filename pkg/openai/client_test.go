package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dskvich/memi-chat/pkg/domain"
)

func TestBuildRequest(t *testing.T) {
	req := buildRequest(domain.ModelRequest{
		Model:             "gpt-4o-mini",
		SystemInstruction: "be brief",
		History: []domain.HistoryEntry{
			domain.NewHistoryEntry(domain.RoleUser, "hi"),
			domain.NewHistoryEntry(domain.RoleModel, "hello"),
		},
		Prompt:          "bye",
		MaxOutputTokens: 24,
	})

	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 24, req.MaxTokens)
	assert.Equal(t, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "be brief"},
		{Role: openai.ChatMessageRoleUser, Content: "hi"},
		{Role: openai.ChatMessageRoleAssistant, Content: "hello"},
		{Role: openai.ChatMessageRoleUser, Content: "bye"},
	}, req.Messages)
}

func TestStreamText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.True(t, body.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		for _, delta := range []string{"Hel", "", "lo"} {
			chunk := openai.ChatCompletionStreamResponse{
				Choices: []openai.ChatCompletionStreamChoice{{Delta: openai.ChatCompletionStreamChoiceDelta{Content: delta}}},
			}
			b, _ := json.Marshal(chunk)
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c, err := NewClient("token", srv.URL+"/v1")
	require.NoError(t, err)

	var got []string
	for text, err := range c.StreamText(context.Background(), domain.ModelRequest{Model: "m", Prompt: "Hi"}) {
		require.NoError(t, err)
		got = append(got, text)
	}
	assert.Equal(t, []string{"Hel", "lo"}, got)
}

func TestGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Greetings"}}},
		})
	}))
	defer srv.Close()

	c, err := NewClient("token", srv.URL+"/v1")
	require.NoError(t, err)

	text, err := c.GenerateText(context.Background(), domain.ModelRequest{Model: "m", Prompt: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Greetings", text)
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient("", "")
	assert.Error(t, err)
}

// Package openai generates chat replies with an OpenAI compatible API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/sashabaranov/go-openai"

	"github.com/dskvich/memi-chat/pkg/domain"
)

type Client struct {
	api *openai.Client
}

func NewClient(token, baseURL string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("token is empty")
	}

	cfg := openai.DefaultConfig(token)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &Client{api: openai.NewClientWithConfig(cfg)}, nil
}

func (c *Client) StreamText(ctx context.Context, req domain.ModelRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		chatReq := buildRequest(req)
		chatReq.Stream = true

		stream, err := c.api.CreateChatCompletionStream(ctx, chatReq)
		if err != nil {
			yield("", fmt.Errorf("creating completion stream: %w", err))
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", fmt.Errorf("receiving completion: %w", err))
				return
			}
			if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
				continue
			}
			if !yield(resp.Choices[0].Delta.Content, nil) {
				return
			}
		}
	}
}

func (c *Client) GenerateText(ctx context.Context, req domain.ModelRequest) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("creating completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildRequest(req domain.ModelRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}

	for _, h := range req.History {
		role := openai.ChatMessageRoleAssistant
		if h.Role == domain.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: h.Text()})
	}

	prompt := req.Prompt
	if req.FileURI != "" {
		prompt += "\n\n" + req.FileURI
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	return openai.ChatCompletionRequest{
		Model:     req.Model,
		Messages:  messages,
		MaxTokens: int(req.MaxOutputTokens),
	}
}

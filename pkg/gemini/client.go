// Package gemini generates chat replies with the Gemini API.
package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"github.com/dskvich/memi-chat/pkg/domain"
)

// videoMIMEType is sent with file references. The API accepts it for
// YouTube links.
const videoMIMEType = "video/*"

type Client struct {
	client *genai.Client
}

func NewClient(ctx context.Context, apiKey, baseURL string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is empty")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Client{client: client}, nil
}

// StreamText yields reply text as the model produces it.
func (c *Client) StreamText(ctx context.Context, req domain.ModelRequest) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for res, err := range c.client.Models.GenerateContentStream(ctx, req.Model, buildContents(req), buildConfig(req)) {
			if err != nil {
				yield("", fmt.Errorf("streaming content: %w", err))
				return
			}
			if text := res.Text(); text != "" {
				if !yield(text, nil) {
					return
				}
			}
		}
	}
}

func (c *Client) GenerateText(ctx context.Context, req domain.ModelRequest) (string, error) {
	res, err := c.client.Models.GenerateContent(ctx, req.Model, buildContents(req), buildConfig(req))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}
	return res.Text(), nil
}

func buildContents(req domain.ModelRequest) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, h := range req.History {
		role := genai.RoleModel
		if h.Role == domain.RoleUser {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(h.Text(), genai.Role(role)))
	}

	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if req.FileURI != "" {
		parts = append(parts, genai.NewPartFromURI(req.FileURI, videoMIMEType))
	}
	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
}

func buildConfig(req domain.ModelRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "text/plain",
		MaxOutputTokens:  req.MaxOutputTokens,
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	return cfg
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/markcoffee121-HSCL/CapStoneProject/internal/httpclient"
)

const groqEndpoint = "https://api.groq.com/openai/v1/chat/completions"

// Groq talks to the Groq chat completions API (OpenAI-compatible wire format).
type Groq struct {
	apiKey string
	model  string
	client *httpclient.Client
	url    string
}

// GroqOption configures a Groq client.
type GroqOption func(*Groq)

// WithEndpoint overrides the API endpoint. Used in tests.
func WithEndpoint(url string) GroqOption {
	return func(g *Groq) { g.url = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *httpclient.Client) GroqOption {
	return func(g *Groq) { g.client = c }
}

// NewGroq creates a Groq client. An empty apiKey yields a disabled client;
// callers are expected to check Enabled and fall back.
func NewGroq(apiKey, model string, opts ...GroqOption) *Groq {
	g := &Groq{
		apiKey: apiKey,
		model:  model,
		client: httpclient.New(httpclient.Config{Timeout: 60 * time.Second}),
		url:    groqEndpoint,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Name returns the provider name.
func (g *Groq) Name() string { return "groq" }

// Enabled reports whether an API key is configured.
func (g *Groq) Enabled() bool { return g.apiKey != "" }

// Model returns the default model name.
func (g *Groq) Model() string { return g.model }

type groqRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type groqResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a chat completion request.
func (g *Groq) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if !g.Enabled() {
		return nil, fmt.Errorf("groq: no API key configured")
	}

	model := req.Model
	if model == "" {
		model = g.model
	}
	payload := groqRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("groq: marshal request: %w", err)
	}
	headers := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + g.apiKey,
	}

	resp, err := g.client.Do(ctx, "POST", g.url, nil, headers, body)
	if err != nil {
		return nil, fmt.Errorf("groq: %w", err)
	}
	if !resp.OK() {
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var out groqResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("groq: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("groq: empty choices in response")
	}

	return &CompletionResponse{
		Content: out.Choices[0].Message.Content,
		Model:   out.Model,
		Usage: Usage{
			PromptTokens:     out.Usage.PromptTokens,
			CompletionTokens: out.Usage.CompletionTokens,
			TotalTokens:      out.Usage.TotalTokens,
		},
	}, nil
}

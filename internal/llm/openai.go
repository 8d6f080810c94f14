package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/yourname/macrotracker/internal"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-3.5-turbo"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// OpenAIClient talks to any OpenAI-compatible /chat/completions endpoint.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  internal.Logger
}

func NewOpenAIClient(apiKey, baseURL, model string, client *http.Client, logger internal.Logger) *OpenAIClient {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
		logger:  logger,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (Completion, error) {
	payload, err := json.Marshal(ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("%w: marshal request: %v", internal.ErrExternalCall, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Completion{}, fmt.Errorf("%w: create request: %v", internal.ErrExternalCall, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	body, err := doRequest(c.client, req)
	if err != nil {
		c.logger.Errorf("openai: %v", err)
		return Completion{}, err
	}

	var chat ChatResponse
	if err := json.Unmarshal(body, &chat); err != nil {
		return Completion{}, fmt.Errorf("%w: decode response: %v", internal.ErrExternalCall, err)
	}
	if len(chat.Choices) == 0 {
		return Completion{}, fmt.Errorf("%w: no choices returned", internal.ErrExternalCall)
	}

	c.logger.Debugf("openai: model=%s tokens=%d", c.model, chat.Usage.TotalTokens)
	return Completion{
		Text:       chat.Choices[0].Message.Content,
		TokensUsed: chat.Usage.TotalTokens,
	}, nil
}

var _ Completer = (*OpenAIClient)(nil)

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/yourname/macrotracker/internal"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel   = "gemini-2.0-flash"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type GeminiClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	logger  internal.Logger
}

func NewGeminiClient(apiKey, baseURL, model string, client *http.Client, logger internal.Logger) *GeminiClient {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
		logger:  logger,
	}
}

func (g *GeminiClient) Complete(ctx context.Context, system, user string) (Completion, error) {
	payload, err := json.Marshal(geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents:          []geminiContent{{Role: "user", Parts: []geminiPart{{Text: user}}}},
	})
	if err != nil {
		return Completion{}, fmt.Errorf("%w: marshal request: %v", internal.ErrExternalCall, err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Completion{}, fmt.Errorf("%w: create request: %v", internal.ErrExternalCall, err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := doRequest(g.client, req)
	if err != nil {
		g.logger.Errorf("gemini: %v", err)
		return Completion{}, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Completion{}, fmt.Errorf("%w: decode response: %v", internal.ErrExternalCall, err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return Completion{}, fmt.Errorf("%w: no candidates in response", internal.ErrExternalCall)
	}

	g.logger.Debugf("gemini: model=%s tokens=%d", g.model, resp.UsageMetadata.TotalTokenCount)
	return Completion{
		Text:       resp.Candidates[0].Content.Parts[0].Text,
		TokensUsed: resp.UsageMetadata.TotalTokenCount,
	}, nil
}

var _ Completer = (*GeminiClient)(nil)

package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yourname/macrotracker/internal"
)

// SystemPrompt asks the model for the single-line reply ParseNutrition reads.
const SystemPrompt = "You are a nutrition expert. Given a food description, " +
	"return an analysis with the calories, protein, carbs, fat, and fiber in the following format: " +
	"Calories: X kcal, Protein: X g, Carbs: X g, Fat: X g, Fiber: X g."

// Completion is the raw model reply and the tokens the request consumed.
type Completion struct {
	Text       string
	TokensUsed int
}

type Completer interface {
	Complete(ctx context.Context, system, user string) (Completion, error)
}

type Options struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
}

// New returns the Completer for opts.Provider.
func New(opts Options, logger internal.Logger) (Completer, error) {
	client := &http.Client{Timeout: opts.Timeout}
	switch opts.Provider {
	case "", "openai":
		return NewOpenAIClient(opts.APIKey, opts.BaseURL, opts.Model, client, logger), nil
	case "gemini":
		return NewGeminiClient(opts.APIKey, opts.BaseURL, opts.Model, client, logger), nil
	}
	return nil, fmt.Errorf("llm: unknown provider %q", opts.Provider)
}

// doRequest sends req and returns the body of a 200 response. Every failure
// wraps internal.ErrExternalCall.
func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrExternalCall, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", internal.ErrExternalCall, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", internal.ErrExternalCall, resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/llm"
)

const (
	defaultEndpoint = "http://localhost:11434"
	defaultModel    = "qwen2.5:32b"
)

// Provider completes prompts with a local Ollama server.
type Provider struct {
	endpoint string
	model    string
	client   *http.Client
}

// New creates an Ollama provider.
func New(endpoint, model string) (*Provider, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		client: &http.Client{
			Timeout: 5 * time.Minute, // local inference can be slow
		},
	}, nil
}

func (p *Provider) Name() string {
	return "ollama"
}

type generateRequest struct {
	Model   string          `json:"model"`
	System  string          `json:"system,omitempty"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// Complete calls /api/generate without streaming.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	body, err := json.Marshal(generateRequest{
		Model:  p.model,
		System: req.System,
		Prompt: req.Prompt,
		Options: generateOptions{
			NumPredict:  llm.MaxTokens(req.MaxTokens),
			Temperature: req.Temperature,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama API returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &llm.Response{
		Text: out.Response,
		Usage: llm.Usage{
			InputTokens:  out.PromptEvalCount,
			OutputTokens: out.EvalCount,
		},
		FinishReason: out.DoneReason,
	}, nil
}

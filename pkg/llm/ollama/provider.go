// Package ollama talks to a local Ollama server through its /api/chat
// endpoint. It is the offline stand-in for Groq when evaluating CVs.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cv-evaluator-be/pkg/llm"
)

const (
	DefaultBaseURL = "http://localhost:11434"

	providerName       = "ollama"
	chatPath           = "/api/chat"
	defaultTemperature = 0.7
	requestTimeout     = 120 * time.Second
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

var _ llm.LLMProvider = &OllamaProvider{}

// NewOllamaProvider falls back to DefaultBaseURL when baseURL is empty.
func NewOllamaProvider(baseURL, modelName string) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OllamaProvider{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		ModelName: modelName,
		Client:    &http.Client{Timeout: requestTimeout},
	}
}

type chatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type sampling struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatRequest struct {
	Model    string     `json:"model"`
	Messages []chatTurn `json:"messages"`
	Stream   bool       `json:"stream"`
	Options  *sampling  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Model           string   `json:"model"`
	Message         chatTurn `json:"message"`
	Done            bool     `json:"done"`
	PromptEvalCount int      `json:"prompt_eval_count"`
	EvalCount       int      `json:"eval_count"`
}

func (o *OllamaProvider) buildRequest(history []llm.Message, opts []llm.Option) ollamaChatRequest {
	options := &llm.Options{Temperature: defaultTemperature}
	for _, opt := range opts {
		opt(options)
	}

	model := o.ModelName
	if options.Model != "" {
		model = options.Model
	}

	turns := make([]chatTurn, 0, len(history))
	for _, msg := range history {
		turns = append(turns, chatTurn{Role: msg.Role, Content: msg.Content})
	}

	return ollamaChatRequest{
		Model:    model,
		Messages: turns,
		Options: &sampling{
			Temperature: options.Temperature,
			NumPredict:  options.MaxTokens,
		},
	}
}

func (o *OllamaProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Completion, error) {
	payload, err := json.Marshal(o.buildRequest(history, opts))
	if err != nil {
		return nil, fmt.Errorf("ollama: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ollama: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &llm.APIError{Provider: providerName, StatusCode: resp.StatusCode, Message: string(body)}
	}

	var out ollamaChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}

	return &llm.Completion{
		Content: out.Message.Content,
		Model:   out.Model,
		Usage: llm.Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

func (o *OllamaProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (*llm.Completion, error) {
	return o.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

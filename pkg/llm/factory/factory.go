package factory

import (
	"fmt"

	"cv-evaluator-be/pkg/llm"
	"cv-evaluator-be/pkg/llm/groq"
	"cv-evaluator-be/pkg/llm/ollama"
)

// NewLLMProvider builds the chat backend named by providerType; "" means groq.
func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "", "groq":
		return groq.NewGroqProvider(apiKey, baseURL, modelName), nil
	case "ollama":
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}

package factory

import (
	"testing"

	"cv-evaluator-be/pkg/llm/groq"
	"cv-evaluator-be/pkg/llm/ollama"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("groq", "", "", "key")
	require.NoError(t, err)
	assert.IsType(t, &groq.GroqProvider{}, p)

	p, err = NewLLMProvider("ollama", "llama3", "", "")
	require.NoError(t, err)
	require.IsType(t, &ollama.OllamaProvider{}, p)
	assert.Equal(t, ollama.DefaultBaseURL, p.(*ollama.OllamaProvider).BaseURL)

	_, err = NewLLMProvider("gemini", "", "", "")
	assert.Error(t, err)
}

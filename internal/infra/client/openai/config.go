package ai

import (
	"strconv"

	"github.com/websimple-ai/websimple-backend/pkg/env"
)

type OpenAIConfig struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int64
}

func NewOpenAIConfig() OpenAIConfig {
	maxTokens, err := strconv.Atoi(env.GetEnv("OPENAI_TOKENS", "2000"))
	if err != nil {
		maxTokens = 2000
	}
	return OpenAIConfig{
		apiKey:    env.GetEnv("OPENAI_KEY", ""),
		baseURL:   env.GetEnv("OPENAI_BASE_URL", ""),
		model:     env.GetEnv("OPENAI_MODEL", "gpt-4o-mini"),
		maxTokens: int64(maxTokens),
	}
}

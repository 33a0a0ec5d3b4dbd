package ai

import (
	"context"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
)

type OpenAIClient struct {
	cfg    OpenAIConfig
	client openai.Client
}

func NewOpenAIClient(config OpenAIConfig) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(config.apiKey),
		option.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	// Gemini's OpenAI-compatible endpoint plugs in here as well
	if config.baseURL != "" {
		opts = append(opts, option.WithBaseURL(config.baseURL))
	}
	return &OpenAIClient{
		config,
		openai.NewClient(opts...),
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Role: "user",
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: param.Opt[string]{Value: prompt},
				},
			},
		},
	}

	chatCompletion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               c.cfg.model,
		Messages:            messages,
		MaxCompletionTokens: param.Opt[int64]{Value: c.cfg.maxTokens},
		N:                   param.Opt[int64]{Value: 1},
		Temperature:         param.Opt[float64]{Value: 0.8},
	})
	if err != nil {
		return "", err
	}

	return chatCompletion.Choices[0].Message.Content, nil
}

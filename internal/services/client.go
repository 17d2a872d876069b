package services

import (
	openai "github.com/sashabaranov/go-openai"

	"github.com/blacx/annotator/internal/config"
)

// NewOpenAIClient builds the shared API client. A non-empty BaseURL points
// the client at an OpenAI-compatible gateway.
func NewOpenAIClient(cfg config.OpenAIConfig) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

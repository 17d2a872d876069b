package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/blacx/annotator/internal/logging"
)

// OpenAITranslator implements TranslationService and LanguageDetector with a
// chat model.
type OpenAITranslator struct {
	cli              *openai.Client
	model            string
	timeout          time.Duration
	fallbackLanguage string
	log              *logging.Logger
}

// NewOpenAITranslator creates a translation/detection client.
func NewOpenAITranslator(cli *openai.Client, model string, timeout time.Duration, fallbackLanguage string, log *logging.Logger) *OpenAITranslator {
	return &OpenAITranslator{
		cli:              cli,
		model:            model,
		timeout:          timeout,
		fallbackLanguage: fallbackLanguage,
		log:              log,
	}
}

// Translate returns the text translated into the named target language, or
// the original text unchanged when the call fails.
func (t *OpenAITranslator) Translate(ctx context.Context, text, targetLanguageName string) string {
	started := time.Now()
	translated, err := t.complete(ctx,
		fmt.Sprintf("Translate the following text to %s. Maintain the original meaning and tone.", targetLanguageName),
		text)
	t.log.LogServiceCall("translation", "translate", time.Since(started), err)
	if err != nil {
		return text
	}
	return translated
}

// Detect returns the language code of the text, or the fallback code when
// detection fails.
func (t *OpenAITranslator) Detect(ctx context.Context, text string) string {
	started := time.Now()
	code, err := t.complete(ctx,
		"Detect the language of the following text and respond with the language code only (e.g., 'en-US', 'ms-MY', etc.)",
		text)
	t.log.LogServiceCall("translation", "detect", time.Since(started), err)
	if err != nil || code == "" {
		return t.fallbackLanguage
	}
	return code
}

func (t *OpenAITranslator) complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", &ServiceError{Service: "translation", Operation: "complete", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &ServiceError{Service: "translation", Operation: "complete", Err: fmt.Errorf("empty response")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

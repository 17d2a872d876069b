package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/blacx/annotator/pkg/models"
)

const visionSystemPrompt = "You are a video frame analyzer. Describe the scene, detect objects, and categorize the scene type. " +
	"Respond with a JSON object with keys \"description\" (string), \"objects_detected\" (array of strings) and \"scene_type\" (string)."

// OpenAIVision implements VisionService with a vision-capable chat model.
type OpenAIVision struct {
	cli     *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIVision creates a vision service client.
func NewOpenAIVision(cli *openai.Client, model string, timeout time.Duration) *OpenAIVision {
	return &OpenAIVision{cli: cli, model: model, timeout: timeout}
}

// Describe sends the frame image with its timestamp and parses the
// structured response.
func (v *OpenAIVision) Describe(ctx context.Context, imageBytes []byte, timestamp float64) (models.FrameAnalysis, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes)

	resp, err := v.cli.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: visionSystemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: fmt.Sprintf("Describe this video frame at timestamp %.2f seconds.", timestamp),
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: 500,
	})
	if err != nil {
		return models.FrameAnalysis{}, &ServiceError{Service: "vision", Operation: "describe", Err: err}
	}

	if len(resp.Choices) == 0 {
		return models.FrameAnalysis{}, &ServiceError{Service: "vision", Operation: "describe", Err: fmt.Errorf("empty response")}
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		return models.FrameAnalysis{}, &ServiceError{Service: "vision", Operation: "describe", Err: fmt.Errorf("response exceeded token limit")}
	}

	var analysis models.FrameAnalysis
	if err := json.Unmarshal([]byte(choice.Message.Content), &analysis); err != nil {
		return models.FrameAnalysis{}, &ServiceError{Service: "vision", Operation: "describe", Err: fmt.Errorf("malformed response: %w", err)}
	}

	if analysis.ObjectsDetected == nil {
		analysis.ObjectsDetected = []string{}
	}

	return analysis, nil
}

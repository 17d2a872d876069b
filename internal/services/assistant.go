package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const assistantInstructions = `You are a video analysis assistant. Use the provided JSON data to answer questions about the video content, including frame descriptions, detected objects, and scene types.
When analyzing the video content, focus on:
1. Frame descriptions and their timestamps
2. Detected objects and their frequency
3. Scene type classifications
4. Any patterns or notable events`

// OpenAIAssistant implements AssistantBackend with the assistants API. One
// assistant plus one uploaded file form a context; each Ask runs on a fresh
// thread against that context.
type OpenAIAssistant struct {
	cli          *openai.Client
	model        string
	pollInterval time.Duration
	pollLimit    int

	// context handle -> uploaded file, attached to each query message.
	// One backend serves all HTTP handlers, so access is guarded.
	mu    sync.Mutex
	files map[string]string
}

// NewOpenAIAssistant creates an assistant backend.
func NewOpenAIAssistant(cli *openai.Client, model string, pollInterval time.Duration, pollLimit int) *OpenAIAssistant {
	return &OpenAIAssistant{
		cli:          cli,
		model:        model,
		pollInterval: pollInterval,
		pollLimit:    pollLimit,
		files:        make(map[string]string),
	}
}

// CreateContext uploads the record document and creates an assistant around
// it. The returned handle is the assistant ID.
func (a *OpenAIAssistant) CreateContext(ctx context.Context, document []byte) (string, error) {
	tmpFile := filepath.Join(os.TempDir(), fmt.Sprintf("annotation-%d.json", time.Now().UnixNano()))
	if err := os.WriteFile(tmpFile, document, 0644); err != nil {
		return "", &ServiceError{Service: "assistant", Operation: "create_context", Err: err}
	}
	defer os.Remove(tmpFile)

	file, err := a.cli.CreateFile(ctx, openai.FileRequest{
		FilePath: tmpFile,
		Purpose:  "assistants",
	})
	if err != nil {
		return "", &ServiceError{Service: "assistant", Operation: "upload", Err: err}
	}

	assistant, err := a.cli.CreateAssistant(ctx, openai.AssistantRequest{
		Name:         stringPtr(fmt.Sprintf("Video Analysis Assistant %d", time.Now().Unix())),
		Model:        a.model,
		Instructions: stringPtr(assistantInstructions),
		Tools: []openai.AssistantTool{
			{Type: openai.AssistantToolTypeFileSearch},
		},
	})
	if err != nil {
		return "", &ServiceError{Service: "assistant", Operation: "create", Err: err}
	}

	a.setContextFile(assistant.ID, file.ID)
	return assistant.ID, nil
}

func (a *OpenAIAssistant) setContextFile(assistantID, fileID string) {
	a.mu.Lock()
	a.files[assistantID] = fileID
	a.mu.Unlock()
}

func (a *OpenAIAssistant) contextFile(assistantID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fileID, ok := a.files[assistantID]
	return fileID, ok
}

// Ask runs one query on a fresh thread and polls the run until it completes,
// fails, or exceeds the polling limit.
func (a *OpenAIAssistant) Ask(ctx context.Context, contextID, query string) (string, error) {
	thread, err := a.cli.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", &ServiceError{Service: "assistant", Operation: "create_thread", Err: err}
	}

	message := openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: query,
	}
	if fileID, ok := a.contextFile(contextID); ok {
		message.Attachments = []openai.ThreadAttachment{
			{
				FileID: fileID,
				Tools:  []openai.ThreadAttachmentTool{{Type: string(openai.AssistantToolTypeFileSearch)}},
			},
		}
	}
	if _, err := a.cli.CreateMessage(ctx, thread.ID, message); err != nil {
		return "", &ServiceError{Service: "assistant", Operation: "create_message", Err: err}
	}

	run, err := a.cli.CreateRun(ctx, thread.ID, openai.RunRequest{AssistantID: contextID})
	if err != nil {
		return "", &ServiceError{Service: "assistant", Operation: "create_run", Err: err}
	}

	status, err := a.waitForRun(ctx, thread.ID, run.ID)
	if err != nil {
		return "", err
	}
	if status != openai.RunStatusCompleted {
		return "", &ServiceError{Service: "assistant", Operation: "run", Err: fmt.Errorf("run ended with status %s", status)}
	}

	return a.latestAssistantReply(ctx, thread.ID)
}

// waitForRun polls the run status a bounded number of times. A stuck backend
// surfaces as an error after pollLimit checks, never as an indefinite hang.
func (a *OpenAIAssistant) waitForRun(ctx context.Context, threadID, runID string) (openai.RunStatus, error) {
	for attempt := 0; attempt < a.pollLimit; attempt++ {
		run, err := a.cli.RetrieveRun(ctx, threadID, runID)
		if err != nil {
			return "", &ServiceError{Service: "assistant", Operation: "poll", Err: err}
		}

		switch run.Status {
		case openai.RunStatusCompleted,
			openai.RunStatusFailed,
			openai.RunStatusCancelled,
			openai.RunStatusExpired:
			return run.Status, nil
		}

		select {
		case <-ctx.Done():
			return "", &ServiceError{Service: "assistant", Operation: "poll", Err: ctx.Err()}
		case <-time.After(a.pollInterval):
		}
	}

	return "", &ServiceError{Service: "assistant", Operation: "poll", Err: fmt.Errorf("run did not complete after %d checks", a.pollLimit)}
}

func (a *OpenAIAssistant) latestAssistantReply(ctx context.Context, threadID string) (string, error) {
	limit := 10
	messages, err := a.cli.ListMessage(ctx, threadID, &limit, nil, nil, nil, nil)
	if err != nil {
		return "", &ServiceError{Service: "assistant", Operation: "list_messages", Err: err}
	}

	for _, msg := range messages.Messages {
		if msg.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		for _, content := range msg.Content {
			if content.Text != nil {
				return content.Text.Value, nil
			}
		}
	}

	return "", &ServiceError{Service: "assistant", Operation: "list_messages", Err: fmt.Errorf("no assistant reply found")}
}

func stringPtr(s string) *string { return &s }

// Package query answers free-text questions about an annotated video using a
// conversational backend primed with the record document.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/metrics"
	"github.com/blacx/annotator/internal/pipeline"
	"github.com/blacx/annotator/internal/services"
	"github.com/blacx/annotator/pkg/models"
)

// Usage errors: the caller invoked operations out of order. Distinct from
// backend failures, which surface as *pipeline.AssistantError.
var (
	ErrNoRecord  = errors.New("no annotation record available: process a video first")
	ErrNoContext = errors.New("no query context: create a context from the record before querying")
)

const answerFormat = `Respond with a JSON object only, no prose around it, using exactly these fields:
{"answer": "<your answer>", "relevant_timestamps": ["<timestamp>", ...], "confidence": <0.0-1.0>}`

// Engine drives the query workflow: upload the record once as shared
// context, then run any number of questions against it.
type Engine struct {
	backend services.AssistantBackend
	log     *logging.Logger
}

func NewEngine(backend services.AssistantBackend, log *logging.Logger) *Engine {
	return &Engine{backend: backend, log: log}
}

// CreateContext serializes the session's record and uploads it to the
// backend. The resulting handle is stored in the session; the record is not
// resent on subsequent Ask calls.
func (e *Engine) CreateContext(ctx context.Context, session *pipeline.Session) error {
	record := session.Record()
	if record == nil {
		return ErrNoRecord
	}

	document, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	start := time.Now()
	contextID, err := e.backend.CreateContext(ctx, document)
	e.log.LogServiceCall("assistant", "create_context", time.Since(start), err)
	if err != nil {
		return &pipeline.AssistantError{Status: "context_failed", Err: err}
	}

	session.SetContextID(contextID)
	return nil
}

// Ask runs one question against the session's query context. Backend
// failures come back as *pipeline.AssistantError; callers render those as a
// descriptive failed answer rather than dropping the query.
func (e *Engine) Ask(ctx context.Context, session *pipeline.Session, question string) (*models.QueryAnswer, error) {
	if !session.HasContext() {
		return nil, ErrNoContext
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("empty question")
	}

	start := time.Now()
	raw, err := e.backend.Ask(ctx, session.ContextID(), question+"\n\n"+answerFormat)
	e.log.LogServiceCall("assistant", "ask", time.Since(start), err)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("failed").Inc()
		var aerr *pipeline.AssistantError
		if errors.As(err, &aerr) {
			return nil, aerr
		}
		return nil, &pipeline.AssistantError{Status: "error", Err: err}
	}

	answer, err := parseAnswer(raw)
	if err != nil {
		metrics.QueriesTotal.WithLabelValues("unparseable").Inc()
		e.log.WithError(err).Warn("assistant reply was not valid JSON, wrapping as plain answer")
		// The reply is still an answer, just unstructured. Surface it.
		answer = &models.QueryAnswer{Answer: raw, RelevantTimestamps: []string{}}
	} else {
		metrics.QueriesTotal.WithLabelValues("ok").Inc()
	}

	answer.Clamp()
	return answer, nil
}

// FailedAnswer renders a backend failure as a descriptive answer so callers
// that expect the answer shape still get one.
func FailedAnswer(err error) *models.QueryAnswer {
	return &models.QueryAnswer{
		Answer:             fmt.Sprintf("Query failed: %v", err),
		RelevantTimestamps: []string{},
		Confidence:         0,
	}
}

// parseAnswer decodes the backend reply, tolerating markdown code fences
// around the JSON body.
func parseAnswer(raw string) (*models.QueryAnswer, error) {
	body := strings.TrimSpace(raw)
	if strings.HasPrefix(body, "```") {
		body = strings.TrimPrefix(body, "```json")
		body = strings.TrimPrefix(body, "```")
		if idx := strings.LastIndex(body, "```"); idx >= 0 {
			body = body[:idx]
		}
		body = strings.TrimSpace(body)
	}

	answer := &models.QueryAnswer{}
	if err := json.Unmarshal([]byte(body), answer); err != nil {
		return nil, fmt.Errorf("failed to parse answer: %w", err)
	}
	if answer.RelevantTimestamps == nil {
		answer.RelevantTimestamps = []string{}
	}
	return answer, nil
}

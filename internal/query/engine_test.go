package query

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/pipeline"
	"github.com/blacx/annotator/pkg/models"
)

type mockBackend struct {
	contextID    string
	contextErr   error
	reply        string
	askErr       error
	lastDocument []byte
	lastQuery    string
}

func (m *mockBackend) CreateContext(ctx context.Context, document []byte) (string, error) {
	m.lastDocument = document
	if m.contextErr != nil {
		return "", m.contextErr
	}
	return m.contextID, nil
}

func (m *mockBackend) Ask(ctx context.Context, contextID, query string) (string, error) {
	m.lastQuery = query
	if m.askErr != nil {
		return "", m.askErr
	}
	return m.reply, nil
}

func newEngine(t *testing.T, backend *mockBackend) *Engine {
	t.Helper()
	log, err := logging.NewConsoleLogger()
	require.NoError(t, err)
	return NewEngine(backend, log)
}

func sessionWithRecord() *pipeline.Session {
	session := pipeline.NewSession()
	session.SetResult(models.NewRecordEnvelope(time.Now()), nil)
	return session
}

func TestAskWithoutContextIsUsageError(t *testing.T) {
	engine := newEngine(t, &mockBackend{})
	session := sessionWithRecord()

	answer, err := engine.Ask(context.Background(), session, "what happens at the start?")

	assert.Nil(t, answer)
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestCreateContextWithoutRecordIsUsageError(t *testing.T) {
	engine := newEngine(t, &mockBackend{})
	err := engine.CreateContext(context.Background(), pipeline.NewSession())
	assert.ErrorIs(t, err, ErrNoRecord)
}

func TestCreateContextUploadsRecordOnce(t *testing.T) {
	backend := &mockBackend{contextID: "ctx-42"}
	engine := newEngine(t, backend)
	session := sessionWithRecord()

	require.NoError(t, engine.CreateContext(context.Background(), session))
	assert.Equal(t, "ctx-42", session.ContextID())

	restored := &models.AnnotationRecord{}
	require.NoError(t, json.Unmarshal(backend.lastDocument, restored))
	assert.Equal(t, session.Record().ID, restored.ID)
}

func TestAskParsesStructuredReply(t *testing.T) {
	backend := &mockBackend{
		contextID: "ctx-1",
		reply:     `{"answer": "a car drives by", "relevant_timestamps": ["2.0", "4.0"], "confidence": 0.8}`,
	}
	engine := newEngine(t, backend)
	session := sessionWithRecord()
	require.NoError(t, engine.CreateContext(context.Background(), session))

	answer, err := engine.Ask(context.Background(), session, "what vehicles appear?")

	require.NoError(t, err)
	assert.Equal(t, "a car drives by", answer.Answer)
	assert.Equal(t, []string{"2.0", "4.0"}, answer.RelevantTimestamps)
	assert.Equal(t, 0.8, answer.Confidence)
	assert.Contains(t, backend.lastQuery, "what vehicles appear?")
}

func TestAskToleratesCodeFencedReply(t *testing.T) {
	backend := &mockBackend{
		contextID: "ctx-1",
		reply:     "```json\n{\"answer\": \"fenced\", \"relevant_timestamps\": [], \"confidence\": 1.5}\n```",
	}
	engine := newEngine(t, backend)
	session := sessionWithRecord()
	require.NoError(t, engine.CreateContext(context.Background(), session))

	answer, err := engine.Ask(context.Background(), session, "anything?")

	require.NoError(t, err)
	assert.Equal(t, "fenced", answer.Answer)
	// Out-of-range confidence is clamped.
	assert.Equal(t, 1.0, answer.Confidence)
}

func TestAskWrapsUnstructuredReply(t *testing.T) {
	backend := &mockBackend{contextID: "ctx-1", reply: "just some prose"}
	engine := newEngine(t, backend)
	session := sessionWithRecord()
	require.NoError(t, engine.CreateContext(context.Background(), session))

	answer, err := engine.Ask(context.Background(), session, "anything?")

	require.NoError(t, err)
	assert.Equal(t, "just some prose", answer.Answer)
	assert.Empty(t, answer.RelevantTimestamps)
}

func TestAskBackendFailure(t *testing.T) {
	backend := &mockBackend{contextID: "ctx-1", askErr: errors.New("run expired")}
	engine := newEngine(t, backend)
	session := sessionWithRecord()
	require.NoError(t, engine.CreateContext(context.Background(), session))

	answer, err := engine.Ask(context.Background(), session, "anything?")

	assert.Nil(t, answer)
	var aerr *pipeline.AssistantError
	require.ErrorAs(t, err, &aerr)

	failed := FailedAnswer(err)
	assert.Contains(t, failed.Answer, "Query failed")
	assert.Zero(t, failed.Confidence)
}

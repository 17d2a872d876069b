package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blacx/annotator/internal/export"
	"github.com/blacx/annotator/internal/logging"
	"github.com/blacx/annotator/internal/query"
	"github.com/blacx/annotator/pkg/models"
)

type stubBackend struct {
	reply  string
	askErr error
}

func (s *stubBackend) CreateContext(ctx context.Context, document []byte) (string, error) {
	return "ctx-1", nil
}

func (s *stubBackend) Ask(ctx context.Context, contextID, q string) (string, error) {
	return s.reply, s.askErr
}

func testAPI(t *testing.T, backend *stubBackend) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log, err := logging.NewConsoleLogger()
	require.NoError(t, err)

	return &API{
		log:      log,
		engine:   query.NewEngine(backend, log),
		exporter: export.NewExporter(24),
		sessions: newSessionStore(),
	}
}

func annotatedSession(api *API) string {
	session := api.sessions.Create()
	record := models.NewRecordEnvelope(time.Now())
	record.Source.Tracks.Caption.EventData = []models.EventRecord{
		{EventID: "a quiet street", Inpoint: 0, Outpoint: 0},
	}
	session.SetResult(record, []models.FrameAnalysis{{SceneType: "outdoor", ObjectsDetected: []string{"tree"}}})
	return session.ID()
}

func doRequest(api *API, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	setupRouter(api).ServeHTTP(w, req)
	return w
}

func TestQueryBeforeContextIsConflict(t *testing.T) {
	api := testAPI(t, &stubBackend{})
	id := annotatedSession(api)

	w := doRequest(api, http.MethodPost, "/api/v1/sessions/"+id+"/query", `{"question": "what happens?"}`)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "no query context")
}

func TestQueryAfterContext(t *testing.T) {
	api := testAPI(t, &stubBackend{reply: `{"answer": "a street scene", "relevant_timestamps": ["0.0"], "confidence": 0.9}`})
	id := annotatedSession(api)

	w := doRequest(api, http.MethodPost, "/api/v1/sessions/"+id+"/context", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(api, http.MethodPost, "/api/v1/sessions/"+id+"/query", `{"question": "what happens?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	answer := &models.QueryAnswer{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), answer))
	assert.Equal(t, "a street scene", answer.Answer)
	assert.Equal(t, 0.9, answer.Confidence)
}

func TestQueryBackendFailureReturnsFailedAnswer(t *testing.T) {
	api := testAPI(t, &stubBackend{askErr: errors.New("run expired")})
	id := annotatedSession(api)

	w := doRequest(api, http.MethodPost, "/api/v1/sessions/"+id+"/context", "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(api, http.MethodPost, "/api/v1/sessions/"+id+"/query", `{"question": "what happens?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	answer := &models.QueryAnswer{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), answer))
	assert.Contains(t, answer.Answer, "Query failed")
	assert.Zero(t, answer.Confidence)
}

func TestContextWithoutRecordIsConflict(t *testing.T) {
	api := testAPI(t, &stubBackend{})
	session := api.sessions.Create()

	w := doRequest(api, http.MethodPost, "/api/v1/sessions/"+session.ID()+"/context", "")

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportUnsupportedFormat(t *testing.T) {
	api := testAPI(t, &stubBackend{})
	id := annotatedSession(api)

	w := doRequest(api, http.MethodGet, "/api/v1/sessions/"+id+"/export?format=yaml", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "supported_formats")
}

func TestExportDefaultsToStructuredJSON(t *testing.T) {
	api := testAPI(t, &stubBackend{})
	id := annotatedSession(api)

	w := doRequest(api, http.MethodGet, "/api/v1/sessions/"+id+"/export", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	record := &models.AnnotationRecord{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), record))
	assert.Len(t, record.Events(), 1)
}

func TestSessionStats(t *testing.T) {
	api := testAPI(t, &stubBackend{})
	id := annotatedSession(api)

	w := doRequest(api, http.MethodGet, "/api/v1/sessions/"+id+"/stats", "")

	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		EventCount        int            `json:"event_count"`
		SceneDistribution map[string]int `json:"scene_distribution"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.EventCount)
	assert.Equal(t, 1, stats.SceneDistribution["outdoor"])
}

func TestUnknownSession(t *testing.T) {
	api := testAPI(t, &stubBackend{})

	w := doRequest(api, http.MethodGet, "/api/v1/sessions/nope/stats", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteSession(t *testing.T) {
	api := testAPI(t, &stubBackend{})
	id := annotatedSession(api)

	w := doRequest(api, http.MethodDelete, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(api, http.MethodGet, "/api/v1/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

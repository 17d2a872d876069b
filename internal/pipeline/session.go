package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blacx/annotator/pkg/models"
)

// Session holds the state of one annotation workflow: the record produced by
// the last run, the transient frame analyses behind it, and the query context
// handle once one has been created. All access is safe for concurrent use.
type Session struct {
	id        string
	createdAt time.Time

	mu        sync.RWMutex
	record    *models.AnnotationRecord
	analyses  []models.FrameAnalysis
	contextID string
}

func NewSession() *Session {
	return &Session{
		id:        uuid.New().String(),
		createdAt: time.Now(),
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// SetResult installs a fresh run's outputs. Any previous query context is
// invalidated: it described the old record.
func (s *Session) SetResult(record *models.AnnotationRecord, analyses []models.FrameAnalysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	s.analyses = analyses
	s.contextID = ""
}

func (s *Session) Record() *models.AnnotationRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record
}

// Analyses returns the per-frame analyses of the last run. They back the
// scene statistics endpoints; they are not part of the exported record.
func (s *Session) Analyses() []models.FrameAnalysis {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.analyses
}

func (s *Session) SetContextID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contextID = id
}

func (s *Session) ContextID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contextID
}

func (s *Session) HasContext() bool {
	return s.ContextID() != ""
}

// Reset clears all run state, returning the session to its initial empty
// shape.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = nil
	s.analyses = nil
	s.contextID = ""
}

// Close releases the session's run state.
func (s *Session) Close() {
	s.Reset()
}

// SceneDistribution tallies the scene types of the last run's analyses.
func (s *Session) SceneDistribution() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dist := make(map[string]int)
	for _, a := range s.analyses {
		dist[a.SceneType]++
	}
	return dist
}

// ObjectTally counts the detected objects across the last run's analyses.
func (s *Session) ObjectTally() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tally := make(map[string]int)
	for _, a := range s.analyses {
		for _, obj := range a.ObjectsDetected {
			tally[obj]++
		}
	}
	return tally
}
